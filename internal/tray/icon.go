package tray

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"golang.org/x/image/draw"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

const (
	iconSize   = 32
	renderSize = 64
	iconRadius = 14
	iconSteps  = 10
)

var (
	frameColor = color.RGBA{R: 0x2b, G: 0x2b, B: 0x2b, A: 0xff}
	lightColor = color.RGBA{R: 0xff, G: 0xd0, B: 0x4a, A: 0xff}
	shadeColor = color.RGBA{R: 0x4a, G: 0x55, B: 0x7a, A: 0xff}

	iconCache sync.Map
)

// Icon returns the PNG tray icon for s. Levels share one of eleven icons.
func Icon(s dimmer.State) ([]byte, error) {
	bucket := (dimmer.ClampBrightness(s.Brightness)*iconSteps + dimmer.MaxBrightness/2) / dimmer.MaxBrightness
	shaded := s.EffectiveAlpha() > 0
	key := fmt.Sprintf("%d-%t", bucket, shaded)

	if b, ok := iconCache.Load(key); ok {
		return b.([]byte), nil
	}

	b, err := renderIcon(bucket, shaded)
	if err != nil {
		return nil, err
	}
	iconCache.Store(key, b)
	return b, nil
}

func renderIcon(bucket int, shaded bool) ([]byte, error) {
	big := image.NewRGBA(image.Rect(0, 0, renderSize, renderSize))
	draw.Draw(big, big.Bounds(), image.NewUniform(frameColor), image.Point{}, draw.Src)

	fill := lightColor
	if shaded {
		fill = shadeColor
	}
	level := renderSize * bucket / iconSteps
	fillRect := image.Rect(0, renderSize-level, renderSize, renderSize)
	draw.Draw(big, fillRect, image.NewUniform(fill), image.Point{}, draw.Src)

	rounded := image.NewRGBA(big.Bounds())
	draw.DrawMask(rounded, rounded.Bounds(), big, image.Point{}, roundedMask(renderSize, renderSize, iconRadius), image.Point{}, draw.Over)

	small := image.NewRGBA(image.Rect(0, 0, iconSize, iconSize))
	draw.CatmullRom.Scale(small, small.Bounds(), rounded, rounded.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, small); err != nil {
		return nil, fmt.Errorf("encode icon: %w", err)
	}
	return buf.Bytes(), nil
}

func roundedMask(w, h, r int) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r = min(r, min(w, h)/2)

	inside := func(x, y, cx, cy int) bool {
		dx, dy := x-cx, y-cy
		return dx*dx+dy*dy <= r*r
	}

	for y := range h {
		for x := range w {
			alpha := uint8(255)
			switch {
			case x < r && y < r:
				if !inside(x, y, r, r) {
					alpha = 0
				}
			case x >= w-r && y < r:
				if !inside(x, y, w-r, r) {
					alpha = 0
				}
			case x >= w-r && y >= h-r:
				if !inside(x, y, w-r, h-r) {
					alpha = 0
				}
			case x < r && y >= h-r:
				if !inside(x, y, r, h-r) {
					alpha = 0
				}
			}
			mask.SetAlpha(x, y, color.Alpha{A: alpha})
		}
	}
	return mask
}
