package displayinfo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultRoot is where the kernel exposes backlight devices.
const DefaultRoot = "/sys/class/backlight"

var ErrNoDevices = errors.New("no backlight devices found")

type Device struct {
	Name    string `json:"name"`
	Path    string `json:"-"`
	Current int    `json:"current"`
	Max     int    `json:"max"`
}

// Percent converts the raw level to 0-100.
func (d Device) Percent() int {
	if d.Max <= 0 {
		return 0
	}
	p := int(math.Round(float64(d.Current) / float64(d.Max) * 100.0))
	if p < 0 {
		return 0
	} else if p > 100 {
		return 100
	}
	return p
}

// Raw converts a percentage to the device's raw scale.
func (d Device) Raw(percent int) int {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	return int(math.Round(float64(percent) / 100.0 * float64(d.Max)))
}

// Quantize is the percentage the device reports back after percent is
// written. Panels with few steps cannot hold every value.
func (d Device) Quantize(percent int) int {
	return Device{Current: d.Raw(percent), Max: d.Max}.Percent()
}

type DisplayInfo struct {
	Level   int      `json:"level"`
	Devices []Device `json:"devices"`
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(data))
	return strconv.Atoi(s)
}

// ReadDevice loads one backlight device directory.
func ReadDevice(dir string) (Device, error) {
	current, err := readInt(filepath.Join(dir, "brightness"))
	if err != nil {
		return Device{}, err
	}

	maxVal, err := readInt(filepath.Join(dir, "max_brightness"))
	if err != nil {
		return Device{}, err
	}

	if maxVal <= 0 {
		return Device{}, fmt.Errorf("%s: invalid max_brightness value %d", filepath.Base(dir), maxVal)
	}

	return Device{
		Name:    filepath.Base(dir),
		Path:    dir,
		Current: current,
		Max:     maxVal,
	}, nil
}

// Devices lists the backlight devices under root, sorted by name. When name
// is set only that device is returned.
func Devices(root, name string) ([]Device, error) {
	if root == "" {
		root = DefaultRoot
	}

	pattern := filepath.Join(root, "*")
	if name != "" {
		pattern = filepath.Join(root, name)
	}

	paths, err := filepath.Glob(pattern)
	if err != nil || len(paths) == 0 {
		return nil, ErrNoDevices
	}
	sort.Strings(paths)

	var devices []Device
	for _, p := range paths {
		d, err := ReadDevice(p)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// WriteRaw sets a device's raw brightness through sysfs.
func WriteRaw(d Device, raw int) error {
	if raw < 0 {
		raw = 0
	} else if raw > d.Max {
		raw = d.Max
	}
	return os.WriteFile(filepath.Join(d.Path, "brightness"), []byte(strconv.Itoa(raw)), 0o644)
}

// GetDisplayInfo reports the first device's level along with all devices.
func GetDisplayInfo(root, name string) (*DisplayInfo, error) {
	devices, err := Devices(root, name)
	if err != nil {
		return nil, err
	}

	return &DisplayInfo{
		Level:   devices[0].Percent(),
		Devices: devices,
	}, nil
}

func GetDisplayInfoJSON(root, name string) ([]byte, error) {
	info, err := GetDisplayInfo(root, name)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(info, "", "  ")
}
