package displayinfo

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDevice(t *testing.T, root, name string, current, max int) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brightness"), []byte(strconv.Itoa(current)+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "max_brightness"), []byte(strconv.Itoa(max)+"\n"), 0o644))
}

func TestGetDisplayInfo(t *testing.T) {
	root := t.TempDir()
	fakeDevice(t, root, "intel_backlight", 9600, 19200)
	fakeDevice(t, root, "acpi_video0", 10, 100)

	info, err := GetDisplayInfo(root, "")
	require.NoError(t, err)
	require.Len(t, info.Devices, 2)

	// sorted: acpi_video0 first
	assert.Equal(t, "acpi_video0", info.Devices[0].Name)
	assert.Equal(t, 10, info.Level)
	assert.Equal(t, 50, info.Devices[1].Percent())
}

func TestDevices_ByName(t *testing.T) {
	root := t.TempDir()
	fakeDevice(t, root, "intel_backlight", 100, 400)
	fakeDevice(t, root, "acpi_video0", 10, 100)

	devices, err := Devices(root, "intel_backlight")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, 25, devices[0].Percent())
}

func TestDevices_None(t *testing.T) {
	_, err := Devices(t.TempDir(), "")
	assert.ErrorIs(t, err, ErrNoDevices)
}

func TestDevices_InvalidMax(t *testing.T) {
	root := t.TempDir()
	fakeDevice(t, root, "broken", 1, 0)

	_, err := Devices(root, "")
	assert.Error(t, err)
}

func TestWriteRaw(t *testing.T) {
	root := t.TempDir()
	fakeDevice(t, root, "intel_backlight", 0, 19200)

	devices, err := Devices(root, "")
	require.NoError(t, err)

	d := devices[0]
	require.NoError(t, WriteRaw(d, d.Raw(30)))

	got, err := ReadDevice(d.Path)
	require.NoError(t, err)
	assert.Equal(t, 5760, got.Current)
	assert.Equal(t, 30, got.Percent())
}

func TestDevice_Quantize(t *testing.T) {
	coarse := Device{Max: 15}
	assert.Equal(t, 7, coarse.Quantize(5))
	assert.Equal(t, 80, coarse.Quantize(80))
	assert.Equal(t, 0, coarse.Quantize(2))

	fine := Device{Max: 1000}
	assert.Equal(t, 5, fine.Quantize(5))
}
