package subscribe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppxi/luxflex/internal/manager"
)

func uevent(fields ...string) []byte {
	var b []byte
	for _, f := range fields {
		b = append(b, f...)
		b = append(b, 0)
	}
	return b
}

func TestIsBacklightChange(t *testing.T) {
	assert.True(t, isBacklightChange(uevent(
		"change@/devices/pci0000:00/0000:00:02.0/drm/card0/card0-eDP-1/intel_backlight",
		"ACTION=change",
		"SUBSYSTEM=backlight",
	)))
	assert.False(t, isBacklightChange(uevent("ACTION=add", "SUBSYSTEM=backlight")))
	assert.False(t, isBacklightChange(uevent("ACTION=change", "SUBSYSTEM=power_supply")))
	assert.False(t, isBacklightChange(nil))
}

func TestIsResume(t *testing.T) {
	assert.True(t, isResume(&dbus.Signal{Name: sleepSignal, Body: []interface{}{false}}))
	assert.False(t, isResume(&dbus.Signal{Name: sleepSignal, Body: []interface{}{true}}))
	assert.False(t, isResume(&dbus.Signal{Name: "org.example.Other", Body: []interface{}{false}}))
	assert.False(t, isResume(&dbus.Signal{Name: sleepSignal}))
	assert.False(t, isResume(nil))
}

func TestTrySendDoesNotBlock(t *testing.T) {
	ch := make(chan struct{}, 1)
	trySend(ch)
	trySend(ch)
	assert.Len(t, ch, 1)
}

func TestConfigEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luxflex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("floor: 10\n"), 0o644))

	cm := manager.NewConfigManager(path)
	_, err := cm.Load()
	require.NoError(t, err)

	events := ConfigEvents(cm)
	require.NoError(t, os.WriteFile(path, []byte("floor: 25\n"), 0o644))

	timeout := time.After(5 * time.Second)
	for {
		select {
		case change := <-events:
			// Editors and WriteFile can produce several events; wait for
			// the complete file.
			if change.Err == nil && change.Settings.Floor == 25 {
				return
			}
		case <-timeout:
			t.Fatal("no config change delivered")
		}
	}
}
