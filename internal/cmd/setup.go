package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hoppxi/luxflex/config"
	"github.com/hoppxi/luxflex/internal/dimmer"
	"github.com/hoppxi/luxflex/internal/manager"
	"github.com/hoppxi/luxflex/pkg/displayinfo"
)

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config",
	Short: "Write luxflex.yaml, asking for the main settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		path := configPath
		if path == "" {
			path = manager.DefaultConfigPath()
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			if !confirm(reader, out, fmt.Sprintf("%s already exists. Overwrite?", path)) {
				return nil
			}
		}

		defaults, _ := cmd.Flags().GetBool("defaults")
		if err := writeConfig(reader, out, path, defaults); err != nil {
			return err
		}
		fmt.Fprintf(out, "Config written to %s\n", path)
		return nil
	},
}

func init() {
	generateConfigCmd.Flags().Bool("defaults", false, "write the annotated default config without asking")
	generateConfigCmd.Flags().BoolP("force", "f", false, "overwrite an existing file")
}

func writeConfig(reader *bufio.Reader, out io.Writer, path string, defaults bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	if defaults {
		return os.WriteFile(path, config.Template(), 0o644)
	}

	s := promptSettings(reader, out)
	d, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, d, 0o644)
}

func promptSettings(r *bufio.Reader, out io.Writer) manager.Settings {
	s := manager.Settings{
		SysfsRoot:  displayinfo.DefaultRoot,
		OverlayVar: "DIMMER_ALPHA",
		Tick:       manager.DefaultTick,
		Step:       manager.DefaultStep,
		LogLevel:   "info",
	}
	s.MQTT.Name = manager.AppName

	backend, device := "logind", ""
	if devs, err := displayinfo.Devices(displayinfo.DefaultRoot, ""); err == nil && len(devs) > 0 {
		device = devs[0].Name
	} else {
		backend = "none"
	}

	s.Backend = prompt(r, out, "Backend (logind, sysfs, brightnessctl, ddc, none)", backend)
	s.Device = prompt(r, out, "Backlight device", device)
	s.Overlay = prompt(r, out, "Overlay (eww, none)", "eww")
	s.Floor = promptInt(r, out, "Overlay floor (0-100)", dimmer.DefaultFloor)
	s.Store.Type = prompt(r, out, "State store (yaml, sqlite, memory)", "yaml")
	s.Tray = confirmDefault(r, out, "Show tray icon?", true)
	s.MQTT.Broker = prompt(r, out, "MQTT broker for Home Assistant (empty to disable)", "")
	return s
}

func prompt(r *bufio.Reader, out io.Writer, label, defaultValue string) string {
	fmt.Fprintf(out, "%s [%s]: ", label, defaultValue)
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

func promptInt(r *bufio.Reader, out io.Writer, label string, defaultValue int) int {
	for {
		v, err := strconv.Atoi(prompt(r, out, label, strconv.Itoa(defaultValue)))
		if err == nil {
			return v
		}
		fmt.Fprintln(out, "Please enter a number.")
	}
}

func confirm(r *bufio.Reader, out io.Writer, message string) bool {
	return confirmDefault(r, out, message, false)
}

func confirmDefault(r *bufio.Reader, out io.Writer, message string, def bool) bool {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	fmt.Fprintf(out, "%s (%s): ", message, hint)
	input, _ := r.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}
