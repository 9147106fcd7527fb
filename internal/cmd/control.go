package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hoppxi/luxflex/internal/manager"
)

// sendCommand forwards command to the daemon and prints the reply.
func sendCommand(cmd *cobra.Command, command string) error {
	reply, err := manager.SendIPCCommand(manager.SocketPath(), command)
	if err != nil {
		if reply == "" {
			return fmt.Errorf("%w (is the daemon running? start it with `luxflex start`)", err)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(strings.TrimPrefix(reply, "OK:")))
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current brightness and overlay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCommand(cmd, "STATUS")
	},
}

var setCmd = &cobra.Command{
	Use:   "set <0-100>",
	Short: "Set the brightness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := parsePercent(args[0])
		if err != nil {
			return err
		}
		return sendCommand(cmd, fmt.Sprintf("SET %d", v))
	},
}

var stepCmd = &cobra.Command{
	Use:   "step [delta]",
	Short: "Change the brightness by delta, e.g. `luxflex step -5`",
	// Negative deltas would otherwise be parsed as flags.
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
			return cmd.Help()
		}
		command, err := stepCommand(args)
		if err != nil {
			return err
		}
		return sendCommand(cmd, command)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Show or hide the dimming overlay",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendCommand(cmd, "TOGGLE")
	},
}

// parsePercent accepts "40" or "40%".
func parsePercent(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if err != nil {
		return 0, fmt.Errorf("invalid brightness %q", s)
	}
	return v, nil
}

func stepCommand(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "STEP", nil
	case 1:
		v, err := strconv.Atoi(strings.TrimPrefix(args[0], "+"))
		if err != nil {
			return "", fmt.Errorf("invalid step %q", args[0])
		}
		return fmt.Sprintf("STEP %d", v), nil
	default:
		return "", fmt.Errorf("expected at most one delta, got %d", len(args))
	}
}
