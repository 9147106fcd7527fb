package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoppxi/luxflex/internal/manager"
	"github.com/hoppxi/luxflex/internal/settings"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently saved states (sqlite store only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := manager.NewConfigManager(configPath).Load()
		if err != nil {
			return err
		}
		if s.Store.Type != "sqlite" {
			return fmt.Errorf("history needs store.type: sqlite, have %q", s.Store.Type)
		}

		store, err := settings.NewSQLiteStore(s.StorePath())
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		entries, err := store.History(ctx, limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SAVED\tBRIGHTNESS\tOVERLAY\tENABLED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%d%%\t%d\t%t\n",
				e.SavedAt.Local().Format(time.DateTime), e.State.Brightness, e.State.OverlayAlpha, e.State.OverlayEnabled)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "number of entries")
}
