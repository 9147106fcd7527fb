package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hoppxi/luxflex/internal/manager"
	"github.com/hoppxi/luxflex/pkg/displayinfo"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List backlight devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := manager.NewConfigManager(configPath).Load()
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := displayinfo.GetDisplayInfoJSON(s.SysfsRoot, s.Device)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		info, err := displayinfo.GetDisplayInfo(s.SysfsRoot, s.Device)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tLEVEL\tRAW")
		for _, d := range info.Devices {
			fmt.Fprintf(w, "%s\t%d%%\t%d/%d\n", d.Name, d.Percent(), d.Current, d.Max)
		}
		return w.Flush()
	},
}

func init() {
	devicesCmd.Flags().Bool("json", false, "print JSON")
}
