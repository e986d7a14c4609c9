/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/allbin/vcpmon/hotplug"
	"github.com/allbin/vcpmon/vcp"
	"github.com/spf13/cobra"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Report USB serial adapters as they are plugged in and removed",
	Long: `Watch the device directory and report every USB serial adapter that
arrives or goes away, together with the driver that would claim it.

This runs the same device monitor and event pump as "vcpmon run" without
opening any adapter. Press Ctrl+C to stop.

Examples:
  vcpmon monitor
  vcpmon monitor --log-level debug
  vcpmon monitor --rescan 2s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devDir, _ := cmd.Flags().GetString("dev-dir")
		rescan, _ := cmd.Flags().GetDuration("rescan")

		logger, logFile, err := newLogger(false)
		if err != nil {
			return err
		}
		if logFile != nil {
			defer logFile.Close()
		}

		reg := vcp.DefaultRegistry()
		mon, err := hotplug.NewMonitor(
			hotplug.WithDevDir(devDir),
			hotplug.WithRescanInterval(rescan),
			hotplug.WithLogger(logger.With().Str("component", "hotplug").Logger()),
		)
		if err != nil {
			return err
		}
		defer mon.Close()

		devices := mon.Devices()
		fmt.Printf("Monitoring %s (%d adapter(s) attached)\n", devDir, len(devices))
		for _, row := range matchDrivers(reg, devices) {
			fmt.Printf("  %s\t%s\n", row.info, row.driver)
		}
		fmt.Println("Press Ctrl+C to stop")

		pump := hotplug.NewPump(mon, logger.With().Str("component", "pump").Logger())
		if err := pump.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		stats := pump.Stats()
		fmt.Printf("\n%d event(s), %d error(s), %d device(s) freed\n", stats.Events, stats.Errors, stats.Freed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().String("dev-dir", "/dev", "Directory watched for device nodes")
	monitorCmd.Flags().Duration("rescan", 0, "Also rescan periodically (0 = only on device node events)")
}
