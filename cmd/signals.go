/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allbin/vcpmon/serial"
	"github.com/spf13/cobra"
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:   "signals <port>",
	Short: "Display modem signal states",
	Long: `Display the current state of all modem control signals, and optionally
follow changes to the input signals until interrupted.

A running "vcpmon run" reports the same changes as serial state
notifications in its log.

Examples:
  vcpmon signals /dev/ttyUSB0
  vcpmon signals /dev/ttyUSB0 --follow
  vcpmon signals /dev/ttyUSB0 --follow --watch cts,dsr

Signal meanings:
  CTS - Clear To Send (input)
  DSR - Data Set Ready (input)
  RI  - Ring Indicator (input)
  DCD - Data Carrier Detect (input)
  RTS - Request To Send (output)
  DTR - Data Terminal Ready (output)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		portPath := args[0]
		follow, _ := cmd.Flags().GetBool("follow")
		watch, _ := cmd.Flags().GetStringSlice("watch")

		mask, err := parseSignalMask(watch)
		if err != nil {
			return err
		}

		port, err := serial.Open(portPath)
		if err != nil {
			return fmt.Errorf("opening port: %w", err)
		}
		defer port.Close()

		signals, err := port.GetModemSignals()
		if err != nil {
			return fmt.Errorf("reading modem signals: %w", err)
		}

		fmt.Printf("Modem Signals for %s:\n\n", portPath)
		fmt.Printf("  CTS (Clear To Send):       %s\n", formatSignalState(signals.CTS))
		fmt.Printf("  DSR (Data Set Ready):      %s\n", formatSignalState(signals.DSR))
		fmt.Printf("  RI  (Ring Indicator):      %s\n", formatSignalState(signals.RI))
		fmt.Printf("  DCD (Data Carrier Detect): %s\n", formatSignalState(signals.DCD))
		fmt.Printf("  RTS (Request To Send):     %s\n", formatSignalState(signals.RTS))
		fmt.Printf("  DTR (Data Terminal Ready): %s\n", formatSignalState(signals.DTR))

		if !follow {
			return nil
		}

		fmt.Printf("\nFollowing %s (press Ctrl+C to stop)\n\n", strings.Join(watch, ", "))
		for {
			signals, changed, err := port.WaitForSignalChangeContext(cmd.Context(), mask)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return fmt.Errorf("waiting for signal change: %w", err)
			}
			fmt.Println(formatSignalChange(time.Now(), signals, changed))
		}
	},
}

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().BoolP("follow", "f", false, "Keep reporting signal changes")
	signalsCmd.Flags().StringSliceP("watch", "w", []string{"cts", "dsr", "ri", "dcd"},
		"Signals to follow (comma-separated: cts,dsr,ri,dcd)")
}

func parseSignalMask(signalNames []string) (serial.SignalMask, error) {
	if len(signalNames) == 0 {
		return serial.SignalAll, nil
	}

	var mask serial.SignalMask
	for _, name := range signalNames {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "cts":
			mask |= serial.SignalCTS
		case "dsr":
			mask |= serial.SignalDSR
		case "ri":
			mask |= serial.SignalRI
		case "dcd":
			mask |= serial.SignalDCD
		default:
			return 0, fmt.Errorf("unknown signal: %s (valid: cts, dsr, ri, dcd)", name)
		}
	}
	return mask, nil
}

// formatSignalChange renders the changed signals on one line
func formatSignalChange(at time.Time, signals serial.ModemSignals, changed serial.SignalMask) string {
	var parts []string
	if changed&serial.SignalCTS != 0 {
		parts = append(parts, "CTS="+formatSignalState(signals.CTS))
	}
	if changed&serial.SignalDSR != 0 {
		parts = append(parts, "DSR="+formatSignalState(signals.DSR))
	}
	if changed&serial.SignalRI != 0 {
		parts = append(parts, "RI="+formatSignalState(signals.RI))
	}
	if changed&serial.SignalDCD != 0 {
		parts = append(parts, "DCD="+formatSignalState(signals.DCD))
	}
	return fmt.Sprintf("[%s] %s", at.Format("15:04:05"), strings.Join(parts, " "))
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}
