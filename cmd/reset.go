/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/allbin/vcpmon/serial"
	"github.com/spf13/cobra"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <port|serial>",
	Short: "Reset a USB serial device",
	Long: `Perform a USB-level reset on a serial adapter. This can recover adapters
that are hung or unresponsive without physically unplugging them.

The adapter re-enumerates after the reset, which may change its port path
(e.g., /dev/ttyUSB0 might become /dev/ttyUSB1). A running "vcpmon run"
treats this as an unplug followed by a new arrival and reconnects.

Requirements:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  sudo vcpmon reset /dev/ttyUSB0          # Reset by port path
  sudo vcpmon reset --serial NC7ILXW1    # Reset by serial number`,
	Args: func(cmd *cobra.Command, args []string) error {
		serialFlag, _ := cmd.Flags().GetString("serial")
		if serialFlag == "" && len(args) != 1 {
			return errors.New("requires either a port path argument or --serial flag")
		}
		if serialFlag != "" && len(args) > 0 {
			return errors.New("cannot specify both port path and --serial flag")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !serial.IsUSBResetAvailable() {
			fmt.Fprintln(os.Stderr, "Install with: sudo apt-get install usbutils")
			return serial.ErrUSBResetNotAvailable
		}

		serialFlag, _ := cmd.Flags().GetString("serial")
		ctx := cmd.Context()

		var err error
		if serialFlag != "" {
			fmt.Printf("Resetting USB device with serial: %s\n", serialFlag)
			err = serial.ResetUSBDeviceBySerial(ctx, serialFlag)
		} else {
			fmt.Printf("Resetting USB device: %s\n", args[0])
			err = serial.ResetUSBDevice(ctx, args[0])
		}

		if err != nil {
			if errors.Is(err, serial.ErrUSBInfoNotAvailable) {
				fmt.Fprintln(os.Stderr, "This device does not appear to be a USB device")
			}
			return err
		}

		fmt.Println("USB device reset successfully")
		fmt.Println("Device will re-enumerate (port path may change)")
		fmt.Println("\nUse 'vcpmon list --table' to see updated device list")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringP("serial", "s", "", "Reset device by serial number")
}
