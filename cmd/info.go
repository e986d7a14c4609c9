/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/allbin/vcpmon/serial"
	"github.com/allbin/vcpmon/vcp"
	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <port>",
	Short: "Display detailed information about a serial port",
	Long: `Display detailed information about a serial port including USB metadata
and the driver that would claim it.

Examples:
  vcpmon info /dev/ttyUSB0
  vcpmon info /dev/ttyACM0

For USB devices, this displays vendor/product IDs, serial numbers, interface
numbers, and other USB-specific metadata extracted from sysfs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := serial.GetPortInfo(args[0])
		if err != nil {
			return fmt.Errorf("getting port info: %w", err)
		}

		fmt.Printf("Port Information: %s\n\n", info.Path)
		fmt.Printf("  Name:        %s\n", info.Name)
		fmt.Printf("  Description: %s\n", info.Description)

		if info.IsUSB() {
			fmt.Println("\nUSB Device Information:")
			printField("Vendor ID", info.VendorID)
			printField("Product ID", info.ProductID)
			printField("Serial", info.SerialNumber)
			printField("Interface", info.InterfaceNumber)
			printField("Bus", info.BusNumber)
			printField("Device", info.DeviceNumber)
			printField("Manufacturer", info.Manufacturer)
			printField("Product", info.Product)
			printField("Kernel", info.KernelDriver)
		}

		fmt.Println("\nDriver:")
		d, ok := vcp.DefaultRegistry().Lookup(*info)
		if !ok {
			fmt.Println("  none (the core will not open this port)")
			return nil
		}
		fmt.Printf("  %s\n", d.Name())
		if vid, pid, err := info.USBID(); err == nil {
			for _, id := range d.IDs() {
				if id.Vendor == vid && id.Product == pid {
					fmt.Printf("  Model:        %s\n", id.Model)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func printField(label, value string) {
	if value != "" {
		fmt.Printf("  %-13s %s\n", label+":", value)
	}
}
