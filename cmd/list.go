/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/allbin/vcpmon/internal/tui/styles"
	"github.com/allbin/vcpmon/serial"
	"github.com/allbin/vcpmon/vcp"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List USB serial adapters and the driver that claims them",
	Long: `List the USB-backed serial ports on the system together with the
registered driver that would claim each one.

Ports whose adapter no driver recognises are listed with driver "-"; the
core never opens them. Use --all to include non-USB serial ports.

Example usage:
  vcpmon list
  vcpmon list --table
  vcpmon list --filter ftdi`,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		filterDriver, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		infos, err := listInfos(all)
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}

		rows := matchDrivers(vcp.DefaultRegistry(), infos)
		rows = filterRows(rows, filterDriver)

		if len(rows) == 0 {
			if filterDriver != "" {
				fmt.Printf("No serial ports found matching driver: %s\n", filterDriver)
			} else {
				fmt.Println("No USB serial ports found")
			}
			return nil
		}

		if tableFormat {
			renderTable(rows)
		} else {
			renderSimple(rows)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("all", "a", false, "Include serial ports without USB metadata")
	listCmd.Flags().StringP("filter", "f", "", "Only show ports claimed by this driver (ftdi, cp210x, ch34x)")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// portRow is one listed port and the driver that matched it, if any
type portRow struct {
	info   serial.PortInfo
	driver string
}

func listInfos(all bool) ([]serial.PortInfo, error) {
	if !all {
		return serial.ListUSBPorts()
	}

	paths, err := serial.ListPorts()
	if err != nil {
		return nil, err
	}
	infos := make([]serial.PortInfo, 0, len(paths))
	for _, path := range paths {
		info, err := serial.GetPortInfo(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skipping %s: %v\n", path, err)
			continue
		}
		infos = append(infos, *info)
	}
	return infos, nil
}

// matchDrivers pairs every port with the first registered driver that accepts it
func matchDrivers(reg *vcp.Registry, infos []serial.PortInfo) []portRow {
	rows := make([]portRow, 0, len(infos))
	for _, info := range infos {
		row := portRow{info: info, driver: "-"}
		if d, ok := reg.Lookup(info); ok {
			row.driver = d.Name()
		}
		rows = append(rows, row)
	}
	return rows
}

// filterRows keeps the rows matched by driver name; an empty name keeps all
func filterRows(rows []portRow, driver string) []portRow {
	if driver == "" || driver == "all" {
		return rows
	}

	var filtered []portRow
	for _, row := range rows {
		if strings.EqualFold(row.driver, driver) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

const (
	columnKeyPort    = "port"
	columnKeyUSBID   = "usbid"
	columnKeyDriver  = "driver"
	columnKeySerial  = "serial"
	columnKeyProduct = "product"
	columnKeyKernel  = "kernel"
)

// renderTable renders the port list as a bordered table
func renderTable(rows []portRow) {
	fmt.Printf("Found %d serial port(s):\n\n", len(rows))

	columns := []table.Column{
		table.NewColumn(columnKeyPort, "Port", 15),
		table.NewColumn(columnKeyUSBID, "USB ID", 11),
		table.NewColumn(columnKeyDriver, "Driver", 8).WithStyle(styles.DriverStyle),
		table.NewColumn(columnKeyKernel, "Kernel", 10),
		table.NewColumn(columnKeySerial, "Serial", 14),
		table.NewColumn(columnKeyProduct, "Product", 28),
	}

	tableRows := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		usbID := "-"
		if row.info.IsUSB() {
			usbID = row.info.VendorID + ":" + row.info.ProductID
		}
		tableRows = append(tableRows, table.NewRow(table.RowData{
			columnKeyPort:    row.info.Path,
			columnKeyUSBID:   usbID,
			columnKeyDriver:  row.driver,
			columnKeyKernel:  orDash(row.info.KernelDriver),
			columnKeySerial:  orDash(row.info.SerialNumber),
			columnKeyProduct: orDash(row.info.Product),
		}))
	}

	t := table.New(columns).
		WithRows(tableRows).
		HeaderStyle(styles.TableHeaderStyle).
		BorderRounded()
	fmt.Println(t.View())
}

// renderSimple renders one port per line
func renderSimple(rows []portRow) {
	for _, row := range rows {
		fmt.Printf("%s\t%s\n", row.info, row.driver)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
