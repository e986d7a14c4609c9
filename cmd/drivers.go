/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/allbin/vcpmon/internal/tui/styles"
	"github.com/allbin/vcpmon/vcp"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// driversCmd represents the drivers command
var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List the registered adapter drivers and the USB IDs they match",
	Long: `List the built-in adapter drivers in the order the core consults them.
The first driver whose USB IDs (or kernel driver) match an attached adapter
claims it.

Example usage:
  vcpmon drivers`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(renderDrivers(vcp.DefaultRegistry()))
	},
}

func init() {
	rootCmd.AddCommand(driversCmd)
}

const (
	columnKeyOrder = "order"
	columnKeyModel = "model"
)

// renderDrivers lays out one row per USB ID, grouped by driver in registration order
func renderDrivers(reg *vcp.Registry) string {
	columns := []table.Column{
		table.NewColumn(columnKeyOrder, "#", 3),
		table.NewColumn(columnKeyDriver, "Driver", 8).WithStyle(styles.DriverStyle),
		table.NewColumn(columnKeyUSBID, "USB ID", 11),
		table.NewColumn(columnKeyModel, "Model", 24),
	}

	var rows []table.Row
	for i, d := range reg.Drivers() {
		for _, id := range d.IDs() {
			rows = append(rows, table.NewRow(table.RowData{
				columnKeyOrder:  fmt.Sprint(i + 1),
				columnKeyDriver: d.Name(),
				columnKeyUSBID:  id.String(),
				columnKeyModel:  id.Model,
			}))
		}
	}

	return table.New(columns).
		WithRows(rows).
		HeaderStyle(styles.TableHeaderStyle).
		BorderRounded().
		View()
}
