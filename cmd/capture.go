/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/allbin/vcpmon"
	"github.com/allbin/vcpmon/ingest"
	"github.com/allbin/vcpmon/internal/tui/components"
	"github.com/spf13/cobra"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <output-file>",
	Short: "Capture received lines to a file",
	Long: `Capture every line received from the adapter to a file for later parsing.

Lines are written as received, one per line, with the status frames and
colour sequences already stripped. Runs continuously, across unplug and
replug, until interrupted (Ctrl+C).

The output file is opened in append mode, allowing you to resume captures
without overwriting existing data.

Example usage:
  vcpmon capture data.log
  vcpmon capture output.txt --baud 9600
  vcpmon capture capture.log --console`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, coreFlagNames...)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		showConsole, _ := cmd.Flags().GetBool("console")

		logger, logFile, err := newLogger(false)
		if err != nil {
			return err
		}
		if logFile != nil {
			defer logFile.Close()
		}
		opts, err := coreOptions(logger)
		if err != nil {
			return err
		}

		file, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer file.Close()

		core, err := vcpmon.Start(cmd.Context(), opts...)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "Capturing to %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

		var console io.Writer
		if showConsole {
			console = os.Stdout
		}

		start := time.Now()
		lines, bytes, err := captureLines(cmd.Context(), core, file, console)
		fmt.Fprintf(os.Stderr, "\nCapture complete: %d lines, %d bytes written in %v\n",
			lines, bytes, time.Since(start).Round(time.Millisecond))
		return err
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)

	addCoreFlags(captureCmd.Flags())
	captureCmd.Flags().BoolP("console", "c", false, "Display received lines on console while capturing")
}

// captureLines appends each received line and a newline to out, mirroring a
// display-safe copy to console when it is set
func captureLines(ctx context.Context, src lineSource, out io.Writer, console io.Writer) (lines, written int64, err error) {
	for {
		msg, err := src.ReceiveContext(ctx)
		if err != nil {
			if errors.Is(err, ingest.ErrQueueClosed) || ctx.Err() != nil {
				return lines, written, src.Wait()
			}
			return lines, written, err
		}

		n, err := out.Write(append(msg.Bytes(), '\n'))
		written += int64(n)
		if err != nil {
			return lines, written, fmt.Errorf("write error: %w", err)
		}
		lines++

		if console != nil {
			fmt.Fprintln(console, components.Printable(msg.Bytes(), nil))
		}
	}
}
