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
	"strings"
	"time"

	"github.com/allbin/vcpmon"
	"github.com/allbin/vcpmon/ingest"
	"github.com/allbin/vcpmon/internal/tui/components"
	"github.com/allbin/vcpmon/lifecycle"
	"github.com/allbin/vcpmon/vcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/text/encoding/charmap"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Wait for an adapter and print the lines it sends",
	Long: `Start the ingestion core: wait for a supported USB serial adapter, configure
it, and print every line it sends. Modem status frames and ANSI colour
sequences are stripped; CR LF terminates a line.

Unplugging the adapter ends the session; plugging it (or another supported
adapter) back in starts a new one. Runs until interrupted (Ctrl+C).

Settings can also come from the config file (keys under "run:") or from
VCPMON_RUN_* environment variables, e.g. VCPMON_RUN_BAUD=9600.

Example usage:
  vcpmon run
  vcpmon run --baud 9600 --framing 7E1
  vcpmon run --tui --charset cp437
  vcpmon run --line-ending strict --suppress-empty --echo`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, append(coreFlagNames, "tui", "charset", "timestamps")...)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fullscreen := viper.GetBool("run.tui")
		logger, logFile, err := newLogger(fullscreen)
		if err != nil {
			return err
		}
		if logFile != nil {
			defer logFile.Close()
		}

		charset, err := components.ParseCharset(viper.GetString("run.charset"))
		if err != nil {
			return err
		}

		opts, err := coreOptions(logger)
		if err != nil {
			return err
		}

		if fullscreen {
			err := runTUI(cmd.Context(), charset, opts)
			fmt.Fprintf(os.Stderr, "Log written to %s\n", logFile.Name())
			return err
		}
		return runPlain(cmd.Context(), os.Stdout, charset, viper.GetBool("run.timestamps"), opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	addCoreFlags(runCmd.Flags())

	// Display
	runCmd.Flags().Bool("tui", false, "Show a scrolling log with a status bar")
	runCmd.Flags().String("charset", "ascii", "Decode received bytes for display: ascii, "+strings.Join(components.CharsetNames(), ", "))
	runCmd.Flags().Bool("timestamps", false, "Prefix each printed line with the time it was received")
}

var coreFlagNames = []string{
	"baud", "framing", "timeout", "retry-backoff", "handshake", "no-control-lines", "dev-dir",
	"line-ending", "status-bytes", "suppress-empty", "queue-depth", "echo",
}

// addCoreFlags adds the settings shared by every command that starts the core
func addCoreFlags(f *pflag.FlagSet) {
	// Line coding and device handling
	f.IntP("baud", "b", 115200, "Baud rate")
	f.String("framing", "8N1", "Data bits, parity (N, O, E, M, S) and stop bits")
	f.Duration("timeout", vcp.DefaultConnectionTimeout, "How long each open attempt waits for an adapter")
	f.Duration("retry-backoff", lifecycle.DefaultRetryBackoff, "Pause after a failed open or configure")
	f.String("handshake", lifecycle.DefaultHandshake, "Bytes sent once the adapter is configured (empty to disable)")
	f.Bool("no-control-lines", false, "Do not assert DTR and RTS after configuring")
	f.String("dev-dir", "/dev", "Directory watched for adapter arrival and removal")

	// Line framing
	f.String("line-ending", "permissive", "CR handling: permissive or strict")
	f.Int("status-bytes", ingest.DefaultStatusBytes, "Bytes following each 0x01 status marker")
	f.Bool("suppress-empty", false, "Drop empty lines instead of forwarding them")
	f.Int("queue-depth", ingest.DefaultQueueDepth, "Lines buffered between the adapter and the display")
	f.Bool("echo", false, "Log every framed line as it is produced")
}

// bindFlags binds the named flags of cmd to run.* keys. Binding happens when
// the command runs, since several commands share the keys.
func bindFlags(cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if err := viper.BindPFlag("run."+name, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

// coreOptions translates the run.* settings into core options
func coreOptions(logger zerolog.Logger) ([]vcpmon.Option, error) {
	dataBits, parity, stopBits, err := vcp.ParseFraming(viper.GetString("run.framing"))
	if err != nil {
		return nil, err
	}
	lc := vcp.LineCoding{
		BaudRate: viper.GetInt("run.baud"),
		DataBits: dataBits,
		Parity:   parity,
		StopBits: stopBits,
	}

	lineEnding, ok := ingest.ParseLineEnding(viper.GetString("run.line-ending"))
	if !ok {
		return nil, fmt.Errorf("invalid line ending %q (want permissive or strict)", viper.GetString("run.line-ending"))
	}

	opts := []vcpmon.Option{
		vcpmon.WithLogger(logger),
		vcpmon.WithLineCoding(lc),
		vcpmon.WithConnectionTimeout(viper.GetDuration("run.timeout")),
		vcpmon.WithRetryBackoff(viper.GetDuration("run.retry-backoff")),
		vcpmon.WithHandshake([]byte(viper.GetString("run.handshake"))),
		vcpmon.WithControlLines(!viper.GetBool("run.no-control-lines")),
		vcpmon.WithDevDir(viper.GetString("run.dev-dir")),
		vcpmon.WithLineEnding(lineEnding),
		vcpmon.WithStatusBytes(viper.GetInt("run.status-bytes")),
		vcpmon.WithQueueDepth(viper.GetInt("run.queue-depth")),
	}
	if viper.GetBool("run.suppress-empty") {
		opts = append(opts, vcpmon.WithSuppressEmpty())
	}
	if viper.GetBool("run.echo") {
		echo := logger.With().Str("component", "echo").Logger()
		opts = append(opts, vcpmon.WithTap(func(m ingest.Message) {
			echo.Info().Int("len", m.Len()).Str("line", components.Printable(m.Bytes(), nil)).Msg("framed")
		}))
	}
	return opts, nil
}

// runPlain prints every received line to w until ctx is cancelled or the
// core stops
func runPlain(ctx context.Context, w io.Writer, charset *charmap.Charmap, timestamps bool, opts []vcpmon.Option) error {
	core, err := vcpmon.Start(ctx, opts...)
	if err != nil {
		return err
	}
	return printLines(ctx, core, w, charset, timestamps)
}

// lineSource is the consumer side of a running core
type lineSource interface {
	ReceiveContext(ctx context.Context) (ingest.Message, error)
	Wait() error
}

func printLines(ctx context.Context, src lineSource, w io.Writer, charset *charmap.Charmap, timestamps bool) error {
	for {
		msg, err := src.ReceiveContext(ctx)
		if err != nil {
			if errors.Is(err, ingest.ErrQueueClosed) || ctx.Err() != nil {
				return src.Wait()
			}
			return err
		}

		line := components.Printable(msg.Bytes(), charset)
		if timestamps {
			_, err = fmt.Fprintf(w, "%s %s\n", time.Now().Format("15:04:05.000"), line)
		} else {
			_, err = fmt.Fprintln(w, line)
		}
		if err != nil {
			return err
		}
	}
}
