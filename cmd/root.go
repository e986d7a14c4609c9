/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vcpmon",
	Short: "Ingest line-oriented text from USB serial adapters",
	Long: `vcpmon waits for a supported USB-to-serial adapter (FTDI, CP210x, CH34x),
configures it, and turns its byte stream into clean lines: modem status
frames and ANSI colour sequences are stripped and CR LF terminates a line.

Adapters can be unplugged and replugged at any time; the core reconnects
on its own.

Example usage:
  vcpmon run
  vcpmon run --tui --baud 9600
  vcpmon list --table
  vcpmon drivers`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Interrupt and SIGTERM cancel the command's context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.vcpmon.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console, json")
	rootCmd.PersistentFlags().String("log-file", "", "Append logs to this file instead of stderr (run --tui defaults to vcpmon.log in the temp directory)")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".vcpmon")
	}

	viper.SetEnvPrefix("vcpmon")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// tuiLogName is the log file used by the full-screen UI when --log-file is not set
const tuiLogName = "vcpmon.log"

// newLogger builds the process logger from the log.* settings. Logs go to
// log.file when set. Otherwise they go to stderr so stdout stays free for
// received lines, except in full-screen mode where the terminal belongs to
// the UI and a file in the temp directory is used instead. The returned file
// is nil when logging to stderr and must be closed by the caller otherwise.
func newLogger(fullscreen bool) (zerolog.Logger, *os.File, error) {
	level, err := zerolog.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", viper.GetString("log.level"), err)
	}

	format := viper.GetString("log.format")
	if format != "json" && format != "console" && format != "" {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log format %q", format)
	}

	path := viper.GetString("log.file")
	if path == "" && fullscreen {
		path = filepath.Join(os.TempDir(), tuiLogName)
	}

	out := os.Stderr
	var file *os.File
	if path != "" {
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
	}

	var logger zerolog.Logger
	if format == "json" {
		logger = zerolog.New(out)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.TimeOnly,
			NoColor:    !isatty.IsTerminal(out.Fd()),
		})
	}
	return logger.Level(level).With().Timestamp().Logger(), file, nil
}
