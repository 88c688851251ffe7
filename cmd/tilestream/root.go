package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// envPrefix prefixes the environment variables that set flag defaults.
const envPrefix = "TILESTREAM_"

var rootCmd = &cobra.Command{
	Use:   "tilestream",
	Short: "Simulate data movement on a tile-based tensor accelerator.",
	Long: `tilestream models a grid of worker tiles. Each tile runs a reader, ` +
		`a compute and a writer role connected by circular buffers in L1. ` +
		`Flags can also be set with TILESTREAM_* environment variables or ` +
		`a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnv(cmd); err != nil {
			return err
		}

		return setupLogging(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("env-file", ".env",
		"File with TILESTREAM_* variables. A missing file is ignored.")
	rootCmd.PersistentFlags().String("log-format", "text",
		"Log format: text or json.")
	rootCmd.PersistentFlags().String("log-level", "info",
		"Log level: debug, info, warn or error.")
}

// envName returns the environment variable that sets a flag.
func envName(flag string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// loadEnv reads the env file and applies TILESTREAM_* variables to the flags
// that were not given on the command line.
func loadEnv(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var firstErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || firstErr != nil {
			return
		}

		value, found := os.LookupEnv(envName(f.Name))
		if !found {
			return
		}

		if err := f.Value.Set(value); err != nil {
			firstErr = fmt.Errorf("%s: %w", envName(f.Name), err)
		}
	})

	return firstErr
}

func setupLogging(cmd *cobra.Command) error {
	format, _ := cmd.Flags().GetString("log-format")
	levelName, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return fmt.Errorf("invalid log level %q", levelName)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler

	switch format {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	slog.SetDefault(slog.New(handler))

	return nil
}
