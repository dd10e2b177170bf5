package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"anscrutins/internal/components/telemetry"
	"anscrutins/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	configPath  *string
	verbose     *bool
	legislature *int
	dataDir     *string
)

// cfg is loaded before any subcommand runs.
var cfg Config
var tracing telemetry.Telemetry

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "anscrutins.json5", "The config file, anscrutins.local.json5 next to it overrides it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every request.")
	legislature = rootCmd.PersistentFlags().IntP("legislature", "l", 0, "The legislature to work on, ex. 17.")
	dataDir = rootCmd.PersistentFlags().String("data-dir", "", "Where artifacts are stored, overrides data_dir.")
}

var rootCmd = &cobra.Command{
	Use:   "anscrutins",
	Short: "anscrutins scrapes the roll-call votes of the Assemblée nationale into json files.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)

		var err error
		cfg, err = loadConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *dataDir != "" {
			cfg.DataDir = *dataDir
		}

		tracing, err = telemetry.Setup(cmd.Context(), "anscrutins", cfg.Telemetry)
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := tracing.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to flush traces", "err", err)
		}
	},
}

func requireLegislature() int {
	if *legislature <= 0 {
		serviceutil.Fatal("invalid flags", fmt.Errorf("--legislature must be a positive number"))
	}
	return *legislature
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
