package commands

import (
	"log/slog"

	"anscrutins/internal/components/chrono"
	"anscrutins/internal/components/telemetry"
	"anscrutins/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var (
	watchOpts     scrapeFlags
	watchSchedule *string
)

func init() {
	watchOpts.register(watchCmd)
	watchSchedule = watchCmd.Flags().String("schedule", "0 */6 * * *", "Cron schedule of the scrapes, in Europe/Paris time.")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch --legislature <n> [--schedule <cron spec>]",
	Short: "Scrapes a legislature right away then again on a schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		leg := requireLegislature()
		ctx := cmd.Context()
		if watchOpts.perfInterval > 0 {
			telemetry.InstrumentPerfStats(ctx, telemetry.SlogAPI{}, watchOpts.perfInterval)
		}

		harvester, cleanup := newHarvester(watchOpts)
		defer cleanup()

		clock := chrono.StandardImpl{}
		run := func() {
			slog.Info("scrape started", "legislature", leg, "date", chrono.FormatFrenchDate(clock.Now()))
			err := scrapeOnce(ctx, harvester, leg, watchOpts.maxPages)
			if err != nil {
				// the next scheduled run tries again
				slog.Error("scrape failed", "legislature", leg, "err", err)
			}
		}

		cron := chrono.NewStandardCron(telemetry.SlogAPI{})
		err := cron.Cron(*watchSchedule, run)
		if err != nil {
			cleanup()
			serviceutil.Fatal("invalid schedule", err)
		}

		run()
		cron.Start()
		<-ctx.Done()
		cron.Stop()
		slog.Info("watch stopped")
	},
}
