package commands

import (
	"context"
	"log/slog"
	"time"

	"anscrutins/internal/components/telemetry"
	"anscrutins/internal/harvest"
	"anscrutins/internal/render"
	"anscrutins/internal/scrapers/assemblee"
	"anscrutins/internal/store"
	"anscrutins/lib/util/restyutil"
	"anscrutins/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

type scrapeFlags struct {
	maxPages      int
	workers       int
	noRender      bool
	dumpResponses string
	perfInterval  time.Duration
}

func (f *scrapeFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.maxPages, "max-pages", 0, "Only visit the first pages of the listing, 0 visits every page.")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "How many detail pages are fetched at once, overrides workers.")
	cmd.Flags().BoolVar(&f.noRender, "no-render", false, "Do not screenshot the hemicycle of each vote.")
	cmd.Flags().StringVar(&f.dumpResponses, "dump-responses", "", "Write every raw response to this directory.")
	cmd.Flags().DurationVar(&f.perfInterval, "perf-interval", 0, "Report resource usage at this interval, 0 disables it.")
}

var scrapeOpts scrapeFlags

func init() {
	scrapeOpts.register(scrapeCmd)
	rootCmd.AddCommand(scrapeCmd)
}

// newHarvester wires a harvester from the config and flags, the returned function
// releases the browser if one was started.
func newHarvester(flags scrapeFlags) (harvest.Harvester, func()) {
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}

	cleanup := func() {}
	var renderer assemblee.Renderer = render.Disabled{}
	if !flags.noRender && !cfg.Renderer.Disabled {
		chrome := render.NewChrome(render.ChromeOptions{
			ExecPath: cfg.Renderer.ChromePath,
			Timeout:  cfg.Timeout(),
		})
		cleanup = chrome.Close
		renderer = chrome
	}

	opts := assemblee.ClientOptions{
		BaseUrl:   cfg.BaseUrl,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout(),
		Renderer:  renderer,
		Tel:       telemetry.SlogAPI{},
	}
	if flags.dumpResponses != "" {
		output, err := restyutil.NewFilesystemOutput(flags.dumpResponses)
		if err != nil {
			cleanup()
			serviceutil.Fatal("failed to create response directory", err)
		}
		opts.ResponseOutput = output
	}
	client, err := assemblee.NewClient(opts)
	if err != nil {
		cleanup()
		serviceutil.Fatal("failed to create client", err)
	}

	harvester := harvest.NewHarvester(harvest.Options{
		Extractor: client,
		Store:     store.New(cfg.DataDir),
		Workers:   cfg.Workers,
		Tel:       telemetry.SlogAPI{},
	})
	return harvester, cleanup
}

// scrapeOnce refreshes the listing then stores every record that is missing.
func scrapeOnce(ctx context.Context, harvester harvest.Harvester, leg, maxPages int) error {
	start := time.Now()
	events, err := harvester.Listing(ctx, leg, maxPages)
	if err != nil {
		return err
	}
	slog.Info("listing stored", "legislature", leg, "votes", len(events))

	report := harvester.Run(ctx, events)
	slog.Info(
		"scrape finished",
		"legislature", leg,
		"analyses", report.Analyses.String(),
		"amendments", report.Amendments.String(),
		"seconds", time.Since(start).Seconds(),
	)
	return nil
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --legislature <n> [--max-pages <n>] [--workers <n>] [--no-render]",
	Short: "Lists the votes of a legislature and stores every vote analysis and amendment not stored yet.",
	Run: func(cmd *cobra.Command, args []string) {
		leg := requireLegislature()
		if scrapeOpts.perfInterval > 0 {
			telemetry.InstrumentPerfStats(cmd.Context(), telemetry.SlogAPI{}, scrapeOpts.perfInterval)
		}

		harvester, cleanup := newHarvester(scrapeOpts)
		err := scrapeOnce(cmd.Context(), harvester, leg, scrapeOpts.maxPages)
		cleanup()
		if err != nil {
			serviceutil.Fatal("failed to list votes", err)
		}
	},
}
