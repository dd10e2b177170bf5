package harvest

import (
	"context"
	"fmt"
	"sync/atomic"

	"anscrutins/internal/components/telemetry"
	"anscrutins/internal/scrapers/assemblee"
	"anscrutins/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const (
	report_harvest_listing = "harvest.listing"
	report_harvest_task    = "harvest.task"
	report_harvest_store   = "harvest.store"
)

var tracer = otel.Tracer("anscrutins.harvest")

// Extractor is the subset of *assemblee.Client the harvester drives.
type Extractor interface {
	ListVotes(ctx context.Context, legislature, maxPages int) ([]assemblee.VoteEvent, error)
	AnalyzeVote(ctx context.Context, detailUrl string) (assemblee.VoteAnalysis, error)
	ExtractAmendment(ctx context.Context, amendmentUrl string) (assemblee.Amendment, error)
}

// Listing is the stored form of a legislature's vote listing.
type Listing struct {
	Total    int                   `json:"total"`
	Scrutins []assemblee.VoteEvent `json:"scrutins"`
}

type PhaseReport struct {
	Written int
	Skipped int
	Failed  int
}

func (r PhaseReport) String() string {
	return fmt.Sprintf("%d written, %d skipped, %d failed", r.Written, r.Skipped, r.Failed)
}

type Report struct {
	Analyses   PhaseReport
	Amendments PhaseReport
}

type Options struct {
	Extractor Extractor
	Store     store.Store
	// Workers bounds how many detail pages are fetched at once, defaults to 8.
	Workers int
	Tel     telemetry.API
}

// Harvester materializes the detail pages of a listing into a store, skipping every
// record that is already stored so an interrupted run can simply be started again.
type Harvester struct {
	extractor Extractor
	store     store.Store
	workers   int
	tel       telemetry.API
}

func NewHarvester(opts Options) Harvester {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}
	return Harvester{
		extractor: opts.Extractor,
		store:     opts.Store,
		workers:   opts.Workers,
		tel:       telemetry.NewScopedAPI("harvest", opts.Tel),
	}
}

// Listing lists the votes of a legislature and overwrites its listing artifact. Unlike
// detail records the listing is always fetched again since new votes are published to it.
func (h Harvester) Listing(ctx context.Context, legislature, maxPages int) ([]assemblee.VoteEvent, error) {
	ctx, span := tracer.Start(ctx, "Listing")
	defer span.End()

	events, err := h.extractor.ListVotes(ctx, legislature, maxPages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list votes")
		return nil, err
	}
	if events == nil {
		events = []assemblee.VoteEvent{}
	}

	err = h.store.Put(ctx, h.store.ListingPath(legislature), Listing{
		Total:    len(events),
		Scrutins: events,
	})
	if err != nil {
		h.tel.ReportBroken(report_harvest_listing, err, legislature)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to store listing")
		return nil, err
	}
	h.tel.ReportCount("listing.events", int64(len(events)))
	return events, nil
}

// Run stores the analysis of every vote, then the amendment behind every vote that has one.
// A failing task is reported and counted but never stops the others.
func (h Harvester) Run(ctx context.Context, events []assemblee.VoteEvent) Report {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	analyses := h.runPhase(ctx, "analyses", analysisUrls(events), func(ctx context.Context, url string) (any, error) {
		return h.extractor.AnalyzeVote(ctx, url)
	})
	amendments := h.runPhase(ctx, "amendments", amendmentUrls(events), func(ctx context.Context, url string) (any, error) {
		return h.extractor.ExtractAmendment(ctx, url)
	})

	span.SetAttributes(
		attribute.Int("analyses.failed", analyses.Failed),
		attribute.Int("amendments.failed", amendments.Failed),
	)
	return Report{Analyses: analyses, Amendments: amendments}
}

func analysisUrls(events []assemblee.VoteEvent) []string {
	var urls []string
	for _, e := range events {
		if e.Url != "" {
			urls = append(urls, e.Url)
		}
	}
	return urls
}

func amendmentUrls(events []assemblee.VoteEvent) []string {
	var urls []string
	for _, e := range events {
		if assemblee.IsAmendmentUrl(e.TextUrl) {
			urls = append(urls, e.TextUrl)
		}
	}
	return urls
}

type extractFunc func(ctx context.Context, url string) (any, error)

func (h Harvester) runPhase(ctx context.Context, phase string, urls []string, extract extractFunc) PhaseReport {
	ctx, span := tracer.Start(ctx, "phase:"+phase)
	defer span.End()

	var written, skipped, failed atomic.Int64

	group := errgroup.Group{}
	group.SetLimit(h.workers)

	// several votes may share the same law text
	claimed := make(map[string]struct{}, len(urls))

	for _, url := range urls {
		url := url
		artifact, err := h.store.PathForUrl(url)
		if err != nil {
			h.tel.ReportBroken(report_harvest_task, err, phase, url)
			failed.Add(1)
			continue
		}
		if _, ok := claimed[artifact]; ok {
			continue
		}
		claimed[artifact] = struct{}{}

		group.Go(func() error {
			if h.store.IsComplete(artifact) {
				skipped.Add(1)
				return nil
			}
			if ctx.Err() != nil {
				failed.Add(1)
				return nil
			}

			record, err := extract(ctx, url)
			if err != nil {
				// the extractor already reported why it failed
				h.tel.ReportDebug("task failed", phase, url, err)
				failed.Add(1)
				return nil
			}
			err = h.store.Put(ctx, artifact, record)
			if err != nil {
				h.tel.ReportBroken(report_harvest_store, err, phase, artifact)
				failed.Add(1)
				return nil
			}
			written.Add(1)
			return nil
		})
	}
	group.Wait()

	report := PhaseReport{
		Written: int(written.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	h.tel.ReportCount(phase+".written", int64(report.Written))
	h.tel.ReportCount(phase+".skipped", int64(report.Skipped))
	h.tel.ReportCount(phase+".failed", int64(report.Failed))

	span.SetAttributes(
		attribute.Int("written", report.Written),
		attribute.Int("skipped", report.Skipped),
		attribute.Int("failed", report.Failed),
	)
	if report.Failed > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d tasks failed", report.Failed))
	}
	return report
}
