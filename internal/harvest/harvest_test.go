package harvest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"anscrutins/internal/components/telemetry"
	"anscrutins/internal/scrapers/assemblee"
	"anscrutins/internal/store"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	events  []assemblee.VoteEvent
	listErr error
	failing map[string]bool

	mutex       sync.Mutex
	calls       map[string]int
	inflight    atomic.Int64
	maxInflight atomic.Int64
}

func newFakeExtractor(events []assemblee.VoteEvent) *fakeExtractor {
	return &fakeExtractor{
		events:  events,
		failing: map[string]bool{},
		calls:   map[string]int{},
	}
}

func (f *fakeExtractor) enter(url string) func() {
	f.mutex.Lock()
	f.calls[url]++
	f.mutex.Unlock()

	n := f.inflight.Add(1)
	for {
		max := f.maxInflight.Load()
		if n <= max || f.maxInflight.CompareAndSwap(max, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return func() { f.inflight.Add(-1) }
}

func (f *fakeExtractor) totalCalls() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *fakeExtractor) ListVotes(ctx context.Context, legislature, maxPages int) ([]assemblee.VoteEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeExtractor) AnalyzeVote(ctx context.Context, detailUrl string) (assemblee.VoteAnalysis, error) {
	defer f.enter(detailUrl)()
	if f.failing[detailUrl] {
		return assemblee.VoteAnalysis{}, assemblee.ErrStructure
	}
	id, err := assemblee.IdFromUrl(detailUrl)
	if err != nil {
		return assemblee.VoteAnalysis{}, err
	}
	return assemblee.VoteAnalysis{
		Id:             id,
		VoteFor:        []assemblee.Participant{{FirstName: "Jean", LastName: "Martin", Party: "PO845401"}},
		VoteAgainst:    []assemblee.Participant{},
		VoteAbstention: []assemblee.Participant{},
		VoteAbsent:     []assemblee.Participant{},
	}, nil
}

func (f *fakeExtractor) ExtractAmendment(ctx context.Context, amendmentUrl string) (assemblee.Amendment, error) {
	defer f.enter(amendmentUrl)()
	if f.failing[amendmentUrl] {
		return assemblee.Amendment{}, assemblee.ErrProposerPartyNotFound
	}
	id, err := assemblee.IdFromUrl(amendmentUrl)
	if err != nil {
		return assemblee.Amendment{}, err
	}
	return assemblee.Amendment{
		Id:         id,
		Url:        amendmentUrl,
		ProposedBy: assemblee.ProposedByGovernment(),
	}, nil
}

func sampleEvents() []assemblee.VoteEvent {
	return []assemblee.VoteEvent{
		{Id: 3159, Url: "/dyn/17/scrutins/3159", TextUrl: "/dyn/17/amendements/1906A/AN/2493", VoteFor: 42, VoteAgainst: assemblee.Counted(178), VoteAbstention: assemblee.Counted(6)},
		{Id: 3160, Url: "/dyn/17/scrutins/3160", TextUrl: "/dyn/17/amendements/1906A/AN/1827"},
		{Id: 3124, Url: "/dyn/17/scrutins/3124", TextUrl: "/dyn/17/dossiers/securite_mineurs_en_ligne"},
		{Id: 3166, Url: "/dyn/17/scrutins/3166", VoteFor: 271, VoteAgainst: assemblee.NotApplicable(), VoteAbstention: assemblee.NotApplicable()},
		// a second vote on the same amendment
		{Id: 3161, Url: "/dyn/17/scrutins/3161", TextUrl: "/dyn/17/amendements/1906A/AN/1827"},
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	s := store.New(t.TempDir())
	extractor := newFakeExtractor(sampleEvents())
	recorder := telemetry.NewRecorder()
	harvester := NewHarvester(Options{Extractor: extractor, Store: s, Workers: 2, Tel: recorder})

	report := harvester.Run(ctx, sampleEvents())
	require.Equal(t, Report{
		Analyses:   PhaseReport{Written: 5},
		Amendments: PhaseReport{Written: 2},
	}, report)
	require.LessOrEqual(t, extractor.maxInflight.Load(), int64(2))

	for _, url := range []string{
		"/dyn/17/scrutins/3159",
		"/dyn/17/scrutins/3166",
		"/dyn/17/amendements/1906A/AN/2493",
		"/dyn/17/amendements/1906A/AN/1827",
	} {
		artifact, err := s.PathForUrl(url)
		require.NoError(t, err)
		require.True(t, s.IsComplete(artifact), url)
	}
	dossier, err := s.PathForUrl("/dyn/17/dossiers/securite_mineurs_en_ligne")
	require.NoError(t, err)
	require.False(t, s.IsComplete(dossier))

	var analysis assemblee.VoteAnalysis
	artifact, _ := s.PathForUrl("/dyn/17/scrutins/3159")
	require.NoError(t, s.Get(ctx, artifact, &analysis))
	require.Equal(t, int64(3159), analysis.Id)
	require.Len(t, analysis.VoteFor, 1)

	written, ok := recorder.Count("analyses.written")
	require.True(t, ok)
	require.Equal(t, int64(5), written)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := store.New(t.TempDir())
	extractor := newFakeExtractor(sampleEvents())
	harvester := NewHarvester(Options{Extractor: extractor, Store: s, Workers: 4, Tel: telemetry.NewRecorder()})

	harvester.Run(ctx, sampleEvents())
	calls := extractor.totalCalls()
	require.Equal(t, 7, calls)

	report := harvester.Run(ctx, sampleEvents())
	require.Equal(t, Report{
		Analyses:   PhaseReport{Skipped: 5},
		Amendments: PhaseReport{Skipped: 2},
	}, report)
	require.Equal(t, calls, extractor.totalCalls(), "a second run fetches nothing")
}

func TestRunIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	s := store.New(t.TempDir())
	extractor := newFakeExtractor(sampleEvents())
	extractor.failing["/dyn/17/scrutins/3160"] = true
	extractor.failing["/dyn/17/amendements/1906A/AN/2493"] = true
	harvester := NewHarvester(Options{Extractor: extractor, Store: s, Workers: 3, Tel: telemetry.NewRecorder()})

	report := harvester.Run(ctx, sampleEvents())
	require.Equal(t, Report{
		Analyses:   PhaseReport{Written: 4, Failed: 1},
		Amendments: PhaseReport{Written: 1, Failed: 1},
	}, report)

	failed, err := s.PathForUrl("/dyn/17/scrutins/3160")
	require.NoError(t, err)
	require.False(t, s.IsComplete(failed))

	// a retry only picks up what failed
	delete(extractor.failing, "/dyn/17/scrutins/3160")
	delete(extractor.failing, "/dyn/17/amendements/1906A/AN/2493")
	report = harvester.Run(ctx, sampleEvents())
	require.Equal(t, Report{
		Analyses:   PhaseReport{Written: 1, Skipped: 4},
		Amendments: PhaseReport{Written: 1, Skipped: 1},
	}, report)
}

func TestRunStoreFailure(t *testing.T) {
	root := t.TempDir()
	s := store.New(root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "dyn"), []byte("in the way"), 0o644))

	recorder := telemetry.NewRecorder()
	harvester := NewHarvester(Options{Extractor: newFakeExtractor(nil), Store: s, Tel: recorder})

	report := harvester.Run(context.Background(), sampleEvents()[:1])
	require.Equal(t, PhaseReport{Failed: 1}, report.Analyses)
	require.Len(t, recorder.Broken(report_harvest_store), 2)
}

func TestListing(t *testing.T) {
	ctx := context.Background()
	s := store.New(t.TempDir())
	extractor := newFakeExtractor(sampleEvents())
	harvester := NewHarvester(Options{Extractor: extractor, Store: s, Tel: telemetry.NewRecorder()})

	events, err := harvester.Listing(ctx, 17, 0)
	require.NoError(t, err)
	require.Len(t, events, 5)

	var listing Listing
	require.NoError(t, s.Get(ctx, s.ListingPath(17), &listing))
	require.Equal(t, 5, listing.Total)
	if diff := cmp.Diff(sampleEvents(), listing.Scrutins); diff != "" {
		t.Fatal(diff)
	}

	// the listing is refreshed on every run
	extractor.events = sampleEvents()[:2]
	_, err = harvester.Listing(ctx, 17, 0)
	require.NoError(t, err)
	require.NoError(t, s.Get(ctx, s.ListingPath(17), &listing))
	require.Equal(t, 2, listing.Total)

	extractor.events = nil
	_, err = harvester.Listing(ctx, 18, 0)
	require.NoError(t, err)
	require.NoError(t, s.Get(ctx, s.ListingPath(18), &listing))
	require.Equal(t, 0, listing.Total)
	require.NotNil(t, listing.Scrutins)

	extractor.listErr = assemblee.ErrFetch
	_, err = harvester.Listing(ctx, 19, 0)
	require.True(t, errors.Is(err, assemblee.ErrFetch))
	require.False(t, s.IsComplete(s.ListingPath(19)))
}
