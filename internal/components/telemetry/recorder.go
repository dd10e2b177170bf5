package telemetry

import (
	"strings"
	"sync"
)

// Report is a single call made against a Recorder.
type Report struct {
	Kind   string
	Id     string
	Params []any
}

// Recorder is an API that keeps every report in memory, it is meant for tests
// that assert a component reported (or did not report) something.
type Recorder struct {
	mutex   sync.Mutex
	reports []Report
	counts  map[string]int64
}

func NewRecorder() *Recorder {
	return &Recorder{counts: map[string]int64{}}
}

func (r *Recorder) record(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.reports = append(r.reports, Report{Kind: kind, Id: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.record("broken", id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.record("warning", id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {}

func (r *Recorder) ReportCount(id string, count int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.counts[id] = count
}

// Broken returns the broken reports whose id ends with `suffix`.
func (r *Recorder) Broken(suffix string) []Report {
	return r.filter("broken", suffix)
}

// Warnings returns the warning reports whose id ends with `suffix`.
func (r *Recorder) Warnings(suffix string) []Report {
	return r.filter("warning", suffix)
}

// Count returns the last count reported under an id ending with `suffix`.
func (r *Recorder) Count(suffix string) (int64, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for id, n := range r.counts {
		if strings.HasSuffix(id, suffix) {
			return n, true
		}
	}
	return 0, false
}

func (r *Recorder) filter(kind, suffix string) []Report {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	var out []Report
	for _, report := range r.reports {
		if report.Kind == kind && strings.HasSuffix(report.Id, suffix) {
			out = append(out, report)
		}
	}
	return out
}
