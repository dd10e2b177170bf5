package telemetry

import (
	"fmt"
)

// API is where every component of the scraper sends its logs and counters. Tests swap it for
// a Recorder to assert on what was reported.
//
// Report ids name the operation that failed, written `<component>.<operation>` in lowercase
// with dashes between words, ex. `client.list-votes`, `client.extract-amendment`,
// `harvest.store`. Each package declares them as `report_<component>_<operation>` constants.
// The specifics (page number, url, wrapped error) go into the params, never into the id.
type API interface {
	// ReportBroken reports an item that could not be extracted or stored. The run carries on
	// without it.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something odd that did not cost any data, ex. a vote id listed on
	// two pages or an announced count that differs from the listed deputies.
	ReportWarning(id string, params ...any)

	// ReportDebug is only shown with --verbose.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a gauge, ex. `analyses.written` at the end of a phase. Counts are
	// points in time and are not summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes the ids it reports with the namespace of the package reporting them,
// so `client.list-votes` from the assemblee client becomes `assemblee:client.list-votes`.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	return fmt.Sprintf("%s:%s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scoped(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scoped(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(fmt.Sprintf("%s: %s", s.namespace, msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scoped(id), count)
}
