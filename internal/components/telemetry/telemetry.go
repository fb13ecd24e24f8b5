package telemetry

import (
	"fmt"
)

// API is what components report through instead of logging directly, tests swap in a
// Recorder to assert on what was reported.
type API interface {
	// ReportBroken reports a failure that needs fixing, by us or by the user's configuration.
	//
	// `id` names the component, not the line that failed (ex. `client.sign-in`). Put the
	// specifics in params or in a wrapped error. Ids are lowercase, underscores separate words
	// of a component and a dash separates a component from its method.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something unusual that is not necessarily broken, such as the
	// platform rejecting a single sign-in. `id` follows the ReportBroken rules.
	ReportWarning(id string, params ...any)

	// ReportInfo reports a normal, user visible event (ex. a forum was signed).
	ReportInfo(msg string, params ...any)

	// ReportDebug reports details only shown with --verbose.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a gauge-like value at the current time, the values are points over
	// time and should not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id and message with a namespace, like a child logger.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scoped(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scoped(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scoped(id), params...)
}

func (s ScopedAPI) ReportInfo(msg string, params ...any) {
	s.inner.ReportInfo(s.scoped(msg), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.scoped(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scoped(id), count)
}
