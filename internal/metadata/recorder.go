package metadata

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Content hashes of persisted artifacts
- Page indices within a paginated resource

Logging Goals
- Debuggable fetch behavior
- Post-run auditability
- Failure diagnostics

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder page aggregation
 - Output is stable given identical inputs

Metadata is write-only.
No component may read metadata to influence fetch decisions.
*/

/*
Recorder captures structured fetch events and emits them through zerolog.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are recorded synchronously in the order they are received by a single worker.
- No global ordering across aggregation workers is guaranteed.
- Ordering is provided for debuggability, not causality.
*/
type Recorder struct {
	logger zerolog.Logger
}

func NewRecorder(component string) Recorder {
	return NewRecorderWithOutput(component, os.Stderr)
}

func NewRecorderWithOutput(component string, out io.Writer) Recorder {
	logger := zerolog.New(out).With().
		Timestamp().
		Str("component", component).
		Logger()
	return Recorder{
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	evt := r.logger.Error().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Str("cause", cause.String()).
		Str("error", errorString)
	for _, attr := range attrs {
		evt = evt.Str(string(attr.Key), attr.Value)
	}
	evt.Msg("pipeline error")
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	pageIndex int,
	retryCount int,
) {
	r.logger.Info().
		Str("url", fetchUrl).
		Int("http_status", httpStatus).
		Dur("duration", duration).
		Int("page", pageIndex).
		Int("retries", retryCount).
		Msg("page fetched")
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	evt := r.logger.Debug().
		Str("kind", string(kind)).
		Str("path", path)
	for _, attr := range attrs {
		evt = evt.Str(string(attr.Key), attr.Value)
	}
	evt.Msg("artifact written")
}

/*
RecordFinalFetchStats records a terminal, derived summary of a completed
document fetch.

Contract:
  - MUST be called exactly once per top-level fetch.
  - MUST be called only after aggregation termination
    (all pages assembled or pipeline abort).
  - The provided stats MUST be derived from the caller's own state,
    not accumulated incrementally via the recorder.
  - Recorded stats MUST NOT influence control flow.
*/
func (r *Recorder) RecordFinalFetchStats(
	totalPages int,
	totalErrors int,
	totalBytes uint64,
	duration time.Duration,
) {
	stats := fetchStats{
		totalPages:  totalPages,
		totalErrors: totalErrors,
		totalBytes:  totalBytes,
		durationMs:  duration.Milliseconds(),
	}

	r.logger.Info().
		Int("total_pages", stats.totalPages).
		Int("total_errors", stats.totalErrors).
		Uint64("total_bytes", stats.totalBytes).
		Int64("duration_ms", stats.durationMs).
		Msg("fetch complete")
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		httpStatus int,
		duration time.Duration,
		pageIndex int,
		retryCount int,
	)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type FetchFinalizer interface {
	RecordFinalFetchStats(
		totalPages int,
		totalErrors int,
		totalBytes uint64,
		duration time.Duration,
	)
}

// NoopSink implements MetadataSink but does nothing.
// The scrape facade (or a test) can decide whether to inject Recorder
// or NoopSink. Purpose is to make metadata orthogonal.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	pageIndex int,
	retryCount int,
) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

func (n *NoopSink) RecordFinalFetchStats(
	totalPages int,
	totalErrors int,
	totalBytes uint64,
	duration time.Duration,
) {
}
