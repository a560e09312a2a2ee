package scrape

import (
	"sync/atomic"
	"time"

	"github.com/ficscrape/ao3fetch/internal/metadata"
)

// countingSink decorates a MetadataSink with an error tally so the
// facade can report totals without threading counters through every
// component.
type countingSink struct {
	inner      metadata.MetadataSink
	errorCount atomic.Int64
}

func newCountingSink(inner metadata.MetadataSink) *countingSink {
	return &countingSink{
		inner: inner,
	}
}

func (c *countingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	c.errorCount.Add(1)
	c.inner.RecordError(observedAt, packageName, action, cause, details, attrs)
}

func (c *countingSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	pageIndex int,
	retryCount int,
) {
	c.inner.RecordFetch(fetchUrl, httpStatus, duration, pageIndex, retryCount)
}

func (c *countingSink) RecordArtifact(kind metadata.ArtifactKind, path string, attrs []metadata.Attribute) {
	c.inner.RecordArtifact(kind, path, attrs)
}

func (c *countingSink) ErrorCount() int {
	return int(c.errorCount.Load())
}
