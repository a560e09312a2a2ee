package aggregate

import (
	"fmt"

	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/pkg/failure"
)

type AggregationErrorCause string

const (
	ErrCausePageFetchFailed AggregationErrorCause = "page fetch failed"
	ErrCauseCancelled       AggregationErrorCause = "aggregation cancelled"
)

// AggregationError marks an aggregation that could not produce a
// complete document. There is no partial-result variant; callers get
// the whole document or this.
type AggregationError struct {
	Message   string
	Cause     AggregationErrorCause
	PageIndex int
	Inner     error
}

func (e *AggregationError) Error() string {
	if e.PageIndex > 0 {
		return fmt.Sprintf("aggregation error (page %d): %s", e.PageIndex, e.Cause)
	}
	return fmt.Sprintf("aggregation error: %s", e.Cause)
}

func (e *AggregationError) Severity() failure.Severity {
	return failure.SeverityFatal
}

func (e *AggregationError) Unwrap() error {
	return e.Inner
}

// mapAggregationErrorToMetadataCause maps aggregate-local error
// semantics to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapAggregationErrorToMetadataCause(err *AggregationError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCausePageFetchFailed:
		return metadata.CauseNetworkFailure
	case ErrCauseCancelled:
		return metadata.CauseUnknown
	default:
		return metadata.CauseUnknown
	}
}
