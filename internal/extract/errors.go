package extract

import (
	"fmt"

	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseNotHTML         ExtractionErrorCause = "not an HTML document"
	ErrCauseIncompleteBlurb ExtractionErrorCause = "incomplete work blurb"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s", e.Cause)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapExtractionErrorToMetadataCause maps extract-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNotHTML, ErrCauseIncompleteBlurb:
		return metadata.CauseMarkupUnexpected
	default:
		return metadata.CauseUnknown
	}
}
