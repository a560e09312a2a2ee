package fetcher

import (
	"fmt"

	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseNetworkFailure        FetchErrorCause = "network issues"
	ErrCauseReadResponseBodyError FetchErrorCause = "failed to read response body"
	ErrCauseMissingLocation       FetchErrorCause = "redirect without usable location"
	ErrCauseLoginRedirect         FetchErrorCause = "redirect into login flow"
	ErrCauseUnknownStatus         FetchErrorCause = "unrecognized status"
	ErrCauseCancelled             FetchErrorCause = "cancelled"
)

type FetchError struct {
	Message   string
	Retryable bool
	Cause     FetchErrorCause
	// Status carries the offending HTTP status code for diagnosis.
	// Zero when the failure happened before a response arrived.
	Status int
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetcher error: %s (status %d)", e.Cause, e.Status)
	}
	return fmt.Sprintf("fetcher error: %s", e.Cause)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *FetchError) IsRetryable() bool {
	return e.Retryable
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNetworkFailure, ErrCauseReadResponseBodyError:
		return metadata.CauseNetworkFailure
	case ErrCauseMissingLocation, ErrCauseLoginRedirect:
		return metadata.CauseRedirectInvalid
	case ErrCauseUnknownStatus:
		return metadata.CauseStatusUnrecognized
	default:
		return metadata.CauseUnknown
	}
}
