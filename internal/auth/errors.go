package auth

import (
	"fmt"

	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/pkg/failure"
)

type AuthErrorCause string

const (
	ErrCauseCredentialFileUnreadable AuthErrorCause = "credential file unreadable"
	ErrCauseCredentialFileMalformed  AuthErrorCause = "credential file malformed"
	ErrCauseTokenFetchFailed         AuthErrorCause = "token fetch failed"
	ErrCauseTokenMalformed           AuthErrorCause = "token malformed"
	ErrCauseLoginRequestFailed       AuthErrorCause = "login request failed"
	ErrCauseLoginRejected            AuthErrorCause = "login rejected"
	ErrCauseInterrupted              AuthErrorCause = "interrupted"
)

type AuthError struct {
	Message   string
	Retryable bool
	Cause     AuthErrorCause
	Inner     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Cause)
}

func (e *AuthError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *AuthError) Unwrap() error {
	return e.Inner
}

// mapAuthErrorToMetadataCause maps auth-local error semantics to the
// canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapAuthErrorToMetadataCause(err *AuthError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseCredentialFileUnreadable, ErrCauseCredentialFileMalformed:
		return metadata.CauseAuthFailure
	case ErrCauseTokenFetchFailed, ErrCauseLoginRequestFailed:
		return metadata.CauseNetworkFailure
	case ErrCauseTokenMalformed:
		return metadata.CauseMarkupUnexpected
	case ErrCauseLoginRejected:
		return metadata.CauseAuthFailure
	default:
		return metadata.CauseUnknown
	}
}
