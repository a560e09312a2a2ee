package transport

import (
	"fmt"

	"github.com/ficscrape/ao3fetch/pkg/failure"
)

type TransportErrorCause string

const (
	ErrCauseJarCreation TransportErrorCause = "cookie jar creation failed"
)

type TransportError struct {
	Message string
	Cause   TransportErrorCause
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s", e.Cause)
}

// Construction failures are never retryable.
func (e *TransportError) Severity() failure.Severity {
	return failure.SeverityFatal
}
