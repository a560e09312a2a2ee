package timeutil

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// ParseRetryAfter interprets a Retry-After style header value.
// The value may be a delay in whole seconds or an HTTP-date; anything
// unparseable falls back to the provided default.
func ParseRetryAfter(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return fallback
		}
		return time.Duration(seconds) * time.Second
	}

	if at, err := http.ParseTime(value); err == nil {
		until := time.Until(at)
		if until < 0 {
			return 0
		}
		return until
	}

	return fallback
}

// SleepContext blocks for the given duration or until the context is
// cancelled, whichever comes first. A non-nil return means the sleep
// was interrupted.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
