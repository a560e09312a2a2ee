package fetcher

import (
	"net/url"
	"time"

	"github.com/ficscrape/ao3fetch/internal/config"
)

// HTTP boundary

// Policy holds the timing and retry rules the fetch loop runs under.
// Immutable after construction; derived from config once at startup.
type Policy struct {
	successCooldown time.Duration
	redirectDelay   time.Duration
	transientDelay  time.Duration
	maxAttempts     int
}

func NewPolicy(
	successCooldown time.Duration,
	redirectDelay time.Duration,
	transientDelay time.Duration,
	maxAttempts int,
) Policy {
	return Policy{
		successCooldown: successCooldown,
		redirectDelay:   redirectDelay,
		transientDelay:  transientDelay,
		maxAttempts:     maxAttempts,
	}
}

func PolicyFromConfig(cfg config.Config) Policy {
	return NewPolicy(
		cfg.SuccessCooldown(),
		cfg.RedirectDelay(),
		cfg.TransientDelay(),
		cfg.MaxAttempts(),
	)
}

type FetchResult struct {
	url  url.URL
	body []byte
	meta ResponseMeta
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) SizeByte() uint64 {
	return f.meta.transferredSizeByte
}

func (f *FetchResult) Headers() map[string]string {
	return f.meta.responseHeaders
}

type ResponseMeta struct {
	statusCode          int
	transferredSizeByte uint64
	responseHeaders     map[string]string
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	url url.URL,
	body []byte,
	statusCode int,
	responseHeaders map[string]string,
) FetchResult {
	return FetchResult{
		url:  url,
		body: body,
		meta: ResponseMeta{
			statusCode:          statusCode,
			transferredSizeByte: uint64(len(body)),
			responseHeaders:     responseHeaders,
		},
	}
}
