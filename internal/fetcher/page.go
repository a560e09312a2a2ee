package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/internal/storage"
	"github.com/ficscrape/ao3fetch/internal/transport"
	"github.com/ficscrape/ao3fetch/pkg/failure"
	"github.com/ficscrape/ao3fetch/pkg/retry"
	"github.com/ficscrape/ao3fetch/pkg/timeutil"
	"github.com/ficscrape/ao3fetch/pkg/urlutil"
)

/*
Responsibilities

- Perform HTTP requests through the shared session transport
- Classify each response into success / redirect / transient / fatal
- Replay redirects explicitly, with login targets treated as terminal
- Retry transient statuses with the server-suggested or fallback delay
- Persist transient-failure bodies for post-mortem inspection

Fetch Semantics

- One logical fetch may span many physical attempts
- The attempt budget is owned by a single loop; nothing recurses
- Every send and every sleep observes context cancellation
- A success is followed by a deliberate cooldown before the body is
  returned; this is self-imposed rate limiting, not a protocol need

The fetcher never parses content; it only returns bytes and metadata.
*/

// transientStatuses are the codes the target site emits under load or
// throttling. They are retried indefinitely unless a budget is set.
var transientStatuses = map[int]struct{}{
	http.StatusServiceUnavailable: {}, // 503
	http.StatusRequestTimeout:     {}, // 408
	http.StatusTooManyRequests:    {}, // 429
	http.StatusBadGateway:         {}, // 502
	524:                           {}, // origin timeout (Cloudflare)
	525:                           {}, // TLS handshake failure (Cloudflare)
}

type PageFetcher struct {
	metadataSink metadata.MetadataSink
	debugSink    storage.DebugSink
	client       *transport.Client
	policy       Policy
}

func NewPageFetcher(
	metadataSink metadata.MetadataSink,
	debugSink storage.DebugSink,
	client *transport.Client,
	policy Policy,
) PageFetcher {
	return PageFetcher{
		metadataSink: metadataSink,
		debugSink:    debugSink,
		client:       client,
		policy:       policy,
	}
}

func (f *PageFetcher) Fetch(
	ctx context.Context,
	fetchUrl url.URL,
	pageIndex int,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "PageFetcher.Fetch"
	startTime := time.Now()

	result, attempts, err := f.fetchLoop(ctx, fetchUrl)

	duration := time.Since(startTime)

	var statusCode int
	if err == nil {
		statusCode = result.Code()
	} else {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			statusCode = fetchErr.Status
		}
	}

	f.metadataSink.RecordFetch(
		fetchUrl.String(),
		statusCode,
		duration,
		pageIndex,
		attempts-1,
	)

	if err != nil {
		f.recordError(callerMethod, fetchUrl, err)
		return FetchResult{}, err
	}

	return result, nil
}

func (f *PageFetcher) recordError(callerMethod string, fetchUrl url.URL, err failure.ClassifiedError) {
	cause := metadata.CauseUnknown

	var fetchError *FetchError
	var retryError *retry.RetryError
	switch {
	case errors.As(err, &fetchError):
		cause = mapFetchErrorToMetadataCause(fetchError)
	case errors.As(err, &retryError):
		cause = metadata.CauseRetryExhausted
	}

	f.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchUrl.String()),
		},
	)
}

// fetchLoop is the response-classification state machine. It returns
// the final result or a fatal error, along with how many physical
// attempts were spent.
func (f *PageFetcher) fetchLoop(
	ctx context.Context,
	fetchUrl url.URL,
) (FetchResult, int, failure.ClassifiedError) {
	current := fetchUrl
	budget := retry.NewBudget(f.policy.maxAttempts)

	for {
		if !budget.Spend() {
			fetchOutcomesTotal.WithLabelValues(outcomeFatal).Inc()
			return FetchResult{}, budget.Attempts(), &retry.RetryError{
				Message:   fmt.Sprintf("gave up on %s after %d attempts", fetchUrl.String(), budget.Attempts()),
				Cause:     retry.ErrExhaustedAttempts,
				Retryable: false,
			}
		}

		resp, err := f.client.Get(ctx, current)
		if err != nil {
			if ctx.Err() != nil {
				return FetchResult{}, budget.Attempts(), &FetchError{
					Message:   ctx.Err().Error(),
					Retryable: false,
					Cause:     ErrCauseCancelled,
				}
			}
			// Transport-level failures are treated like transient
			// statuses, minus the debug artifact.
			fetchRetriesTotal.WithLabelValues("network").Inc()
			if serr := timeutil.SleepContext(ctx, f.policy.transientDelay); serr != nil {
				return FetchResult{}, budget.Attempts(), &FetchError{
					Message:   serr.Error(),
					Retryable: false,
					Cause:     ErrCauseCancelled,
				}
			}
			continue
		}

		outcome, result, ferr := f.classify(current, resp)
		switch outcome {
		case outcomeSuccess:
			fetchOutcomesTotal.WithLabelValues(outcomeSuccess).Inc()
			if serr := timeutil.SleepContext(ctx, f.policy.successCooldown); serr != nil {
				return FetchResult{}, budget.Attempts(), &FetchError{
					Message:   serr.Error(),
					Retryable: false,
					Cause:     ErrCauseCancelled,
				}
			}
			return result, budget.Attempts(), nil

		case outcomeRedirect:
			fetchOutcomesTotal.WithLabelValues(outcomeRedirect).Inc()
			fetchRedirectsTotal.Inc()
			if serr := timeutil.SleepContext(ctx, f.policy.redirectDelay); serr != nil {
				return FetchResult{}, budget.Attempts(), &FetchError{
					Message:   serr.Error(),
					Retryable: false,
					Cause:     ErrCauseCancelled,
				}
			}
			// result.url carries the resolved redirect target
			current = result.url
			continue

		case outcomeTransient:
			fetchOutcomesTotal.WithLabelValues(outcomeTransient).Inc()
			fetchRetriesTotal.WithLabelValues(statusLabel(result.Code())).Inc()
			delay := timeutil.ParseRetryAfter(
				result.Headers()["Retry-After"],
				f.policy.transientDelay,
			)
			fetchRetryDelaySeconds.Observe(delay.Seconds())
			if serr := timeutil.SleepContext(ctx, delay); serr != nil {
				return FetchResult{}, budget.Attempts(), &FetchError{
					Message:   serr.Error(),
					Retryable: false,
					Cause:     ErrCauseCancelled,
				}
			}
			continue

		default:
			fetchOutcomesTotal.WithLabelValues(outcomeFatal).Inc()
			return FetchResult{}, budget.Attempts(), ferr
		}
	}
}

// classify reads the response and maps it onto the outcome table.
// The response body is fully consumed and closed here.
func (f *PageFetcher) classify(
	requestUrl url.URL,
	resp *http.Response,
) (string, FetchResult, failure.ClassifiedError) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			// A torn body read gets the transient treatment: same
			// URL, fallback delay, no debug artifact.
			return outcomeTransient, FetchResult{
				url:  requestUrl,
				meta: ResponseMeta{statusCode: resp.StatusCode, responseHeaders: flattenHeaders(resp.Header)},
			}, nil
		}
		return outcomeSuccess, FetchResult{
			url:  requestUrl,
			body: body,
			meta: ResponseMeta{
				statusCode:          resp.StatusCode,
				transferredSizeByte: uint64(len(body)),
				responseHeaders:     flattenHeaders(resp.Header),
			},
		}, nil

	case resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusMovedPermanently:
		location := resp.Header.Get("Location")
		if location == "" {
			return outcomeFatal, FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("status %d without a Location header", resp.StatusCode),
				Retryable: false,
				Cause:     ErrCauseMissingLocation,
				Status:    resp.StatusCode,
			}
		}
		// Login flows are driven by the authentication helper, never
		// auto-followed.
		if strings.Contains(location, "login") {
			return outcomeFatal, FetchResult{}, &FetchError{
				Message:   fmt.Sprintf("redirect to %s refused", location),
				Retryable: false,
				Cause:     ErrCauseLoginRedirect,
				Status:    resp.StatusCode,
			}
		}
		resolved, err := urlutil.ResolveLocation(f.client.BaseOrigin(), location)
		if err != nil {
			return outcomeFatal, FetchResult{}, &FetchError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCauseMissingLocation,
				Status:    resp.StatusCode,
			}
		}
		return outcomeRedirect, FetchResult{
			url:  resolved,
			meta: ResponseMeta{statusCode: resp.StatusCode, responseHeaders: flattenHeaders(resp.Header)},
		}, nil

	case isTransientStatus(resp.StatusCode):
		body, _ := io.ReadAll(resp.Body)
		// Best effort; a failed debug write must not stop the retry.
		_ = f.debugSink.WriteDebugBody(requestUrl.String(), body)
		return outcomeTransient, FetchResult{
			url: requestUrl,
			meta: ResponseMeta{
				statusCode:      resp.StatusCode,
				responseHeaders: flattenHeaders(resp.Header),
			},
		}, nil

	default:
		return outcomeFatal, FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("refusing to act on status %d", resp.StatusCode),
			Retryable: false,
			Cause:     ErrCauseUnknownStatus,
			Status:    resp.StatusCode,
		}
	}
}

func isTransientStatus(status int) bool {
	_, ok := transientStatuses[status]
	return ok
}

func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) > 0 {
			flat[key] = values[0]
		}
	}
	return flat
}
