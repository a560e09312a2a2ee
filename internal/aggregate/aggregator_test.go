package aggregate_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ficscrape/ao3fetch/internal/aggregate"
	"github.com/ficscrape/ao3fetch/internal/fetcher"
	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/internal/pagination"
	"github.com/ficscrape/ao3fetch/pkg/failure"
)

// stubFetcher serves canned bodies keyed by page index, optionally
// delaying some pages so completion order differs from page order.
type stubFetcher struct {
	delays    map[int]time.Duration
	failPage  int
	fetches   int32
	failError failure.ClassifiedError
}

func (s *stubFetcher) Fetch(
	ctx context.Context,
	fetchUrl url.URL,
	pageIndex int,
) (fetcher.FetchResult, failure.ClassifiedError) {
	atomic.AddInt32(&s.fetches, 1)

	if delay, ok := s.delays[pageIndex]; ok {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fetcher.FetchResult{}, &fetcher.FetchError{
				Message:   "cancelled",
				Retryable: false,
				Cause:     fetcher.ErrCauseCancelled,
			}
		}
	}

	if pageIndex == s.failPage {
		return fetcher.FetchResult{}, s.failError
	}

	body := []byte(fmt.Sprintf("[page %d]", pageIndex))
	return fetcher.NewFetchResultForTest(fetchUrl, body, 200, nil), nil
}

func planOf(t *testing.T, pages int) pagination.Plan {
	t.Helper()
	var urls []url.URL
	for page := 2; page <= pages; page++ {
		u, err := url.Parse(fmt.Sprintf("https://archiveofourown.org/tags/Testing/works?page=%d", page))
		if err != nil {
			t.Fatalf("failed to parse plan URL: %v", err)
		}
		urls = append(urls, *u)
	}
	return pagination.NewPlan(urls)
}

func TestAggregate_EmptyPlanReturnsFirstPageUnchanged(t *testing.T) {
	a := aggregate.NewAggregator(&metadata.NoopSink{}, &stubFetcher{}, 3)

	doc, err := a.Aggregate(context.Background(), []byte("[page 1]"), pagination.EmptyPlan())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if doc.PageCount() != 1 {
		t.Errorf("expected 1 page, got %d", doc.PageCount())
	}
	if doc.Text() != "[page 1]" {
		t.Errorf("unexpected document text: %q", doc.Text())
	}
}

func TestAggregate_PreservesPageOrderUnderConcurrency(t *testing.T) {
	// Earlier pages are made slower so later pages complete first.
	stub := &stubFetcher{
		delays: map[int]time.Duration{
			2: 30 * time.Millisecond,
			3: 20 * time.Millisecond,
			4: 10 * time.Millisecond,
			5: 0,
		},
	}
	a := aggregate.NewAggregator(&metadata.NoopSink{}, stub, 4)

	doc, err := a.Aggregate(context.Background(), []byte("[page 1]"), planOf(t, 5))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	want := "[page 1][page 2][page 3][page 4][page 5]"
	if doc.Text() != want {
		t.Errorf("expected %q, got %q", want, doc.Text())
	}
	if doc.PageCount() != 5 {
		t.Errorf("expected 5 pages, got %d", doc.PageCount())
	}
}

func TestAggregate_PageAccessors(t *testing.T) {
	a := aggregate.NewAggregator(&metadata.NoopSink{}, &stubFetcher{}, 2)

	doc, err := a.Aggregate(context.Background(), []byte("[page 1]"), planOf(t, 3))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if string(doc.Page(2)) != "[page 2]" {
		t.Errorf("unexpected page 2 body: %q", string(doc.Page(2)))
	}
	if doc.Page(0) != nil || doc.Page(4) != nil {
		t.Error("expected nil for out-of-range page indices")
	}
	if doc.TotalBytes() != uint64(len("[page 1][page 2][page 3]")) {
		t.Errorf("unexpected total bytes: %d", doc.TotalBytes())
	}
}

func TestAggregate_FatalPageAbortsWholeBatch(t *testing.T) {
	stub := &stubFetcher{
		failPage: 3,
		failError: &fetcher.FetchError{
			Message:   "unrecognized status",
			Retryable: false,
			Cause:     fetcher.ErrCauseUnknownStatus,
			Status:    500,
		},
		delays: map[int]time.Duration{
			4: 50 * time.Millisecond,
			5: 50 * time.Millisecond,
		},
	}
	a := aggregate.NewAggregator(&metadata.NoopSink{}, stub, 2)

	_, err := a.Aggregate(context.Background(), []byte("[page 1]"), planOf(t, 5))
	if err == nil {
		t.Fatal("expected aggregation error, got nil")
	}

	var aggErr *aggregate.AggregationError
	if !errors.As(err, &aggErr) {
		t.Fatalf("expected AggregationError, got %T", err)
	}
	if aggErr.Cause != aggregate.ErrCausePageFetchFailed {
		t.Errorf("expected page fetch failure cause, got %s", aggErr.Cause)
	}
	if aggErr.PageIndex != 3 {
		t.Errorf("expected failure attributed to page 3, got %d", aggErr.PageIndex)
	}

	var fetchErr *fetcher.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected wrapped FetchError, got none in chain")
	}
	if fetchErr.Cause != fetcher.ErrCauseUnknownStatus {
		t.Errorf("expected unknown status cause in chain, got %s", fetchErr.Cause)
	}
}

func TestAggregate_CancelledContextReturnsError(t *testing.T) {
	stub := &stubFetcher{
		delays: map[int]time.Duration{
			2: 500 * time.Millisecond,
			3: 500 * time.Millisecond,
		},
	}
	a := aggregate.NewAggregator(&metadata.NoopSink{}, stub, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.Aggregate(ctx, []byte("[page 1]"), planOf(t, 3))
	if err == nil {
		t.Fatal("expected error after cancellation, got nil")
	}
}
