package aggregate

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ficscrape/ao3fetch/internal/fetcher"
	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/internal/pagination"
	"github.com/ficscrape/ao3fetch/pkg/failure"
)

/*
Responsibilities
- Fetch the follow-up pages of a pagination plan through the fetcher
- Reassemble all page bodies into one document in page order
- Abort the whole aggregation on the first fatal page failure

Ordering Contract

Workers write each body into a slot addressed by page index. The slots
are pre-sized and every slot is owned by exactly one in-flight page, so
completion order never touches concatenation order and no lock guards
the slice.

A fatal failure on any page cancels the remaining work. There is no
partial document; the caller either gets every page or an error naming
the page that sank the batch.
*/

type pageJob struct {
	pageIndex int
	pageUrl   url.URL
}

type Aggregator struct {
	metadataSink metadata.MetadataSink
	pageFetcher  fetcher.Fetcher
	concurrency  int
}

func NewAggregator(
	metadataSink metadata.MetadataSink,
	pageFetcher fetcher.Fetcher,
	concurrency int,
) Aggregator {
	if concurrency < 1 {
		concurrency = 1
	}
	return Aggregator{
		metadataSink: metadataSink,
		pageFetcher:  pageFetcher,
		concurrency:  concurrency,
	}
}

// Aggregate fetches every URL in the plan and returns the complete
// document with firstPageBody as page 1. An empty plan returns the
// first page unchanged.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	firstPageBody []byte,
	plan pagination.Plan,
) (Document, failure.ClassifiedError) {
	if plan.Empty() {
		return NewDocument([][]byte{firstPageBody}), nil
	}

	pageBodies := make([][]byte, plan.FinalPage())
	pageBodies[0] = firstPageBody

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan pageJob)
	firstError := make(chan *AggregationError, 1)

	var wg sync.WaitGroup
	for i := 0; i < a.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.worker(workCtx, cancel, jobs, pageBodies, firstError)
		}()
	}

feed:
	for i, pageUrl := range plan.PageURLs() {
		select {
		case jobs <- pageJob{pageIndex: i + 2, pageUrl: pageUrl}:
		case <-workCtx.Done():
			break feed
		}
	}
	close(jobs)

	wg.Wait()

	select {
	case aggErr := <-firstError:
		a.recordFailure(aggErr)
		return Document{}, aggErr
	default:
	}

	if ctx.Err() != nil {
		aggErr := &AggregationError{
			Message: "aggregation cancelled before completion",
			Cause:   ErrCauseCancelled,
			Inner:   ctx.Err(),
		}
		a.recordFailure(aggErr)
		return Document{}, aggErr
	}

	return NewDocument(pageBodies), nil
}

// worker drains the job channel. Each job owns its slot in pageBodies,
// so the write below is race free without a lock.
func (a *Aggregator) worker(
	ctx context.Context,
	cancel context.CancelFunc,
	jobs <-chan pageJob,
	pageBodies [][]byte,
	firstError chan<- *AggregationError,
) {
	for job := range jobs {
		if ctx.Err() != nil {
			return
		}

		result, err := a.pageFetcher.Fetch(ctx, job.pageUrl, job.pageIndex)
		if err != nil {
			aggErr := &AggregationError{
				Message:   fmt.Sprintf("page %d failed: %v", job.pageIndex, err),
				Cause:     ErrCausePageFetchFailed,
				PageIndex: job.pageIndex,
				Inner:     err,
			}
			select {
			case firstError <- aggErr:
			default:
			}
			cancel()
			return
		}

		pageBodies[job.pageIndex-1] = result.Body()
	}
}

func (a *Aggregator) recordFailure(aggErr *AggregationError) {
	attrs := []metadata.Attribute{}
	if aggErr.PageIndex > 0 {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrPage, strconv.Itoa(aggErr.PageIndex)))
	}
	a.metadataSink.RecordError(
		time.Now(),
		"aggregate",
		"Aggregator.Aggregate",
		mapAggregationErrorToMetadataCause(aggErr),
		aggErr.Message,
		attrs,
	)
}
