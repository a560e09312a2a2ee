package scrape

import (
	"context"
	"net/url"
	"time"

	"github.com/ficscrape/ao3fetch/internal/aggregate"
	"github.com/ficscrape/ao3fetch/internal/auth"
	"github.com/ficscrape/ao3fetch/internal/config"
	"github.com/ficscrape/ao3fetch/internal/extract"
	"github.com/ficscrape/ao3fetch/internal/fetcher"
	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/internal/pagination"
	"github.com/ficscrape/ao3fetch/internal/storage"
	"github.com/ficscrape/ao3fetch/internal/transport"
	"github.com/ficscrape/ao3fetch/pkg/failure"
)

/*
Responsibilities
- Compose the transport, fetcher, discoverer, aggregator and extractor
  into one facade
- Drive the first-page fetch, pagination discovery and aggregation for
  a paginated resource
- Hand aggregated documents to the extractor for structured records

The facade owns no retry or classification logic of its own. Every
policy decision lives in the component that enforces it; this package
only sequences them.
*/

type Scraper struct {
	metadataSink  *countingSink
	finalizer     metadata.FetchFinalizer
	pageFetcher   fetcher.Fetcher
	discoverer    pagination.Discoverer
	aggregator    aggregate.Aggregator
	extractor     extract.WorkExtractor
	authenticator auth.Authenticator
}

// New wires a complete scraper from configuration. All components
// share one transport so the session cookie from Login covers every
// later fetch.
func New(
	cfg config.Config,
	sink metadata.MetadataSink,
	finalizer metadata.FetchFinalizer,
) (Scraper, failure.ClassifiedError) {
	counting := newCountingSink(sink)

	client, err := transport.New(cfg)
	if err != nil {
		return Scraper{}, err
	}

	debugSink := storage.NewLocalDebugSink(counting, cfg.OutputDir())
	pageFetcher := fetcher.NewPageFetcher(counting, &debugSink, client, fetcher.PolicyFromConfig(cfg))

	return Scraper{
		metadataSink: counting,
		finalizer:    finalizer,
		pageFetcher:  &pageFetcher,
		discoverer:   pagination.NewDiscoverer(counting, cfg.BaseOrigin()),
		aggregator:   aggregate.NewAggregator(counting, &pageFetcher, cfg.Concurrency()),
		extractor:    extract.NewWorkExtractor(counting, cfg.BaseOrigin()),
		authenticator: auth.NewAuthenticator(
			counting,
			&pageFetcher,
			client,
			cfg.LoginFile(),
			cfg.RedirectDelay(),
		),
	}, nil
}

// Login runs the credential flow so later fetches ride an
// authenticated session. Optional; public listings work without it.
func (s *Scraper) Login(ctx context.Context) failure.ClassifiedError {
	return s.authenticator.Login(ctx)
}

// FetchDocument fetches a resource and every follow-up page the
// first page advertises, returning the complete ordered document.
func (s *Scraper) FetchDocument(
	ctx context.Context,
	pageUrl url.URL,
) (aggregate.Document, failure.ClassifiedError) {
	startTime := time.Now()

	firstPage, err := s.pageFetcher.Fetch(ctx, pageUrl, 1)
	if err != nil {
		s.finalize(0, 0, startTime)
		return aggregate.Document{}, err
	}

	plan := s.discoverer.Discover(pageUrl, firstPage.Body())

	document, err := s.aggregator.Aggregate(ctx, firstPage.Body(), plan)
	if err != nil {
		s.finalize(0, 0, startTime)
		return aggregate.Document{}, err
	}

	s.finalize(document.PageCount(), document.TotalBytes(), startTime)
	return document, nil
}

// ScrapeListing fetches a paginated listing end to end and maps every
// work blurb across all pages into structured records.
func (s *Scraper) ScrapeListing(
	ctx context.Context,
	listingUrl url.URL,
) ([]extract.WorkRecord, failure.ClassifiedError) {
	document, err := s.FetchDocument(ctx, listingUrl)
	if err != nil {
		return nil, err
	}
	return s.extractor.ExtractWorks(listingUrl, []byte(document.Text()))
}

func (s *Scraper) finalize(totalPages int, totalBytes uint64, startTime time.Time) {
	if s.finalizer == nil {
		return
	}
	s.finalizer.RecordFinalFetchStats(
		totalPages,
		s.metadataSink.ErrorCount(),
		totalBytes,
		time.Since(startTime),
	)
}
