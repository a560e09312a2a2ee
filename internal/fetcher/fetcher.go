package fetcher

import (
	"context"
	"net/url"

	"github.com/ficscrape/ao3fetch/pkg/failure"
)

type Fetcher interface {
	Fetch(
		ctx context.Context,
		fetchUrl url.URL,
		pageIndex int,
	) (FetchResult, failure.ClassifiedError)
}
