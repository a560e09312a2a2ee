package scrape_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ficscrape/ao3fetch/internal/config"
	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/internal/scrape"
)

func blurbHTML(workID int, title string) string {
	return fmt.Sprintf(`<li role="article">
	  <h4 class="heading"><a href="/works/%d">%s</a></h4>
	  <blockquote class="userstuff summary"><p>summary of %s</p></blockquote>
	</li>`, workID, title, title)
}

func listingPage(blurbs string, nav string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><body>
	<ol class="work index group">%s</ol>
	%s
	</body></html>`, blurbs, nav)
}

func newListingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tags/Testing/works" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.URL.Query().Get("page") {
		case "", "1":
			nav := `<ol class="pagination actions">
			  <li><a href="/tags/Testing/works?page=2">2</a></li>
			  <li class="next" title="next"><a href="/tags/Testing/works?page=2">Next</a></li>
			</ol>`
			fmt.Fprint(w, listingPage(blurbHTML(101, "First Work"), nav))
		case "2":
			fmt.Fprint(w, listingPage(blurbHTML(202, "Second Work"), ""))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newScraper(t *testing.T, serverURL string) scrape.Scraper {
	t.Helper()

	origin, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("failed to parse server URL: %v", err)
	}

	cfg, err := config.WithDefault().
		WithBaseOrigin(*origin).
		WithTimeout(5 * time.Second).
		WithSuccessCooldown(time.Millisecond).
		WithRedirectDelay(time.Millisecond).
		WithTransientDelay(time.Millisecond).
		WithOutputDir(t.TempDir()).
		Build()
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	s, serr := scrape.New(cfg, &metadata.NoopSink{}, nil)
	if serr != nil {
		t.Fatalf("failed to build scraper: %v", serr)
	}
	return s
}

func listingURL(t *testing.T, serverURL string) url.URL {
	t.Helper()
	u, err := url.Parse(serverURL + "/tags/Testing/works")
	if err != nil {
		t.Fatalf("failed to parse listing URL: %v", err)
	}
	return *u
}

func TestFetchDocument_AggregatesAllPages(t *testing.T) {
	server := newListingServer(t)
	defer server.Close()

	s := newScraper(t, server.URL)

	doc, err := s.FetchDocument(context.Background(), listingURL(t, server.URL))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if doc.PageCount() != 2 {
		t.Errorf("expected 2 pages, got %d", doc.PageCount())
	}

	text := doc.Text()
	firstAt := strings.Index(text, "First Work")
	secondAt := strings.Index(text, "Second Work")
	if firstAt == -1 || secondAt == -1 {
		t.Fatal("expected both pages in the aggregated document")
	}
	if firstAt > secondAt {
		t.Error("expected page 1 content before page 2 content")
	}
}

func TestScrapeListing_ReturnsRecordsAcrossPages(t *testing.T) {
	server := newListingServer(t)
	defer server.Close()

	s := newScraper(t, server.URL)

	records, err := s.ScrapeListing(context.Background(), listingURL(t, server.URL))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "101" || records[0].Title != "First Work" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].ID != "202" || records[1].Title != "Second Work" {
		t.Errorf("unexpected second record: %+v", records[1])
	}
}

func TestScrapeListing_SinglePageListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage(blurbHTML(303, "Lone Work"), ""))
	}))
	defer server.Close()

	s := newScraper(t, server.URL)

	records, err := s.ScrapeListing(context.Background(), listingURL(t, server.URL))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(records) != 1 || records[0].ID != "303" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestFetchDocument_FatalStatusSurfacesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	s := newScraper(t, server.URL)

	_, err := s.FetchDocument(context.Background(), listingURL(t, server.URL))
	if err == nil {
		t.Fatal("expected fatal error for 403 listing, got nil")
	}
}
