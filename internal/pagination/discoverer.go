package pagination

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/pkg/urlutil"
)

/*
Responsibilities
- Detect the pagination navigation element on a first-page document
- Determine the final page index from the navigation links
- Synthesize the ordered list of follow-up page URLs

Discovery Rules
- The navigation element is an ol carrying both the "pagination" and
  "actions" classes; only the first such element is consulted
- Links whose parent carries title="next" are excluded; the next-page
  shortcut duplicates a numbered target and would poison the tail pick
- The last remaining link in document order is the final-page template;
  its trailing digits are the final page index
- Follow-up URLs are the template with the trailing digits replaced by
  each index from 2 through final, resolved against the base origin

Discovery is best effort. Markup that does not match these rules means
the resource is treated as single-page, never as a failed fetch.
*/

// navSelector matches the pagination nav regardless of class order.
const navSelector = "ol.pagination.actions"

// pageIndexPattern captures the digits at the very end of an href.
const pageIndexPattern = `(\d+)$`

type Discoverer struct {
	metadataSink metadata.MetadataSink
	baseOrigin   url.URL
	pageIndexRe  *regexp.Regexp
}

func NewDiscoverer(
	metadataSink metadata.MetadataSink,
	baseOrigin url.URL,
) Discoverer {
	return Discoverer{
		metadataSink: metadataSink,
		baseOrigin:   baseOrigin,
		pageIndexRe:  regexp.MustCompile(pageIndexPattern),
	}
}

// Discover inspects a first-page document and returns the plan of
// follow-up page URLs. The same document always yields the same plan.
func (d *Discoverer) Discover(sourceUrl url.URL, firstPageBody []byte) Plan {
	callerMethod := "Discoverer.Discover"

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(firstPageBody))
	if err != nil {
		d.recordDegradation(callerMethod, sourceUrl, fmt.Sprintf("failed to parse document: %v", err))
		return EmptyPlan()
	}

	nav := doc.Find(navSelector).First()
	if nav.Length() == 0 {
		// single-page resource, nothing to plan
		return EmptyPlan()
	}

	hrefs := collectPageHrefs(nav)
	if len(hrefs) == 0 {
		d.recordDegradation(callerMethod, sourceUrl, "pagination nav present but holds no usable links")
		return EmptyPlan()
	}

	template := hrefs[len(hrefs)-1]
	match := d.pageIndexRe.FindStringSubmatch(template)
	if match == nil {
		d.recordDegradation(callerMethod, sourceUrl, fmt.Sprintf("no trailing page index in %q", template))
		return EmptyPlan()
	}

	finalPage, convErr := strconv.Atoi(match[1])
	if convErr != nil || finalPage < 2 {
		d.recordDegradation(callerMethod, sourceUrl, fmt.Sprintf("unusable final page index in %q", template))
		return EmptyPlan()
	}

	pageUrls := make([]url.URL, 0, finalPage-1)
	for page := 2; page <= finalPage; page++ {
		href := d.pageIndexRe.ReplaceAllString(template, strconv.Itoa(page))
		pageUrl, resolveErr := urlutil.ResolveLocation(d.baseOrigin, href)
		if resolveErr != nil {
			d.recordDegradation(callerMethod, sourceUrl, fmt.Sprintf("failed to resolve %q: %v", href, resolveErr))
			return EmptyPlan()
		}
		pageUrls = append(pageUrls, pageUrl)
	}

	return NewPlan(pageUrls)
}

// collectPageHrefs gathers hrefs of the nav's links in document order,
// skipping any link whose parent is titled "next".
func collectPageHrefs(nav *goquery.Selection) []string {
	var hrefs []string
	nav.Find("a").Each(func(_ int, link *goquery.Selection) {
		if link.Parent().AttrOr("title", "") == "next" {
			return
		}
		href, exists := link.Attr("href")
		if !exists || strings.TrimSpace(href) == "" {
			return
		}
		hrefs = append(hrefs, href)
	})
	return hrefs
}

func (d *Discoverer) recordDegradation(action string, sourceUrl url.URL, details string) {
	d.metadataSink.RecordError(
		time.Now(),
		"pagination",
		action,
		metadata.CauseMarkupUnexpected,
		details,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
		},
	)
}
