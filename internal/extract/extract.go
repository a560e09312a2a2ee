package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/pkg/failure"
)

/*
Responsibilities
- Parse an aggregated listing document into work blurbs
- Map each blurb's markup onto a structured WorkRecord

Mapping Rules
- A blurb without a heading link or a parseable work ID is dropped and
  recorded; it never fails the whole document
- The summary falls back from the paragraph form to the bare
  blockquote when the paragraph is absent
- Tag categories come from the list item's class attribute, so the
  record mirrors whatever categories the markup carries
- Numeric stats tolerate thousands separators; a stat that will not
  parse is simply absent

The extractor is a pure document-to-records mapping. It never touches
the network and never mutates the document.
*/

type WorkExtractor struct {
	metadataSink metadata.MetadataSink
	baseOrigin   url.URL
	workIDRe     *regexp.Regexp
}

func NewWorkExtractor(
	metadataSink metadata.MetadataSink,
	baseOrigin url.URL,
) WorkExtractor {
	return WorkExtractor{
		metadataSink: metadataSink,
		baseOrigin:   baseOrigin,
		workIDRe:     regexp.MustCompile(workIDPattern),
	}
}

// ExtractWorks pulls every work blurb out of a listing document.
// A listing with no blurbs yields an empty slice, not an error.
func (e *WorkExtractor) ExtractWorks(
	sourceUrl url.URL,
	documentBody []byte,
) ([]WorkRecord, failure.ClassifiedError) {
	callerMethod := "WorkExtractor.ExtractWorks"

	root, err := html.Parse(bytes.NewReader(documentBody))
	if err != nil || !isValidHTML(root) {
		extractionErr := &ExtractionError{
			Message:   "listing body is not a valid HTML document",
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
		e.recordError(callerMethod, sourceUrl, extractionErr)
		return nil, extractionErr
	}

	doc := goquery.NewDocumentFromNode(root)

	var records []WorkRecord
	doc.Find(selectorWorkBlurb).Each(func(_ int, blurb *goquery.Selection) {
		record, blurbErr := e.extractBlurb(blurb)
		if blurbErr != nil {
			e.recordError(callerMethod, sourceUrl, blurbErr)
			return
		}
		records = append(records, record)
	})

	return records, nil
}

func (e *WorkExtractor) extractBlurb(blurb *goquery.Selection) (WorkRecord, *ExtractionError) {
	link := blurb.Find(selectorHeading).First().Find(selectorLink).First()
	href, exists := link.Attr("href")
	if !exists {
		return WorkRecord{}, &ExtractionError{
			Message:   "work blurb heading has no link",
			Retryable: false,
			Cause:     ErrCauseIncompleteBlurb,
		}
	}

	match := e.workIDRe.FindStringSubmatch(href)
	if match == nil {
		return WorkRecord{}, &ExtractionError{
			Message:   fmt.Sprintf("no work ID in href %q", href),
			Retryable: false,
			Cause:     ErrCauseIncompleteBlurb,
		}
	}

	workUrl := e.baseOrigin
	workUrl.Path = href

	record := WorkRecord{
		ID:          match[1],
		Title:       strings.TrimSpace(link.Text()),
		URL:         workUrl.String(),
		Summary:     extractSummary(blurb),
		LastUpdated: extractDatetime(blurb),
		Authors:     collectTexts(blurb, selectorAuthor),
		Fandoms:     collectTexts(blurb, selectorFandom),
		ShipTypes:   extractShipTypes(blurb),
		Series:      extractSeries(blurb),
		Tags:        extractTags(blurb),
		Language:    strings.TrimSpace(blurb.Find(selectorLanguage).First().Text()),
		Chapters:    strings.TrimSpace(blurb.Find(selectorChapters).First().Text()),
	}

	if kudos, ok := parseStat(blurb, selectorKudos); ok {
		record.Kudos = kudos
	}
	if words, ok := parseStat(blurb, selectorWords); ok {
		record.Words = &words
	}
	if hits, ok := parseStat(blurb, selectorHits); ok {
		record.Hits = &hits
	}

	return record, nil
}

// collectTexts returns the trimmed text of every element matching the
// selector, skipping empty entries.
func collectTexts(blurb *goquery.Selection, selector string) []string {
	var texts []string
	blurb.Find(selector).Each(func(_ int, item *goquery.Selection) {
		if text := strings.TrimSpace(item.Text()); text != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

func extractSummary(blurb *goquery.Selection) string {
	summary := blurb.Find(selectorSummary).First()
	if summary.Length() == 0 {
		summary = blurb.Find(selectorSummaryBackup).First()
	}
	return strings.TrimSpace(summary.Text())
}

func extractDatetime(blurb *goquery.Selection) string {
	datetime := strings.TrimSpace(blurb.Find(selectorDatetime).First().Text())
	if datetime == "" {
		return "Unknown"
	}
	return datetime
}

// extractShipTypes reads the category text of the symbols-key link and
// splits comma-joined values into separate entries.
func extractShipTypes(blurb *goquery.Selection) []string {
	var shipTypes []string
	blurb.Find(selectorShipType).Each(func(_ int, category *goquery.Selection) {
		for _, part := range strings.Split(category.Text(), ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				shipTypes = append(shipTypes, trimmed)
			}
		}
	})
	return shipTypes
}

// extractTags groups tag values under the class of their list item,
// e.g. "relationships" or "freeforms".
func extractTags(blurb *goquery.Selection) map[string][]string {
	tags := make(map[string][]string)
	blurb.Find(selectorTagList).Each(func(_ int, item *goquery.Selection) {
		value := strings.TrimSpace(item.Find(selectorTagValue).First().Text())
		if value == "" {
			return
		}
		category := item.AttrOr("class", "")
		if category == "" {
			return
		}
		tags[category] = append(tags[category], value)
	})
	return tags
}

// extractSeries returns each series line with its whitespace collapsed,
// e.g. "Part 10 of Series Name".
func extractSeries(blurb *goquery.Selection) []string {
	var series []string
	blurb.Find(selectorSeries).Each(func(_ int, item *goquery.Selection) {
		line := strings.Join(strings.Fields(item.Text()), " ")
		if line != "" {
			series = append(series, line)
		}
	})
	return series
}

// parseStat reads a numeric stat, tolerating thousands separators.
func parseStat(blurb *goquery.Selection, selector string) (uint32, bool) {
	text := strings.TrimSpace(blurb.Find(selector).First().Text())
	if text == "" {
		return 0, false
	}
	value, err := strconv.ParseUint(strings.ReplaceAll(text, ",", ""), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(value), true
}

// isValidHTML walks the parse tree looking for an html element.
func isValidHTML(root *html.Node) bool {
	var findHTML func(*html.Node) bool
	findHTML = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "html" {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if findHTML(c) {
				return true
			}
		}
		return false
	}
	return findHTML(root)
}

func (e *WorkExtractor) recordError(action string, sourceUrl url.URL, extractionErr *ExtractionError) {
	e.metadataSink.RecordError(
		time.Now(),
		"extract",
		action,
		mapExtractionErrorToMetadataCause(extractionErr),
		extractionErr.Message,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, sourceUrl.String()),
		},
	)
}
