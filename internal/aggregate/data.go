package aggregate

import "strings"

// Document is the ordered assembly of a paginated resource. Page
// bodies are stored by page index, so the concatenation order is the
// page-number order no matter how the fetches completed.
type Document struct {
	pageBodies [][]byte
}

func NewDocument(pageBodies [][]byte) Document {
	return Document{
		pageBodies: pageBodies,
	}
}

// PageCount returns the number of pages the document spans.
func (d Document) PageCount() int {
	return len(d.pageBodies)
}

// Page returns the body of the given page, 1-based.
// Out-of-range indices return nil.
func (d Document) Page(index int) []byte {
	if index < 1 || index > len(d.pageBodies) {
		return nil
	}
	return d.pageBodies[index-1]
}

// Text returns the full document, pages concatenated in page order.
func (d Document) Text() string {
	var builder strings.Builder
	for _, body := range d.pageBodies {
		builder.Write(body)
	}
	return builder.String()
}

// TotalBytes returns the combined size of all page bodies.
func (d Document) TotalBytes() uint64 {
	var total uint64
	for _, body := range d.pageBodies {
		total += uint64(len(body))
	}
	return total
}
