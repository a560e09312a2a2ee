package pagination

import "net/url"

// Plan is the ordered list of follow-up page URLs for a paginated
// resource. Page 1 is never part of a Plan; the caller already holds
// its body by the time discovery runs. A Plan is immutable once built.
type Plan struct {
	pageUrls []url.URL
}

func NewPlan(pageUrls []url.URL) Plan {
	return Plan{
		pageUrls: pageUrls,
	}
}

// EmptyPlan marks a single-page resource. Discovery degrades to this
// on any parse problem rather than failing the whole fetch.
func EmptyPlan() Plan {
	return Plan{}
}

func (p Plan) Empty() bool {
	return len(p.pageUrls) == 0
}

// PageURLs returns the follow-up URLs in increasing page order,
// starting at page 2.
func (p Plan) PageURLs() []url.URL {
	return p.pageUrls
}

// FinalPage returns the highest page index covered by the plan,
// or 1 when the plan is empty.
func (p Plan) FinalPage() int {
	return len(p.pageUrls) + 1
}
