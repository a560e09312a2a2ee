package extract

// Selectors for the work-blurb markup on listing pages. Grouped here
// so the whole mapping between markup and record fields is visible in
// one place.
const (
	selectorWorkBlurb     = `li[role="article"]`
	selectorHeading       = "h4.heading"
	selectorLink          = "a"
	selectorDatetime      = "p.datetime"
	selectorAuthor        = `a[rel="author"]`
	selectorFandom        = "h5.fandoms.heading a.tag"
	selectorShipType      = `a.help.symbol[href="/help/symbols-key.html"] span.category span.text`
	selectorSummary       = "blockquote.userstuff.summary > p"
	selectorSummaryBackup = "blockquote.userstuff.summary"
	selectorTagList       = "ul.tags li"
	selectorTagValue      = "a.tag"
	selectorSeries        = "ul.series li"
	selectorLanguage      = "dd.language"
	selectorChapters      = "dd.chapters"
	selectorKudos         = "dd.kudos"
	selectorWords         = "dd.words"
	selectorHits          = "dd.hits"
)

// workIDPattern captures the numeric work ID out of a work URL.
const workIDPattern = `/works/(\d+)`
