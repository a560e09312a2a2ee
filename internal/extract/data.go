package extract

// WorkRecord holds the structured fields pulled out of one work blurb.
// ID, Title and URL are always present; everything else is best effort
// and zero-valued when the blurb does not carry it.
type WorkRecord struct {
	ID          string
	Title       string
	URL         string
	Summary     string
	LastUpdated string
	Authors     []string
	Fandoms     []string
	ShipTypes   []string
	Series      []string
	Tags        map[string][]string
	Language    string
	Chapters    string
	Kudos       uint32
	Words       *uint32
	Hits        *uint32
}
