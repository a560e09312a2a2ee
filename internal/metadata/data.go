package metadata

/*
fetchStats
  - Represents a terminal, derived summary of a completed document fetch
  - Contains only aggregate counts and durations
  - Is computed by the scrape facade after the aggregation finishes
  - Is recorded exactly once
  - Must not influence retries, redirects, or aggregation order
*/
type fetchStats struct {
	totalPages  int
	totalErrors int
	totalBytes  uint64
	durationMs  int64
}

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used for retry, redirect, or abort decisions.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

const (
	CauseUnknown ErrorCause = iota
	// Failure caused by network transport or remote availability.
	CauseNetworkFailure
	// The server answered with a status the engine refuses to act on.
	CauseStatusUnrecognized
	// A redirect could not be resolved to a usable target.
	CauseRedirectInvalid
	// The retry budget for a single logical fetch ran out.
	CauseRetryExhausted
	// Markup did not contain the structure a selector expected.
	CauseMarkupUnexpected
	// Session establishment (token or login POST) failed.
	CauseAuthFailure
	// A local artifact could not be written.
	CauseStorageFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseStatusUnrecognized:
		return "status_unrecognized"
	case CauseRedirectInvalid:
		return "redirect_invalid"
	case CauseRetryExhausted:
		return "retry_exhausted"
	case CauseMarkupUnexpected:
		return "markup_unexpected"
	case CauseAuthFailure:
		return "auth_failure"
	case CauseStorageFailure:
		return "storage_failure"
	default:
		return "unknown"
	}
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrHost       AttributeKey = "host"
	AttrPath       AttributeKey = "path"
	AttrPage       AttributeKey = "page"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrHash       AttributeKey = "hash"
	AttrMessage    AttributeKey = "message"
)

type ArtifactKind string

const (
	ArtifactDebugBody ArtifactKind = "debug_body"
)
