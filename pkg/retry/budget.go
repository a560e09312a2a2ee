package retry

// Budget tracks how many physical attempts a single logical operation
// may spend. A limit of zero means unbounded, matching a caller that
// prefers to wait out server throttling rather than give up.
//
// Budget is not safe for concurrent use; each logical fetch owns its own.
type Budget struct {
	limit int
	spent int
}

func NewBudget(limit int) Budget {
	if limit < 0 {
		limit = 0
	}
	return Budget{limit: limit}
}

// Spend consumes one attempt. It returns false when the budget is
// exhausted, in which case the attempt must not be made.
func (b *Budget) Spend() bool {
	if b.limit > 0 && b.spent >= b.limit {
		return false
	}
	b.spent++
	return true
}

func (b *Budget) Attempts() int {
	return b.spent
}

func (b *Budget) Unbounded() bool {
	return b.limit == 0
}

func (b *Budget) Limit() int {
	return b.limit
}
