package engine

// QuotaEnforcer counts instantiations while a plan is built and enforces
// the configured ceiling.
//
// Independent groups multiply combinatorially, so a template with a few
// dozen independent variables can ask for billions of copies. Every
// instantiated batch and every bundle instance costs one step; the plan
// fails with PLAN_TOO_LARGE as soon as the count passes the limit, before
// any statement is rewritten.
type QuotaEnforcer struct {
	limit   int
	current int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(limit int) *QuotaEnforcer {
	return &QuotaEnforcer{limit: limit}
}

// Check increments the counter and validates it against the limit.
func (q *QuotaEnforcer) Check() error {
	q.current++
	if q.current > q.limit {
		return NewPlanTooLargeError(q.current, q.limit)
	}
	return nil
}

// Current returns the number of instantiations counted so far.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// Limit returns the ceiling.
func (q *QuotaEnforcer) Limit() int {
	return q.limit
}
