package rhythm

import (
	"fmt"

	"github.com/roach88/barline/internal/frac"
)

// DefaultSearchQuota is the default budget of the respelling search for one
// rest run. Every expanded state costs one unit and every successor it
// generates costs one more, so the budget bounds both time and memory.
const DefaultSearchQuota = 1_000_000

// searchQuota counts the work of one respelling search and fails once the
// limit is passed.
type searchQuota struct {
	max     int
	current int
}

func newSearchQuota(max int) *searchQuota {
	if max <= 0 {
		max = DefaultSearchQuota
	}
	return &searchQuota{max: max}
}

// Check charges one expansion against the limit.
func (q *searchQuota) Check(at frac.Q) error {
	return q.Reserve(at, 1)
}

// Reserve charges n units against the limit before they are spent. n may be
// far larger than the limit; nothing is allocated for a failed reservation.
func (q *searchQuota) Reserve(at frac.Q, n int64) error {
	if n > int64(q.max-q.current) {
		q.current = q.max + 1
	} else {
		q.current += int(n)
	}
	if q.current > q.max {
		return &RhythmError{
			Code:    ErrCodeNoSpellingFound,
			Message: fmt.Sprintf("search for rests at %s exceeded %d expansions", at, q.max),
			Details: map[string]string{
				"at":         at.String(),
				"expansions": fmt.Sprintf("%d", q.current),
				"limit":      fmt.Sprintf("%d", q.max),
			},
		}
	}
	return nil
}
