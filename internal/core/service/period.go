package service

import (
	"time"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

// Period bounds a report on work-order creation time, [From, To). Zero
// bounds are open.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// PeriodFromDates builds a Period from inclusive YYYY-MM-DD dates, so
// "2026-03-01".."2026-03-31" covers all of March. Either date may be blank.
func PeriodFromDates(from, to string) (Period, error) {
	var p Period
	var err error
	if p.From, err = domain.ParseDate("from", from); err != nil {
		return Period{}, err
	}
	if p.To, err = domain.ParseDate("to", to); err != nil {
		return Period{}, err
	}
	if !p.To.IsZero() {
		p.To = p.To.AddDate(0, 0, 1)
	}
	if !p.From.IsZero() && !p.To.IsZero() && !p.To.After(p.From) {
		return Period{}, domain.Invalid("to", "must not precede from")
	}
	return p, nil
}

func (p Period) Open() bool {
	return p.From.IsZero() && p.To.IsZero()
}

// LastDay is the inclusive end date, zero when To is open.
func (p Period) LastDay() time.Time {
	if p.To.IsZero() {
		return time.Time{}
	}
	return p.To.AddDate(0, 0, -1)
}
