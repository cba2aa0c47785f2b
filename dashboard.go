package tally

import (
	"context"

	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/payment"
	"github.com/xraph/tally/types"
)

// Summary is the dashboard view of the book.
type Summary struct {
	Month     types.Month     `json:"month"`
	Customers int             `json:"customers"`
	Active    int             `json:"active"`
	Special   int             `json:"special"`
	Collected types.Money     `json:"collected"`
	Groups    []catalog.Usage `json:"groups"`
}

// Summary returns customer counts, the amount collected in month and the
// occupancy of every group. An empty month means the current one.
func (t *Tally) Summary(_ context.Context, month types.Month) (*Summary, error) {
	if month == "" {
		month = types.MonthOf(t.now())
	}
	if !month.Valid() {
		return nil, ErrInvalidMonth
	}

	s := &Summary{Month: month}
	err := t.read(func(doc *document.Document) error {
		s.Customers = len(doc.Customers)
		for _, c := range doc.Customers {
			if c.Active() {
				s.Active++
			}
			if c.Special != nil {
				s.Special++
			}
		}
		s.Collected = payment.Summarize(payment.ForMonth(doc.Payments, month)).Collected
		s.Groups = groupUsage(doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
