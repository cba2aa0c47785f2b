// Package payment defines monthly payment obligations and their totals.
package payment

import (
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/types"
)

// Status is the collection state of a payment.
type Status string

const (
	StatusUnpaid Status = "unpaid"
	StatusPaid   Status = "paid"
)

// Payment is one customer's obligation for one month. Amount is fixed when
// the payment is generated and is never recomputed.
type Payment struct {
	ID         id.ID       `json:"id"`
	CustomerID id.ID       `json:"customerId"`
	Month      types.Month `json:"month"`
	Amount     types.Money `json:"amount"`
	Status     Status      `json:"status"`
	Date       types.Date  `json:"date"`
}

// Paid reports whether the payment has been collected.
func (p *Payment) Paid() bool { return p.Status == StatusPaid }

// Clone returns a copy.
func (p *Payment) Clone() *Payment {
	out := *p
	return &out
}

// Totals summarizes a set of payments.
type Totals struct {
	// Required is the sum of all amounts.
	Required types.Money `json:"required"`
	// Collected is the sum of paid amounts.
	Collected types.Money `json:"collected"`
	Count     int         `json:"count"`
	PaidCount int         `json:"paidCount"`
}

// Outstanding is what remains to be collected.
func (t Totals) Outstanding() types.Money { return t.Required.Subtract(t.Collected) }

// Summarize computes Totals over payments.
func Summarize(payments []*Payment) Totals {
	var t Totals
	for _, p := range payments {
		t.Count++
		t.Required = t.Required.Add(p.Amount)
		if p.Paid() {
			t.PaidCount++
			t.Collected = t.Collected.Add(p.Amount)
		}
	}
	return t
}

// Find returns the payment with the given ID, or nil.
func Find(payments []*Payment, paymentID id.ID) *Payment {
	for _, p := range payments {
		if p.ID == paymentID {
			return p
		}
	}
	return nil
}

// ForMonth returns the payments generated for month, in ledger order.
func ForMonth(payments []*Payment, month types.Month) []*Payment {
	var out []*Payment
	for _, p := range payments {
		if p.Month == month {
			out = append(out, p)
		}
	}
	return out
}

// Key identifies the (customer, month) pair a payment belongs to.
type Key struct {
	CustomerID id.ID
	Month      types.Month
}

// Index returns the set of (customer, month) pairs already billed.
func Index(payments []*Payment) map[Key]struct{} {
	idx := make(map[Key]struct{}, len(payments))
	for _, p := range payments {
		idx[Key{CustomerID: p.CustomerID, Month: p.Month}] = struct{}{}
	}
	return idx
}
