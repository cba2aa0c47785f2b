package tally

import (
	"context"
	"time"

	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/payment"
	"github.com/xraph/tally/pricing"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/types"
)

// DeletedLabel names the customer of a payment whose customer no longer
// exists.
const DeletedLabel = "deleted"

// StatementLine is one payment joined with display names.
type StatementLine struct {
	Payment      *payment.Payment `json:"payment"`
	CustomerName string           `json:"customerName"`
	Phone        string           `json:"phone"`
	GroupName    string           `json:"groupName"`
}

// Statement is the ledger view of one month.
type Statement struct {
	Month  types.Month     `json:"month"`
	Lines  []StatementLine `json:"lines"`
	Totals payment.Totals  `json:"totals"`
}

// Overdue is an unpaid payment with the contact details and reminder
// history needed to chase it.
type Overdue struct {
	Payment      *payment.Payment `json:"payment"`
	CustomerName string           `json:"customerName"`
	Phone        string           `json:"phone"`
	Reminder     reminder.Record  `json:"reminder"`
}

// GenerateForMonth creates an unpaid payment for every active customer
// that has none for month, priced by the current quote. Existing payments
// are never touched. It returns how many payments were created.
func (t *Tally) GenerateForMonth(ctx context.Context, month types.Month) (int, error) {
	if !month.Valid() {
		return 0, ErrInvalidMonth
	}

	start := time.Now()
	created := 0
	err := t.write(ctx, "payments.generate", func(doc *document.Document) (func(), error) {
		have := payment.Index(doc.Payments)
		for _, c := range doc.Customers {
			if !c.Active() {
				continue
			}
			if _, ok := have[payment.Key{CustomerID: c.ID, Month: month}]; ok {
				continue
			}
			doc.Payments = append(doc.Payments, &payment.Payment{
				ID:         id.NewPaymentID(),
				CustomerID: c.ID,
				Month:      month,
				Amount:     pricing.Quote(c, catalog.FindPackage(doc.Packages, c.PackageID)),
				Status:     payment.StatusUnpaid,
			})
			created++
		}
		if created == 0 {
			return nil, errUnchanged
		}
		return nil, nil
	})
	if err != nil {
		return 0, err
	}

	elapsed := time.Since(start)
	t.logger.Info("generated monthly payments",
		"month", month.String(),
		"created", created,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	t.plugins.EmitPaymentsGenerated(ctx, month, created, elapsed)

	return created, nil
}

// MarkPaid records a payment as collected today. Marking a paid payment
// again keeps its original collection date.
func (t *Tally) MarkPaid(ctx context.Context, paymentID id.ID) (*payment.Payment, error) {
	var out *payment.Payment
	err := t.write(ctx, "payment.paid", func(doc *document.Document) (func(), error) {
		p := payment.Find(doc.Payments, paymentID)
		if p == nil {
			return nil, ErrPaymentNotFound
		}
		if p.Paid() {
			out = p.Clone()
			return nil, errUnchanged
		}
		p.Status = payment.StatusPaid
		p.Date = t.today()
		out = p.Clone()

		return func() {
			t.logger.Debug("payment marked paid", "payment_id", paymentID.String())
			t.plugins.EmitPaymentPaid(ctx, out.Clone())
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkUnpaid reverts a payment to unpaid and clears its date. The amount
// is unchanged.
func (t *Tally) MarkUnpaid(ctx context.Context, paymentID id.ID) (*payment.Payment, error) {
	var out *payment.Payment
	err := t.write(ctx, "payment.unpaid", func(doc *document.Document) (func(), error) {
		p := payment.Find(doc.Payments, paymentID)
		if p == nil {
			return nil, ErrPaymentNotFound
		}
		if !p.Paid() {
			out = p.Clone()
			return nil, errUnchanged
		}
		p.Status = payment.StatusUnpaid
		p.Date = types.Date{}
		out = p.Clone()

		return func() {
			t.logger.Debug("payment marked unpaid", "payment_id", paymentID.String())
			t.plugins.EmitPaymentUnpaid(ctx, out.Clone())
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentsForMonth returns the statement for month: every payment joined
// with its customer and group names, plus the required and collected
// totals.
func (t *Tally) PaymentsForMonth(_ context.Context, month types.Month) (*Statement, error) {
	if !month.Valid() {
		return nil, ErrInvalidMonth
	}

	st := &Statement{Month: month}
	err := t.read(func(doc *document.Document) error {
		payments := payment.ForMonth(doc.Payments, month)
		st.Lines = make([]StatementLine, 0, len(payments))
		for _, p := range payments {
			line := StatementLine{
				Payment:      p.Clone(),
				CustomerName: DeletedLabel,
				GroupName:    catalog.NoneLabel,
			}
			if c := customer.Find(doc.Customers, p.CustomerID); c != nil {
				line.CustomerName = c.Name
				line.Phone = c.Phone
				line.GroupName = catalog.GroupName(doc.Groups, c.GroupID)
			}
			st.Lines = append(st.Lines, line)
		}
		st.Totals = payment.Summarize(payments)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// UnpaidPayments returns every unpaid payment across all months, joined
// with the customer's name and phone and the reminder record for that
// month.
func (t *Tally) UnpaidPayments(_ context.Context) ([]Overdue, error) {
	var out []Overdue
	err := t.read(func(doc *document.Document) error {
		for _, p := range doc.Payments {
			if p.Paid() {
				continue
			}
			o := Overdue{
				Payment:      p.Clone(),
				CustomerName: DeletedLabel,
				Reminder:     doc.Reminders[reminder.Key(p.CustomerID, p.Month)],
			}
			if c := customer.Find(doc.Customers, p.CustomerID); c != nil {
				o.CustomerName = c.Name
				o.Phone = c.Phone
			}
			out = append(out, o)
		}
		return nil
	})
	return out, err
}
