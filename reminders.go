package tally

import (
	"context"

	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/payment"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/types"
)

// Nudge is a prepared reminder for one unpaid month.
type Nudge struct {
	CustomerID id.ID           `json:"customerId"`
	Month      types.Month     `json:"month"`
	Amount     types.Money     `json:"amount"`
	Message    string          `json:"message"`
	URL        string          `json:"url"`
	Record     reminder.Record `json:"record"`
}

// RecordOutreach counts one more reminder sent to a customer for month and
// stamps it with today's date. It does not check that the customer or an
// unpaid payment exists.
func (t *Tally) RecordOutreach(ctx context.Context, customerID id.ID, month types.Month) (reminder.Record, error) {
	if !month.Valid() {
		return reminder.Record{}, ErrInvalidMonth
	}

	var rec reminder.Record
	err := t.write(ctx, "reminder.record", func(doc *document.Document) (func(), error) {
		rec = bumpReminder(doc, customerID, month, t.today())
		return t.notifyReminder(ctx, customerID, month, rec), nil
	})
	return rec, err
}

// Outreach prepares the reminder for the customer's unpaid payment in
// month, records the attempt and returns the message with its wa.me link.
func (t *Tally) Outreach(ctx context.Context, customerID id.ID, month types.Month) (*Nudge, error) {
	if !month.Valid() {
		return nil, ErrInvalidMonth
	}

	var n *Nudge
	err := t.write(ctx, "reminder.record", func(doc *document.Document) (func(), error) {
		c := customer.Find(doc.Customers, customerID)
		if c == nil {
			return nil, ErrCustomerNotFound
		}
		var due *payment.Payment
		for _, p := range payment.ForMonth(doc.Payments, month) {
			if p.CustomerID == customerID && !p.Paid() {
				due = p
				break
			}
		}
		if due == nil {
			return nil, ErrNoUnpaidPayment
		}

		msg := reminder.Message(month, due.Amount, doc.Currency)
		rec := bumpReminder(doc, customerID, month, t.today())
		n = &Nudge{
			CustomerID: customerID,
			Month:      month,
			Amount:     due.Amount,
			Message:    msg,
			URL:        reminder.WhatsAppURL(t.dialPrefix, c.Phone, msg),
			Record:     rec,
		}
		return t.notifyReminder(ctx, customerID, month, rec), nil
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Reminder returns the reminder record for a (customer, month) pair; the
// zero record when none was sent.
func (t *Tally) Reminder(_ context.Context, customerID id.ID, month types.Month) (reminder.Record, error) {
	var rec reminder.Record
	err := t.read(func(doc *document.Document) error {
		rec = doc.Reminders[reminder.Key(customerID, month)]
		return nil
	})
	return rec, err
}

func bumpReminder(doc *document.Document, customerID id.ID, month types.Month, day types.Date) reminder.Record {
	key := reminder.Key(customerID, month)
	rec := doc.Reminders[key].Bump(day)
	doc.Reminders[key] = rec
	return rec
}

func (t *Tally) notifyReminder(ctx context.Context, customerID id.ID, month types.Month, rec reminder.Record) func() {
	return func() {
		t.logger.Debug("reminder recorded",
			"customer_id", customerID.String(),
			"month", month.String(),
			"count", rec.Count,
		)
		t.plugins.EmitReminderRecorded(ctx, customerID, month, rec)
	}
}
