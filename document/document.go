// Package document defines the aggregate that holds an entire book:
// catalog, customers, ledger and reminder records. It is always read and
// written as a whole.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/payment"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/types"
)

// Defaults for a fresh book.
const (
	DefaultPassword = "123456"
	DefaultCurrency = "egp"
)

// ErrMalformed is returned by Decode when the input is not a book.
var ErrMalformed = errors.New("document: malformed")

// Document is the persisted aggregate.
type Document struct {
	Password  string                     `json:"password"`
	Currency  string                     `json:"currency,omitempty"`
	Groups    []*catalog.Group           `json:"groups"`
	Packages  []*catalog.Package         `json:"packages"`
	Customers []*customer.Customer       `json:"customers"`
	Payments  []*payment.Payment         `json:"payments"`
	Reminders map[string]reminder.Record `json:"reminders"`
	UpdatedAt *time.Time                 `json:"updatedAt,omitempty"`
}

// Default returns an empty book with the default password.
func Default() *Document {
	d := &Document{}
	d.Normalize()
	return d
}

// Normalize replaces nil collections with empty ones, drops null entries
// and fills in the default password and currency.
func (d *Document) Normalize() {
	if d.Password == "" {
		d.Password = DefaultPassword
	}
	if d.Currency == "" {
		d.Currency = DefaultCurrency
	}
	d.Groups = compact(d.Groups)
	d.Packages = compact(d.Packages)
	d.Customers = compact(d.Customers)
	d.Payments = compact(d.Payments)
	if d.Reminders == nil {
		d.Reminders = make(map[string]reminder.Record)
	}
}

func compact[T any](in []*T) []*T {
	out := make([]*T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns a deep copy that shares no mutable state with d.
func (d *Document) Clone() *Document {
	out := &Document{
		Password:  d.Password,
		Currency:  d.Currency,
		Groups:    make([]*catalog.Group, len(d.Groups)),
		Packages:  make([]*catalog.Package, len(d.Packages)),
		Customers: make([]*customer.Customer, len(d.Customers)),
		Payments:  make([]*payment.Payment, len(d.Payments)),
		Reminders: make(map[string]reminder.Record, len(d.Reminders)),
	}
	for i, g := range d.Groups {
		cp := *g
		out.Groups[i] = &cp
	}
	for i, p := range d.Packages {
		cp := *p
		out.Packages[i] = &cp
	}
	for i, c := range d.Customers {
		out.Customers[i] = c.Clone()
	}
	for i, p := range d.Payments {
		out.Payments[i] = p.Clone()
	}
	for k, v := range d.Reminders {
		out.Reminders[k] = v
	}
	if d.UpdatedAt != nil {
		t := *d.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// Decode parses a serialized book. The input must be a JSON object; the
// result is normalized.
func Decode(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformed)
	}
	var d Document
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err) //nolint:errorlint // callers match ErrMalformed
	}
	d.Normalize()
	return &d, nil
}

// Encode serializes a book compactly.
func Encode(d *Document) ([]byte, error) {
	return json.Marshal(d)
}

// EncodeIndent serializes a book for humans, as used by exports.
func EncodeIndent(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ExportName returns the conventional backup file name for day.
func ExportName(day types.Date) string {
	return "backup_" + day.String() + ".json"
}
