package tally

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/pricing"
	"github.com/xraph/tally/types"
)

// UpsertResult is the outcome of UpsertCustomer. Exactly one of Customer
// and Warning is set.
type UpsertResult struct {
	// Customer is the saved record.
	Customer *customer.Customer
	// Created is true when the record was appended rather than replaced.
	Created bool
	// Warning is set when the target group is full. Nothing was saved;
	// call Warning.Confirm to save anyway.
	Warning *CapacityWarning
}

// CapacityWarning reports that admitting a customer would put their group
// at or over its limit. Group limits are advisory: the operator decides.
type CapacityWarning struct {
	Usage catalog.Usage

	t        *Tally
	mu       sync.Mutex
	customer *customer.Customer
}

func (w *CapacityWarning) String() string {
	return fmt.Sprintf("group %q is full (%s)", w.Usage.Group.Name, w.Usage)
}

// Customer returns a copy of the record that was held back.
func (w *CapacityWarning) Customer() *customer.Customer {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.customer.Clone()
}

// Confirm saves the held-back customer without the capacity check.
// Confirming the same warning again updates the customer saved the first
// time rather than adding another.
func (w *CapacityWarning) Confirm(ctx context.Context) (*UpsertResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	res, err := w.t.upsertCustomer(ctx, w.customer.Clone(), true)
	if err != nil {
		return nil, err
	}
	w.customer.ID = res.Customer.ID
	w.customer.CreatedAt = res.Customer.CreatedAt
	return res, nil
}

// UpsertCustomer replaces the customer with c.ID in place, or appends c
// under a fresh ID. An active non-extra customer is first checked against
// their group's limit; when the group is full the result carries a
// CapacityWarning and nothing is saved.
func (t *Tally) UpsertCustomer(ctx context.Context, c *customer.Customer) (*UpsertResult, error) {
	if c == nil {
		return nil, ErrInvalidInput
	}
	return t.upsertCustomer(ctx, c.Clone(), false)
}

func (t *Tally) upsertCustomer(ctx context.Context, in *customer.Customer, force bool) (*UpsertResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Status == "" {
		in.Status = customer.StatusActive
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	result := &UpsertResult{}
	err := t.write(ctx, "customer.upsert", func(doc *document.Document) (func(), error) {
		idx := -1
		if !in.ID.IsNil() {
			for i, existing := range doc.Customers {
				if existing.ID == in.ID {
					idx = i
					break
				}
			}
		}

		if !force && in.CountsAgainstGroup() {
			if g := catalog.FindGroup(doc.Groups, in.GroupID); g != nil {
				used := customer.CountInGroup(doc.Customers, in.GroupID, in.ID)
				if used >= g.Limit {
					cp := *g
					result.Warning = &CapacityWarning{
						Usage:    catalog.Usage{Group: &cp, Used: used},
						t:        t,
						customer: in.Clone(),
					}
					return nil, errUnchanged
				}
			}
		}

		if idx >= 0 {
			in.CreatedAt = doc.Customers[idx].CreatedAt
			doc.Customers[idx] = in
		} else {
			in.ID = id.NewCustomerID()
			in.CreatedAt = t.now()
			doc.Customers = append(doc.Customers, in)
			result.Created = true
		}
		result.Customer = in.Clone()

		return func() {
			t.logger.Debug("customer saved",
				"customer_id", in.ID.String(),
				"created", result.Created,
				"forced", force,
			)
			t.plugins.EmitCustomerSaved(ctx, in.Clone(), result.Created)
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if w := result.Warning; w != nil {
		t.logger.Info("group capacity reached",
			"group_id", w.Usage.Group.ID.String(),
			"used", w.Usage.Used,
			"limit", w.Usage.Group.Limit,
		)
		t.plugins.EmitCapacityExceeded(ctx, w.customer.Clone(), w.Usage)
	}
	return result, nil
}

// DeleteCustomer removes a customer and every payment recorded for them.
// Reminder records are kept. Deleting an unknown ID does nothing.
func (t *Tally) DeleteCustomer(ctx context.Context, customerID id.ID) error {
	return t.write(ctx, "customer.delete", func(doc *document.Document) (func(), error) {
		kept := doc.Customers[:0]
		for _, c := range doc.Customers {
			if c.ID != customerID {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(doc.Customers) {
			return nil, errUnchanged
		}
		doc.Customers = kept

		payments := doc.Payments[:0]
		for _, p := range doc.Payments {
			if p.CustomerID != customerID {
				payments = append(payments, p)
			}
		}
		removed := len(doc.Payments) - len(payments)
		doc.Payments = payments

		return func() {
			t.logger.Debug("customer deleted",
				"customer_id", customerID.String(),
				"payments_removed", removed,
			)
			t.plugins.EmitCustomerDeleted(ctx, customerID, removed)
		}, nil
	})
}

// ListCustomers returns the customers that match f, in book order.
func (t *Tally) ListCustomers(_ context.Context, f customer.Filter) ([]*customer.Customer, error) {
	var out []*customer.Customer
	err := t.read(func(doc *document.Document) error {
		out = make([]*customer.Customer, 0, len(doc.Customers))
		for _, c := range doc.Customers {
			if f.Match(c) {
				out = append(out, c.Clone())
			}
		}
		return nil
	})
	return out, err
}

// Customer returns one customer.
func (t *Tally) Customer(_ context.Context, customerID id.ID) (*customer.Customer, error) {
	var out *customer.Customer
	err := t.read(func(doc *document.Document) error {
		c := customer.Find(doc.Customers, customerID)
		if c == nil {
			return ErrCustomerNotFound
		}
		out = c.Clone()
		return nil
	})
	return out, err
}

// Quote returns what the customer owes for one month under their current
// package and special arrangement.
func (t *Tally) Quote(_ context.Context, customerID id.ID) (types.Money, error) {
	var out types.Money
	err := t.read(func(doc *document.Document) error {
		c := customer.Find(doc.Customers, customerID)
		if c == nil {
			return ErrCustomerNotFound
		}
		out = pricing.Quote(c, catalog.FindPackage(doc.Packages, c.PackageID))
		return nil
	})
	return out, err
}
