// Package customer defines subscribers, their special pricing arrangements
// and the seat-counting rules that apply to them.
package customer

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/xraph/tally/id"
	"github.com/xraph/tally/types"
)

// Status is the customer's billing status.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// SpecialKind selects how a special customer's price is computed.
type SpecialKind string

const (
	// SpecialDiscount subtracts Value from the package price.
	SpecialDiscount SpecialKind = "discount"
	// SpecialCustomPrice replaces the package price with Value.
	SpecialCustomPrice SpecialKind = "customPrice"
	// SpecialExtra pays the package price but does not take a group seat.
	SpecialExtra SpecialKind = "extra"
)

// Special is the per-customer pricing arrangement. A nil *Special means the
// customer pays the package price and takes a seat when active.
type Special struct {
	Kind  SpecialKind `json:"kind" validate:"oneof=discount customPrice extra"`
	Value types.Money `json:"value" validate:"min=0"`
	Note  string      `json:"note"`
}

// Customer is a subscriber assigned to a group and a package.
type Customer struct {
	ID        id.ID     `json:"id"`
	Name      string    `json:"name" validate:"required"`
	Phone     string    `json:"phone"`
	GroupID   id.ID     `json:"groupId"`
	PackageID id.ID     `json:"packageId"`
	Status    Status    `json:"status" validate:"oneof=active suspended"`
	Special   *Special  `json:"special,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Active reports whether the customer is billed each month.
func (c *Customer) Active() bool { return c.Status == StatusActive }

// IsExtra reports whether the customer is an extra who never takes a seat.
func (c *Customer) IsExtra() bool {
	return c.Special != nil && c.Special.Kind == SpecialExtra
}

// CountsAgainstGroup reports whether the customer occupies a group seat:
// active and not an extra.
func (c *Customer) CountsAgainstGroup() bool {
	return c.Active() && !c.IsExtra()
}

// Clone returns a deep copy.
func (c *Customer) Clone() *Customer {
	out := *c
	if c.Special != nil {
		sp := *c.Special
		out.Special = &sp
	}
	return &out
}

// CountInGroup returns how many customers occupy a seat in groupID,
// ignoring the customer identified by exclude.
func CountInGroup(customers []*Customer, groupID, exclude id.ID) int {
	n := 0
	for _, c := range customers {
		if c.GroupID != groupID || c.ID == exclude {
			continue
		}
		if c.CountsAgainstGroup() {
			n++
		}
	}
	return n
}

// Find returns the customer with the given ID, or nil.
func Find(customers []*Customer, customerID id.ID) *Customer {
	for _, c := range customers {
		if c.ID == customerID {
			return c
		}
	}
	return nil
}

// Filter narrows a customer listing.
type Filter struct {
	// Query matches a case-insensitive substring of the name or a
	// substring of the phone number.
	Query string
	// GroupID restricts the listing to one group when set.
	GroupID id.ID
}

// Match reports whether c passes the filter.
func (f Filter) Match(c *Customer) bool {
	if !f.GroupID.IsNil() && c.GroupID != f.GroupID {
		return false
	}
	q := strings.TrimSpace(f.Query)
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) ||
		strings.Contains(c.Phone, q)
}

// wireCustomer is the persisted layout. Special pricing is flattened into
// isSpecial/specialType/specialValue/specialNote.
type wireCustomer struct {
	ID           id.ID        `json:"id"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	GroupID      id.ID        `json:"groupId"`
	PackageID    id.ID        `json:"packageId"`
	Status       Status       `json:"status"`
	IsSpecial    bool         `json:"isSpecial"`
	SpecialType  *SpecialKind `json:"specialType"`
	SpecialValue types.Money  `json:"specialValue"`
	SpecialNote  string       `json:"specialNote"`
	CreatedAt    string       `json:"createdAt"`
}

// MarshalJSON implements json.Marshaler.
func (c Customer) MarshalJSON() ([]byte, error) {
	w := wireCustomer{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		GroupID:   c.GroupID,
		PackageID: c.PackageID,
		Status:    c.Status,
	}
	if !c.CreatedAt.IsZero() {
		w.CreatedAt = c.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if c.Special != nil {
		kind := c.Special.Kind
		w.IsSpecial = true
		w.SpecialType = &kind
		w.SpecialValue = c.Special.Value
		w.SpecialNote = c.Special.Note
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler. Special fields are ignored
// unless isSpecial is set; an unparseable createdAt reads as unset.
func (c *Customer) UnmarshalJSON(data []byte) error {
	var w wireCustomer
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Customer{
		ID:        w.ID,
		Name:      w.Name,
		Phone:     w.Phone,
		GroupID:   w.GroupID,
		PackageID: w.PackageID,
		Status:    w.Status,
	}
	if t, err := time.Parse(time.RFC3339Nano, w.CreatedAt); err == nil {
		c.CreatedAt = t
	}
	if w.IsSpecial {
		sp := &Special{Value: w.SpecialValue, Note: w.SpecialNote}
		if w.SpecialType != nil {
			sp.Kind = *w.SpecialType
		}
		c.Special = sp
	}
	return nil
}
