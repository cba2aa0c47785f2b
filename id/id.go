// Package id defines TypeID-based identity types for all Tally entities.
//
// New entities get a prefix-qualified TypeID ("cust_01h2xcejqtf2nbrexx3vqjhp41").
// Books imported from older tools carry opaque identifiers such as
// millisecond timestamps ("1700000000000"); those are kept verbatim so that
// references between records keep resolving after an import.
package id

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all Tally entity types.
const (
	PrefixGroup    Prefix = "grp"  // Capacity-limited group
	PrefixPackage  Prefix = "pkg"  // Priced package
	PrefixCustomer Prefix = "cust" // Subscriber
	PrefixPayment  Prefix = "pay"  // Monthly payment obligation
)

// ID is the primary identifier type for all Tally entities.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner  typeid.TypeID
	legacy string
	valid  bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "grp_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not a valid TypeID.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ParseAny accepts either a TypeID or an opaque legacy identifier.
// Only the empty string (after trimming) is rejected.
func ParseAny(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	if parsed, err := Parse(s); err == nil {
		return parsed, nil
	}

	return ID{legacy: s, valid: true}, nil
}

// Legacy wraps an opaque identifier without attempting TypeID parsing.
func Legacy(s string) ID {
	if s == "" {
		return Nil
	}
	return ID{legacy: s, valid: true}
}

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewGroupID generates a new unique group ID.
func NewGroupID() ID { return New(PrefixGroup) }

// NewPackageID generates a new unique package ID.
func NewPackageID() ID { return New(PrefixPackage) }

// NewCustomerID generates a new unique customer ID.
func NewCustomerID() ID { return New(PrefixCustomer) }

// NewPaymentID generates a new unique payment ID.
func NewPaymentID() ID { return New(PrefixPayment) }

// ParseGroupID parses a string and validates the "grp" prefix.
func ParseGroupID(s string) (ID, error) { return ParseWithPrefix(s, PrefixGroup) }

// ParsePackageID parses a string and validates the "pkg" prefix.
func ParsePackageID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPackage) }

// ParseCustomerID parses a string and validates the "cust" prefix.
func ParseCustomerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCustomer) }

// ParsePaymentID parses a string and validates the "pay" prefix.
func ParsePaymentID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPayment) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the identifier as stored. Returns an empty string for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	if i.legacy != "" {
		return i.legacy
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID. Legacy IDs have none.
func (i ID) Prefix() Prefix {
	if !i.valid || i.legacy != "" {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// IsLegacy reports whether this ID was imported as an opaque identifier.
func (i ID) IsLegacy() bool {
	return i.valid && i.legacy != ""
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Any non-empty value is
// accepted; values that are not TypeIDs are kept as legacy identifiers.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := ParseAny(string(data))
	if err != nil {
		*i = Nil

		return nil //nolint:nilerr // whitespace-only reads as an absent reference
	}

	*i = parsed

	return nil
}

// UnmarshalJSON accepts strings, bare numbers and null. Older books stored
// record identifiers as numbers and references to them as strings.
func (i *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*i = Nil
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		return i.UnmarshalText([]byte(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id: cannot decode %s", data)
		}
		*i = Legacy(n.String())
		return nil
	}
}
