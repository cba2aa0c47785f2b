// Package reminder tracks follow-up attempts for unpaid months and builds
// the outreach link used to contact the customer.
package reminder

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/xraph/tally/id"
	"github.com/xraph/tally/types"
)

// DefaultDialPrefix is prepended to local phone numbers when building links.
const DefaultDialPrefix = "2"

// Record counts outreach attempts for one (customer, month) pair.
// Records are created on first outreach and only ever incremented.
type Record struct {
	Count int        `json:"count"`
	Date  types.Date `json:"date"`
}

// Key returns the book key for a (customer, month) pair: "<customerId>-<month>".
func Key(customerID id.ID, month types.Month) string {
	return customerID.String() + "-" + string(month)
}

// Bump returns r with one more attempt made on day.
func (r Record) Bump(day types.Date) Record {
	return Record{Count: r.Count + 1, Date: day}
}

// Message builds the reminder text for an unpaid month.
func Message(month types.Month, amount types.Money, currency string) string {
	return fmt.Sprintf("Dear customer, please settle your subscription for %s. Amount due: %s.",
		month, amount.Format(currency))
}

// WhatsAppURL returns a wa.me deep link that opens a chat with phone and
// pre-fills text. Non-digit characters are dropped from phone.
func WhatsAppURL(dialPrefix, phone, text string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	u := url.URL{
		Scheme:   "https",
		Host:     "wa.me",
		Path:     "/" + dialPrefix + digits,
		RawQuery: url.Values{"text": {text}}.Encode(),
	}
	return u.String()
}
