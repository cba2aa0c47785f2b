package reminder_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tally/id"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/types"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "1700000000000-2024-03", reminder.Key(id.Legacy("1700000000000"), "2024-03"))
}

func TestBump(t *testing.T) {
	day1 := types.Date{Year: 2024, Month: time.March, Day: 1}
	day2 := types.Date{Year: 2024, Month: time.March, Day: 9}

	r := reminder.Record{}.Bump(day1).Bump(day2)
	assert.Equal(t, 2, r.Count)
	assert.Equal(t, day2, r.Date)
}

func TestWhatsAppURL(t *testing.T) {
	msg := reminder.Message("2024-03", types.Money(15000), "egp")
	assert.Contains(t, msg, "2024-03")
	assert.Contains(t, msg, "E£150.00")

	link := reminder.WhatsAppURL(reminder.DefaultDialPrefix, "010 0123-4567", msg)
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/201001234567", u.Path)
	assert.Equal(t, msg, u.Query().Get("text"))
}
