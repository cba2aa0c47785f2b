// Package plugin provides an extensible plugin system for Tally.
// Plugins implement Plugin plus any of the opt-in hook interfaces below;
// the Registry discovers them by type assertion at registration time.
//
// Hooks receive copies of the committed records, never the live book, and
// run after the change has been saved. A failing or slow hook is logged
// and never fails the operation that triggered it.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/payment"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called once the engine has loaded its book. t is the
// *tally.Tally that owns the registry.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, t interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnGroupSaved is called after a group is created or replaced.
type OnGroupSaved interface {
	Plugin
	OnGroupSaved(ctx context.Context, g *catalog.Group, created bool) error
}

// OnGroupDeleted is called after a group is removed.
type OnGroupDeleted interface {
	Plugin
	OnGroupDeleted(ctx context.Context, groupID id.ID) error
}

// OnPackageSaved is called after a package is created or replaced.
type OnPackageSaved interface {
	Plugin
	OnPackageSaved(ctx context.Context, p *catalog.Package, created bool) error
}

// OnPackageDeleted is called after a package is removed.
type OnPackageDeleted interface {
	Plugin
	OnPackageDeleted(ctx context.Context, packageID id.ID) error
}

// ──────────────────────────────────────────────────
// Customer hooks
// ──────────────────────────────────────────────────

// OnCustomerSaved is called after a customer is created or replaced.
type OnCustomerSaved interface {
	Plugin
	OnCustomerSaved(ctx context.Context, c *customer.Customer, created bool) error
}

// OnCustomerDeleted is called after a customer and their payments are
// removed.
type OnCustomerDeleted interface {
	Plugin
	OnCustomerDeleted(ctx context.Context, customerID id.ID, removedPayments int) error
}

// OnCapacityExceeded is called when an upsert is held back because the
// target group is full. The customer has not been saved.
type OnCapacityExceeded interface {
	Plugin
	OnCapacityExceeded(ctx context.Context, c *customer.Customer, usage catalog.Usage) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnPaymentsGenerated is called after a monthly generation run.
type OnPaymentsGenerated interface {
	Plugin
	OnPaymentsGenerated(ctx context.Context, month types.Month, created int, elapsed time.Duration) error
}

// OnPaymentPaid is called after a payment is marked paid.
type OnPaymentPaid interface {
	Plugin
	OnPaymentPaid(ctx context.Context, p *payment.Payment) error
}

// OnPaymentUnpaid is called after a payment is marked unpaid.
type OnPaymentUnpaid interface {
	Plugin
	OnPaymentUnpaid(ctx context.Context, p *payment.Payment) error
}

// ──────────────────────────────────────────────────
// Reminder hooks
// ──────────────────────────────────────────────────

// OnReminderRecorded is called after an outreach attempt is recorded.
type OnReminderRecorded interface {
	Plugin
	OnReminderRecorded(ctx context.Context, customerID id.ID, month types.Month, rec reminder.Record) error
}

// ──────────────────────────────────────────────────
// Document hooks
// ──────────────────────────────────────────────────

// OnDocumentSaved is called after every successful save.
type OnDocumentSaved interface {
	Plugin
	OnDocumentSaved(ctx context.Context, op string, elapsed time.Duration) error
}

// OnSaveFailed is called when the store rejects a save. The in-memory
// book is left as it was.
type OnSaveFailed interface {
	Plugin
	OnSaveFailed(ctx context.Context, op string, err error) error
}

// OnDocumentImported is called after the whole book has been replaced by
// an imported snapshot.
type OnDocumentImported interface {
	Plugin
	OnDocumentImported(ctx context.Context, doc *document.Document) error
}
