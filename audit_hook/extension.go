// Package audithook turns Tally lifecycle events into audit records.
//
// It defines a local Recorder interface so the package does not depend on
// any audit backend. Callers inject a RecorderFunc adapter at wiring time.
// Audit records live outside the book.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/payment"
	"github.com/xraph/tally/plugin"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnGroupSaved        = (*Extension)(nil)
	_ plugin.OnGroupDeleted      = (*Extension)(nil)
	_ plugin.OnPackageSaved      = (*Extension)(nil)
	_ plugin.OnPackageDeleted    = (*Extension)(nil)
	_ plugin.OnCustomerSaved     = (*Extension)(nil)
	_ plugin.OnCustomerDeleted   = (*Extension)(nil)
	_ plugin.OnCapacityExceeded  = (*Extension)(nil)
	_ plugin.OnPaymentsGenerated = (*Extension)(nil)
	_ plugin.OnPaymentPaid       = (*Extension)(nil)
	_ plugin.OnPaymentUnpaid     = (*Extension)(nil)
	_ plugin.OnReminderRecorded  = (*Extension)(nil)
	_ plugin.OnDocumentImported  = (*Extension)(nil)
	_ plugin.OnSaveFailed        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is one audited change to the book.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Tally lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnGroupSaved implements plugin.OnGroupSaved.
func (e *Extension) OnGroupSaved(ctx context.Context, g *catalog.Group, created bool) error {
	action := ActionGroupUpdated
	if created {
		action = ActionGroupCreated
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceGroup, g.ID.String(), CategoryCatalog, nil,
		"name", g.Name,
		"limit", g.Limit,
	)
}

// OnGroupDeleted implements plugin.OnGroupDeleted.
func (e *Extension) OnGroupDeleted(ctx context.Context, groupID id.ID) error {
	return e.record(ctx, ActionGroupDeleted, SeverityWarning, OutcomeSuccess,
		ResourceGroup, groupID.String(), CategoryCatalog, nil,
	)
}

// OnPackageSaved implements plugin.OnPackageSaved.
func (e *Extension) OnPackageSaved(ctx context.Context, p *catalog.Package, created bool) error {
	action := ActionPackageUpdated
	if created {
		action = ActionPackageCreated
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourcePackage, p.ID.String(), CategoryCatalog, nil,
		"name", p.Name,
		"price", p.Price.FormatMajor(),
	)
}

// OnPackageDeleted implements plugin.OnPackageDeleted.
func (e *Extension) OnPackageDeleted(ctx context.Context, packageID id.ID) error {
	return e.record(ctx, ActionPackageDeleted, SeverityWarning, OutcomeSuccess,
		ResourcePackage, packageID.String(), CategoryCatalog, nil,
	)
}

// ──────────────────────────────────────────────────
// Customer hooks
// ──────────────────────────────────────────────────

// OnCustomerSaved implements plugin.OnCustomerSaved.
func (e *Extension) OnCustomerSaved(ctx context.Context, c *customer.Customer, created bool) error {
	action := ActionCustomerUpdated
	if created {
		action = ActionCustomerCreated
	}
	kv := []any{
		"group_id", c.GroupID.String(),
		"package_id", c.PackageID.String(),
		"status", string(c.Status),
	}
	if c.Special != nil {
		kv = append(kv, "special", string(c.Special.Kind))
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceCustomer, c.ID.String(), CategoryCustomer, nil,
		kv...,
	)
}

// OnCustomerDeleted implements plugin.OnCustomerDeleted.
func (e *Extension) OnCustomerDeleted(ctx context.Context, customerID id.ID, removedPayments int) error {
	return e.record(ctx, ActionCustomerDeleted, SeverityWarning, OutcomeSuccess,
		ResourceCustomer, customerID.String(), CategoryCustomer, nil,
		"payments_removed", removedPayments,
	)
}

// OnCapacityExceeded implements plugin.OnCapacityExceeded.
func (e *Extension) OnCapacityExceeded(ctx context.Context, c *customer.Customer, usage catalog.Usage) error {
	return e.record(ctx, ActionCapacityExceeded, SeverityWarning, OutcomeFailure,
		ResourceGroup, usage.Group.ID.String(), CategoryCustomer, nil,
		"customer", c.Name,
		"used", usage.Used,
		"limit", usage.Group.Limit,
	)
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnPaymentsGenerated implements plugin.OnPaymentsGenerated.
func (e *Extension) OnPaymentsGenerated(ctx context.Context, month types.Month, created int, elapsed time.Duration) error {
	return e.record(ctx, ActionPaymentsGenerated, SeverityInfo, OutcomeSuccess,
		ResourcePayment, month.String(), CategoryBilling, nil,
		"created", created,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// OnPaymentPaid implements plugin.OnPaymentPaid.
func (e *Extension) OnPaymentPaid(ctx context.Context, p *payment.Payment) error {
	return e.record(ctx, ActionPaymentPaid, SeverityInfo, OutcomeSuccess,
		ResourcePayment, p.ID.String(), CategoryBilling, nil,
		"customer_id", p.CustomerID.String(),
		"month", p.Month.String(),
		"amount", p.Amount.FormatMajor(),
	)
}

// OnPaymentUnpaid implements plugin.OnPaymentUnpaid.
func (e *Extension) OnPaymentUnpaid(ctx context.Context, p *payment.Payment) error {
	return e.record(ctx, ActionPaymentUnpaid, SeverityWarning, OutcomeSuccess,
		ResourcePayment, p.ID.String(), CategoryBilling, nil,
		"customer_id", p.CustomerID.String(),
		"month", p.Month.String(),
	)
}

// ──────────────────────────────────────────────────
// Reminder and document hooks
// ──────────────────────────────────────────────────

// OnReminderRecorded implements plugin.OnReminderRecorded.
func (e *Extension) OnReminderRecorded(ctx context.Context, customerID id.ID, month types.Month, rec reminder.Record) error {
	return e.record(ctx, ActionReminderRecorded, SeverityInfo, OutcomeSuccess,
		ResourceReminder, reminder.Key(customerID, month), CategoryOutreach, nil,
		"count", rec.Count,
	)
}

// OnDocumentImported implements plugin.OnDocumentImported.
func (e *Extension) OnDocumentImported(ctx context.Context, doc *document.Document) error {
	return e.record(ctx, ActionDocumentImported, SeverityWarning, OutcomeSuccess,
		ResourceDocument, "", CategoryData, nil,
		"groups", len(doc.Groups),
		"packages", len(doc.Packages),
		"customers", len(doc.Customers),
		"payments", len(doc.Payments),
	)
}

// OnSaveFailed implements plugin.OnSaveFailed.
func (e *Extension) OnSaveFailed(ctx context.Context, op string, err error) error {
	return e.record(ctx, ActionSaveFailed, SeverityCritical, OutcomeFailure,
		ResourceDocument, "", CategoryData, err,
		"op", op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
