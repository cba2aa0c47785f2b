// Package observability provides a metrics plugin for Tally that counts
// lifecycle events through a MetricFactory.
package observability

import (
	"context"
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

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnGroupSaved        = (*MetricsExtension)(nil)
	_ plugin.OnGroupDeleted      = (*MetricsExtension)(nil)
	_ plugin.OnPackageSaved      = (*MetricsExtension)(nil)
	_ plugin.OnPackageDeleted    = (*MetricsExtension)(nil)
	_ plugin.OnCustomerSaved     = (*MetricsExtension)(nil)
	_ plugin.OnCustomerDeleted   = (*MetricsExtension)(nil)
	_ plugin.OnCapacityExceeded  = (*MetricsExtension)(nil)
	_ plugin.OnPaymentsGenerated = (*MetricsExtension)(nil)
	_ plugin.OnPaymentPaid       = (*MetricsExtension)(nil)
	_ plugin.OnPaymentUnpaid     = (*MetricsExtension)(nil)
	_ plugin.OnReminderRecorded  = (*MetricsExtension)(nil)
	_ plugin.OnDocumentSaved     = (*MetricsExtension)(nil)
	_ plugin.OnSaveFailed        = (*MetricsExtension)(nil)
	_ plugin.OnDocumentImported  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records book-wide lifecycle metrics.
// Register it as a Tally plugin to track catalog, billing and outreach activity.
type MetricsExtension struct {
	factory MetricFactory

	// Catalog metrics
	GroupCreated   Counter
	GroupUpdated   Counter
	GroupDeleted   Counter
	PackageCreated Counter
	PackageUpdated Counter
	PackageDeleted Counter

	// Customer metrics
	CustomerCreated  Counter
	CustomerUpdated  Counter
	CustomerDeleted  Counter
	CapacityExceeded Counter

	// Ledger metrics
	PaymentsGenerated   Counter
	GenerationLatency   Histogram
	PaymentsPaid        Counter
	PaymentsUnpaid      Counter
	AmountCollected     Counter
	PaymentsCascaded    Counter
	RemindersRecorded   Counter
	ReminderAttempts    Histogram
	DocumentsImported   Counter
	DocumentSaves       Counter
	DocumentSaveLatency Histogram

	// Error metrics
	StoreErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use NewPrometheusFactory to back it with a Prometheus registry.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		GroupCreated:   factory.Counter("tally.group.created"),
		GroupUpdated:   factory.Counter("tally.group.updated"),
		GroupDeleted:   factory.Counter("tally.group.deleted"),
		PackageCreated: factory.Counter("tally.package.created"),
		PackageUpdated: factory.Counter("tally.package.updated"),
		PackageDeleted: factory.Counter("tally.package.deleted"),

		CustomerCreated:  factory.Counter("tally.customer.created"),
		CustomerUpdated:  factory.Counter("tally.customer.updated"),
		CustomerDeleted:  factory.Counter("tally.customer.deleted"),
		CapacityExceeded: factory.Counter("tally.capacity.exceeded"),

		PaymentsGenerated:   factory.Counter("tally.payments.generated"),
		GenerationLatency:   factory.Histogram("tally.payments.generation.latency_ms"),
		PaymentsPaid:        factory.Counter("tally.payments.paid"),
		PaymentsUnpaid:      factory.Counter("tally.payments.unpaid"),
		AmountCollected:     factory.Counter("tally.payments.collected_amount"),
		PaymentsCascaded:    factory.Counter("tally.payments.cascaded"),
		RemindersRecorded:   factory.Counter("tally.reminders.recorded"),
		ReminderAttempts:    factory.Histogram("tally.reminders.attempts"),
		DocumentsImported:   factory.Counter("tally.document.imported"),
		DocumentSaves:       factory.Counter("tally.document.saves"),
		DocumentSaveLatency: factory.Histogram("tally.document.save.latency_ms"),

		StoreErrors: factory.Counter("tally.store.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnGroupSaved implements plugin.OnGroupSaved.
func (m *MetricsExtension) OnGroupSaved(_ context.Context, _ *catalog.Group, created bool) error {
	if created {
		m.GroupCreated.Inc()
	} else {
		m.GroupUpdated.Inc()
	}
	return nil
}

// OnGroupDeleted implements plugin.OnGroupDeleted.
func (m *MetricsExtension) OnGroupDeleted(_ context.Context, _ id.ID) error {
	m.GroupDeleted.Inc()
	return nil
}

// OnPackageSaved implements plugin.OnPackageSaved.
func (m *MetricsExtension) OnPackageSaved(_ context.Context, _ *catalog.Package, created bool) error {
	if created {
		m.PackageCreated.Inc()
	} else {
		m.PackageUpdated.Inc()
	}
	return nil
}

// OnPackageDeleted implements plugin.OnPackageDeleted.
func (m *MetricsExtension) OnPackageDeleted(_ context.Context, _ id.ID) error {
	m.PackageDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Customer hooks
// ──────────────────────────────────────────────────

// OnCustomerSaved implements plugin.OnCustomerSaved.
func (m *MetricsExtension) OnCustomerSaved(_ context.Context, _ *customer.Customer, created bool) error {
	if created {
		m.CustomerCreated.Inc()
	} else {
		m.CustomerUpdated.Inc()
	}
	return nil
}

// OnCustomerDeleted implements plugin.OnCustomerDeleted.
func (m *MetricsExtension) OnCustomerDeleted(_ context.Context, _ id.ID, removedPayments int) error {
	m.CustomerDeleted.Inc()
	m.PaymentsCascaded.Add(float64(removedPayments))
	return nil
}

// OnCapacityExceeded implements plugin.OnCapacityExceeded.
func (m *MetricsExtension) OnCapacityExceeded(_ context.Context, _ *customer.Customer, _ catalog.Usage) error {
	m.CapacityExceeded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnPaymentsGenerated implements plugin.OnPaymentsGenerated.
func (m *MetricsExtension) OnPaymentsGenerated(_ context.Context, _ types.Month, created int, elapsed time.Duration) error {
	m.PaymentsGenerated.Add(float64(created))
	m.GenerationLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnPaymentPaid implements plugin.OnPaymentPaid.
func (m *MetricsExtension) OnPaymentPaid(_ context.Context, p *payment.Payment) error {
	m.PaymentsPaid.Inc()
	m.AmountCollected.Add(p.Amount.Major())
	return nil
}

// OnPaymentUnpaid implements plugin.OnPaymentUnpaid.
func (m *MetricsExtension) OnPaymentUnpaid(_ context.Context, _ *payment.Payment) error {
	m.PaymentsUnpaid.Inc()
	return nil
}

// OnReminderRecorded implements plugin.OnReminderRecorded.
func (m *MetricsExtension) OnReminderRecorded(_ context.Context, _ id.ID, _ types.Month, rec reminder.Record) error {
	m.RemindersRecorded.Inc()
	m.ReminderAttempts.Observe(float64(rec.Count))
	return nil
}

// ──────────────────────────────────────────────────
// Document hooks
// ──────────────────────────────────────────────────

// OnDocumentSaved implements plugin.OnDocumentSaved.
func (m *MetricsExtension) OnDocumentSaved(_ context.Context, _ string, elapsed time.Duration) error {
	m.DocumentSaves.Inc()
	m.DocumentSaveLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnSaveFailed implements plugin.OnSaveFailed.
func (m *MetricsExtension) OnSaveFailed(_ context.Context, _ string, _ error) error {
	m.StoreErrors.Inc()
	return nil
}

// OnDocumentImported implements plugin.OnDocumentImported.
func (m *MetricsExtension) OnDocumentImported(_ context.Context, _ *document.Document) error {
	m.DocumentsImported.Inc()
	return nil
}
