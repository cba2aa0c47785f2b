package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/document"
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/payment"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/types"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and dispatches hooks to the
// ones that implement them. Hook lists are cached at registration.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit              []OnInit
	onShutdown          []OnShutdown
	onGroupSaved        []OnGroupSaved
	onGroupDeleted      []OnGroupDeleted
	onPackageSaved      []OnPackageSaved
	onPackageDeleted    []OnPackageDeleted
	onCustomerSaved     []OnCustomerSaved
	onCustomerDeleted   []OnCustomerDeleted
	onCapacityExceeded  []OnCapacityExceeded
	onPaymentsGenerated []OnPaymentsGenerated
	onPaymentPaid       []OnPaymentPaid
	onPaymentUnpaid     []OnPaymentUnpaid
	onReminderRecorded  []OnReminderRecorded
	onDocumentSaved     []OnDocumentSaved
	onSaveFailed        []OnSaveFailed
	onDocumentImported  []OnDocumentImported
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout. Non-positive values are ignored.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
		hooks = append(hooks, "OnInit")
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
		hooks = append(hooks, "OnShutdown")
	}
	if v, ok := p.(OnGroupSaved); ok {
		r.onGroupSaved = append(r.onGroupSaved, v)
		hooks = append(hooks, "OnGroupSaved")
	}
	if v, ok := p.(OnGroupDeleted); ok {
		r.onGroupDeleted = append(r.onGroupDeleted, v)
		hooks = append(hooks, "OnGroupDeleted")
	}
	if v, ok := p.(OnPackageSaved); ok {
		r.onPackageSaved = append(r.onPackageSaved, v)
		hooks = append(hooks, "OnPackageSaved")
	}
	if v, ok := p.(OnPackageDeleted); ok {
		r.onPackageDeleted = append(r.onPackageDeleted, v)
		hooks = append(hooks, "OnPackageDeleted")
	}
	if v, ok := p.(OnCustomerSaved); ok {
		r.onCustomerSaved = append(r.onCustomerSaved, v)
		hooks = append(hooks, "OnCustomerSaved")
	}
	if v, ok := p.(OnCustomerDeleted); ok {
		r.onCustomerDeleted = append(r.onCustomerDeleted, v)
		hooks = append(hooks, "OnCustomerDeleted")
	}
	if v, ok := p.(OnCapacityExceeded); ok {
		r.onCapacityExceeded = append(r.onCapacityExceeded, v)
		hooks = append(hooks, "OnCapacityExceeded")
	}
	if v, ok := p.(OnPaymentsGenerated); ok {
		r.onPaymentsGenerated = append(r.onPaymentsGenerated, v)
		hooks = append(hooks, "OnPaymentsGenerated")
	}
	if v, ok := p.(OnPaymentPaid); ok {
		r.onPaymentPaid = append(r.onPaymentPaid, v)
		hooks = append(hooks, "OnPaymentPaid")
	}
	if v, ok := p.(OnPaymentUnpaid); ok {
		r.onPaymentUnpaid = append(r.onPaymentUnpaid, v)
		hooks = append(hooks, "OnPaymentUnpaid")
	}
	if v, ok := p.(OnReminderRecorded); ok {
		r.onReminderRecorded = append(r.onReminderRecorded, v)
		hooks = append(hooks, "OnReminderRecorded")
	}
	if v, ok := p.(OnDocumentSaved); ok {
		r.onDocumentSaved = append(r.onDocumentSaved, v)
		hooks = append(hooks, "OnDocumentSaved")
	}
	if v, ok := p.(OnSaveFailed); ok {
		r.onSaveFailed = append(r.onSaveFailed, v)
		hooks = append(hooks, "OnSaveFailed")
	}
	if v, ok := p.(OnDocumentImported); ok {
		r.onDocumentImported = append(r.onDocumentImported, v)
		hooks = append(hooks, "OnDocumentImported")
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"hooks", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, t interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnInit", func() error { return p.OnInit(ctx, t) })
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnShutdown", func() error { return p.OnShutdown(ctx) })
	}
}

// EmitGroupSaved emits a group saved event.
func (r *Registry) EmitGroupSaved(ctx context.Context, g *catalog.Group, created bool) {
	r.mu.RLock()
	plugins := r.onGroupSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnGroupSaved", func() error { return p.OnGroupSaved(ctx, g, created) })
	}
}

// EmitGroupDeleted emits a group deleted event.
func (r *Registry) EmitGroupDeleted(ctx context.Context, groupID id.ID) {
	r.mu.RLock()
	plugins := r.onGroupDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnGroupDeleted", func() error { return p.OnGroupDeleted(ctx, groupID) })
	}
}

// EmitPackageSaved emits a package saved event.
func (r *Registry) EmitPackageSaved(ctx context.Context, pkg *catalog.Package, created bool) {
	r.mu.RLock()
	plugins := r.onPackageSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPackageSaved", func() error { return p.OnPackageSaved(ctx, pkg, created) })
	}
}

// EmitPackageDeleted emits a package deleted event.
func (r *Registry) EmitPackageDeleted(ctx context.Context, packageID id.ID) {
	r.mu.RLock()
	plugins := r.onPackageDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPackageDeleted", func() error { return p.OnPackageDeleted(ctx, packageID) })
	}
}

// EmitCustomerSaved emits a customer saved event.
func (r *Registry) EmitCustomerSaved(ctx context.Context, c *customer.Customer, created bool) {
	r.mu.RLock()
	plugins := r.onCustomerSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnCustomerSaved", func() error { return p.OnCustomerSaved(ctx, c, created) })
	}
}

// EmitCustomerDeleted emits a customer deleted event.
func (r *Registry) EmitCustomerDeleted(ctx context.Context, customerID id.ID, removedPayments int) {
	r.mu.RLock()
	plugins := r.onCustomerDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnCustomerDeleted", func() error {
			return p.OnCustomerDeleted(ctx, customerID, removedPayments)
		})
	}
}

// EmitCapacityExceeded emits a capacity exceeded event.
func (r *Registry) EmitCapacityExceeded(ctx context.Context, c *customer.Customer, usage catalog.Usage) {
	r.mu.RLock()
	plugins := r.onCapacityExceeded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnCapacityExceeded", func() error { return p.OnCapacityExceeded(ctx, c, usage) })
	}
}

// EmitPaymentsGenerated emits a monthly generation event.
func (r *Registry) EmitPaymentsGenerated(ctx context.Context, month types.Month, created int, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onPaymentsGenerated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPaymentsGenerated", func() error {
			return p.OnPaymentsGenerated(ctx, month, created, elapsed)
		})
	}
}

// EmitPaymentPaid emits a payment paid event.
func (r *Registry) EmitPaymentPaid(ctx context.Context, pay *payment.Payment) {
	r.mu.RLock()
	plugins := r.onPaymentPaid
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPaymentPaid", func() error { return p.OnPaymentPaid(ctx, pay) })
	}
}

// EmitPaymentUnpaid emits a payment unpaid event.
func (r *Registry) EmitPaymentUnpaid(ctx context.Context, pay *payment.Payment) {
	r.mu.RLock()
	plugins := r.onPaymentUnpaid
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnPaymentUnpaid", func() error { return p.OnPaymentUnpaid(ctx, pay) })
	}
}

// EmitReminderRecorded emits a reminder recorded event.
func (r *Registry) EmitReminderRecorded(ctx context.Context, customerID id.ID, month types.Month, rec reminder.Record) {
	r.mu.RLock()
	plugins := r.onReminderRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnReminderRecorded", func() error {
			return p.OnReminderRecorded(ctx, customerID, month, rec)
		})
	}
}

// EmitDocumentSaved emits a document saved event.
func (r *Registry) EmitDocumentSaved(ctx context.Context, op string, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onDocumentSaved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnDocumentSaved", func() error { return p.OnDocumentSaved(ctx, op, elapsed) })
	}
}

// EmitSaveFailed emits a save failed event.
func (r *Registry) EmitSaveFailed(ctx context.Context, op string, err error) {
	r.mu.RLock()
	plugins := r.onSaveFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnSaveFailed", func() error { return p.OnSaveFailed(ctx, op, err) })
	}
}

// EmitDocumentImported emits a document imported event.
func (r *Registry) EmitDocumentImported(ctx context.Context, doc *document.Document) {
	r.mu.RLock()
	plugins := r.onDocumentImported
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, p.Name(), "OnDocumentImported", func() error { return p.OnDocumentImported(ctx, doc) })
	}
}

// dispatch runs one hook and logs its failure.
func (r *Registry) dispatch(ctx context.Context, pluginName, hook string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never hold up the book.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
