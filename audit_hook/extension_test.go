package audithook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tally"
	audithook "github.com/xraph/tally/audit_hook"
	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/reminder"
	"github.com/xraph/tally/store/memory"
)

type sink struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (s *sink) Record(_ context.Context, e *audithook.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *sink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

func TestAuditTrailFollowsEngine(t *testing.T) {
	ctx := context.Background()
	rec := &sink{}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	eng := tally.New(memory.New(),
		tally.WithLogger(quiet),
		tally.WithPlugin(audithook.New(rec, audithook.WithLogger(quiet))),
	)
	require.NoError(t, eng.Start(ctx))
	defer eng.Stop()

	g, err := eng.UpsertGroup(ctx, &catalog.Group{Name: "North", Limit: 1})
	require.NoError(t, err)
	p, err := eng.UpsertPackage(ctx, &catalog.Package{Name: "Basic", Price: tally.FromMajor(50)})
	require.NoError(t, err)

	_, err = eng.UpsertCustomer(ctx, &customer.Customer{Name: "A", GroupID: g.ID, PackageID: p.ID})
	require.NoError(t, err)
	res, err := eng.UpsertCustomer(ctx, &customer.Customer{Name: "B", GroupID: g.ID, PackageID: p.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Warning)

	_, err = eng.GenerateForMonth(ctx, "2024-05")
	require.NoError(t, err)

	assert.Equal(t, []string{
		audithook.ActionGroupCreated,
		audithook.ActionPackageCreated,
		audithook.ActionCustomerCreated,
		audithook.ActionCapacityExceeded,
		audithook.ActionPaymentsGenerated,
	}, rec.actions())
}

func TestEnabledActionsFilter(t *testing.T) {
	rec := &sink{}
	ext := audithook.New(rec, audithook.WithEnabledActions(audithook.ActionSaveFailed))

	ctx := context.Background()
	require.NoError(t, ext.OnGroupSaved(ctx, &catalog.Group{Name: "G"}, true))
	require.NoError(t, ext.OnSaveFailed(ctx, "group.upsert", errors.New("disk full")))

	require.Len(t, rec.events, 1)
	evt := rec.events[0]
	assert.Equal(t, audithook.SeverityCritical, evt.Severity)
	assert.Equal(t, "disk full", evt.Reason)
	assert.Equal(t, "group.upsert", evt.Metadata["op"])
}

func TestDisabledActionsFilter(t *testing.T) {
	rec := &sink{}
	ext := audithook.New(rec, audithook.WithDisabledActions(audithook.ActionPaymentsGenerated))

	ctx := context.Background()
	require.NoError(t, ext.OnPaymentsGenerated(ctx, "2024-05", 3, time.Millisecond))
	require.NoError(t, ext.OnGroupDeleted(ctx, tally.ID{}))

	assert.Equal(t, []string{audithook.ActionGroupDeleted}, rec.actions())
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	failing := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	})
	ext := audithook.New(failing, audithook.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	err := ext.OnCustomerDeleted(context.Background(), tally.ID{}, 2)
	assert.NoError(t, err)
}

func TestCategoryFilter(t *testing.T) {
	rec := &sink{}
	ext := audithook.New(rec, audithook.WithCategories(audithook.CategoryBilling))

	ctx := context.Background()
	require.NoError(t, ext.OnGroupDeleted(ctx, tally.ID{}))
	require.NoError(t, ext.OnPaymentsGenerated(ctx, "2024-05", 2, time.Millisecond))
	require.NoError(t, ext.OnReminderRecorded(ctx, tally.ID{}, "2024-05", reminder.Record{Count: 1}))

	assert.Equal(t, []string{audithook.ActionPaymentsGenerated}, rec.actions())
}
