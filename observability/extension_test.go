package observability_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tally"
	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/observability"
	"github.com/xraph/tally/store/memory"
)

func TestPromName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tally.group.created", "tally_group_created"},
		{"tally.document.save.latency_ms", "tally_document_save_latency_ms"},
		{"a-b.c", "a_b_c"},
	}
	for _, tt := range tests {
		if got := observability.PromName(tt.in); got != tt.want {
			t.Errorf("PromName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFactoryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	f1 := observability.NewPrometheusFactory(reg)
	f2 := observability.NewPrometheusFactory(reg)

	c1 := f1.Counter("tally.group.created")
	c2 := f2.Counter("tally.group.created")
	c1.Inc()
	c2.Inc()

	assert.Same(t, c1, f1.Counter("tally.group.created"))
	assert.Equal(t, 2.0, testutil.ToFloat64(c1.(prometheus.Counter)))
}

func TestMetricsFollowEngine(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))

	eng := tally.New(memory.New(),
		tally.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		tally.WithPlugin(metrics),
	)
	require.NoError(t, eng.Start(ctx))
	defer eng.Stop()

	g, err := eng.UpsertGroup(ctx, &catalog.Group{Name: "North", Limit: 1})
	require.NoError(t, err)
	p, err := eng.UpsertPackage(ctx, &catalog.Package{Name: "Basic", Price: tally.FromMajor(40)})
	require.NoError(t, err)
	a, err := eng.UpsertCustomer(ctx, &customer.Customer{Name: "A", GroupID: g.ID, PackageID: p.ID})
	require.NoError(t, err)
	_, err = eng.UpsertCustomer(ctx, &customer.Customer{Name: "B", GroupID: g.ID, PackageID: p.ID})
	require.NoError(t, err)

	_, err = eng.GenerateForMonth(ctx, "2024-05")
	require.NoError(t, err)
	st, err := eng.PaymentsForMonth(ctx, "2024-05")
	require.NoError(t, err)
	_, err = eng.MarkPaid(ctx, st.Lines[0].Payment.ID)
	require.NoError(t, err)
	_, err = eng.RecordOutreach(ctx, a.Customer.ID, "2024-05")
	require.NoError(t, err)
	require.NoError(t, eng.DeleteCustomer(ctx, a.Customer.ID))

	counter := func(c observability.Counter) float64 {
		return testutil.ToFloat64(c.(prometheus.Counter))
	}
	assert.Equal(t, 1.0, counter(metrics.GroupCreated))
	assert.Equal(t, 1.0, counter(metrics.CustomerCreated))
	assert.Equal(t, 1.0, counter(metrics.CapacityExceeded))
	assert.Equal(t, 1.0, counter(metrics.PaymentsGenerated))
	assert.Equal(t, 1.0, counter(metrics.PaymentsPaid))
	assert.Equal(t, 40.0, counter(metrics.AmountCollected))
	assert.Equal(t, 1.0, counter(metrics.RemindersRecorded))
	assert.Equal(t, 1.0, counter(metrics.PaymentsCascaded))
	assert.Equal(t, 7.0, counter(metrics.DocumentSaves))

	n, err := testutil.GatherAndCount(reg, "tally_customer_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreErrorsCounted(t *testing.T) {
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(prometheus.NewRegistry()))
	require.NoError(t, metrics.OnSaveFailed(context.Background(), "save", errors.New("disk full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreErrors.(prometheus.Counter)))
}

func TestDocumentSaveLatencyObserved(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetricsExtension(observability.NewPrometheusFactory(reg))
	require.NoError(t, metrics.OnDocumentSaved(context.Background(), "book", 12*time.Millisecond))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DocumentSaves.(prometheus.Counter)))
	n, err := testutil.GatherAndCount(reg, "tally_document_save_latency_ms")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
