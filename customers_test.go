package tally_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tally"
	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/id"
	"github.com/xraph/tally/types"
)

func TestCatalogValidation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)

	tests := []struct {
		name  string
		run   func() error
		field string
	}{
		{
			name:  "blank group name",
			run:   func() error { _, err := eng.UpsertGroup(ctx, &catalog.Group{Name: "  ", Limit: 1}); return err },
			field: "groupName",
		},
		{
			name:  "negative limit",
			run:   func() error { _, err := eng.UpsertGroup(ctx, &catalog.Group{Name: "G", Limit: -1}); return err },
			field: "groupLimit",
		},
		{
			name: "negative price",
			run: func() error {
				_, err := eng.UpsertPackage(ctx, &catalog.Package{Name: "P", Price: types.FromMajor(-5)})
				return err
			},
			field: "packagePrice",
		},
		{
			name: "unknown special kind",
			run: func() error {
				_, err := eng.UpsertCustomer(ctx, &customer.Customer{
					Name:    "Ali",
					Special: &customer.Special{Kind: "free"},
				})
				return err
			},
			field: "kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)
			assert.True(t, tally.IsValidation(err))

			var ve tally.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	doc, err := eng.Document()
	require.NoError(t, err)
	assert.Empty(t, doc.Groups)
	assert.Empty(t, doc.Packages)
	assert.Empty(t, doc.Customers)
}

func TestUpsertReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)

	a, err := eng.UpsertGroup(ctx, &catalog.Group{Name: "A", Limit: 1})
	require.NoError(t, err)
	_, err = eng.UpsertGroup(ctx, &catalog.Group{Name: "B", Limit: 1})
	require.NoError(t, err)

	a.Name = "A2"
	_, err = eng.UpsertGroup(ctx, a)
	require.NoError(t, err)

	groups, err := eng.Groups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "A2", groups[0].Name)
	assert.Equal(t, a.ID, groups[0].ID)

	// An ID the book has never seen is treated as new.
	ghost := id.NewGroupID()
	c, err := eng.UpsertGroup(ctx, &catalog.Group{ID: ghost, Name: "C"})
	require.NoError(t, err)
	assert.NotEqual(t, ghost, c.ID)
}

func TestIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	g, p := seedCatalog(t, eng, 100, 10)

	seen := map[id.ID]bool{g.ID: true, p.ID: true}
	for i := 0; i < 20; i++ {
		c := addCustomer(t, eng, &customer.Customer{Name: "C", GroupID: g.ID, PackageID: p.ID})
		assert.False(t, seen[c.ID])
		seen[c.ID] = true
	}
	_, err := eng.GenerateForMonth(ctx, "2024-05")
	require.NoError(t, err)

	st, err := eng.PaymentsForMonth(ctx, "2024-05")
	require.NoError(t, err)
	for _, line := range st.Lines {
		assert.False(t, seen[line.Payment.ID])
		seen[line.Payment.ID] = true
	}
}

func TestCapacityWarning(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	g, p := seedCatalog(t, eng, 1, 100)

	first := addCustomer(t, eng, &customer.Customer{Name: "First", GroupID: g.ID, PackageID: p.ID})

	res, err := eng.UpsertCustomer(ctx, &customer.Customer{Name: "Second", GroupID: g.ID, PackageID: p.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Warning)
	assert.Nil(t, res.Customer)
	assert.Equal(t, 1, res.Warning.Usage.Used)
	assert.Equal(t, "group \"North\" is full (1 / 1)", res.Warning.String())

	customers, err := eng.ListCustomers(ctx, customer.Filter{})
	require.NoError(t, err)
	assert.Len(t, customers, 1, "nothing is saved until confirmed")

	confirmed, err := res.Warning.Confirm(ctx)
	require.NoError(t, err)
	require.NotNil(t, confirmed.Customer)
	assert.True(t, confirmed.Created)

	usage, err := eng.GroupUsage(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, "2 / 1", usage[0].String())

	// Editing a counted customer excludes them from the count, but the
	// group is still over its limit.
	first.Phone = "0123"
	res, err = eng.UpsertCustomer(ctx, first)
	require.NoError(t, err)
	assert.NotNil(t, res.Warning)
}

func TestCapacityIgnoresExtraAndSuspended(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	g, p := seedCatalog(t, eng, 1, 100)

	addCustomer(t, eng, &customer.Customer{Name: "Seat", GroupID: g.ID, PackageID: p.ID})

	tests := []struct {
		name string
		in   *customer.Customer
	}{
		{
			name: "extra",
			in: &customer.Customer{Name: "Extra", GroupID: g.ID, PackageID: p.ID,
				Special: &customer.Special{Kind: customer.SpecialExtra}},
		},
		{
			name: "suspended",
			in:   &customer.Customer{Name: "Paused", GroupID: g.ID, PackageID: p.ID, Status: customer.StatusSuspended},
		},
		{
			name: "no such group",
			in:   &customer.Customer{Name: "Lost", GroupID: id.NewGroupID(), PackageID: p.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := eng.UpsertCustomer(ctx, tt.in)
			require.NoError(t, err)
			assert.Nil(t, res.Warning)
			require.NotNil(t, res.Customer)
		})
	}

	usage, err := eng.GroupUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, usage[0].Used)
}

func TestReactivationChecksCapacity(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	g, p := seedCatalog(t, eng, 1, 100)

	paused := addCustomer(t, eng, &customer.Customer{
		Name: "Paused", GroupID: g.ID, PackageID: p.ID, Status: customer.StatusSuspended,
	})
	addCustomer(t, eng, &customer.Customer{Name: "Seat", GroupID: g.ID, PackageID: p.ID})

	paused.Status = customer.StatusActive
	res, err := eng.UpsertCustomer(ctx, paused)
	require.NoError(t, err)
	require.NotNil(t, res.Warning)

	got, err := eng.Customer(ctx, paused.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.StatusSuspended, got.Status)
}

func TestCreatedAtPreservedOnEdit(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	g, p := seedCatalog(t, eng, 5, 100)

	c := addCustomer(t, eng, &customer.Customer{Name: "Ali", GroupID: g.ID, PackageID: p.ID})
	assert.True(t, c.CreatedAt.Equal(fixedNow))

	c.Name = "Ali B"
	c.CreatedAt = fixedNow.AddDate(1, 0, 0)
	res, err := eng.UpsertCustomer(ctx, c)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.True(t, res.Customer.CreatedAt.Equal(fixedNow))
}

func TestDeleteCustomerCascades(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	g, p := seedCatalog(t, eng, 5, 100)

	a := addCustomer(t, eng, &customer.Customer{Name: "A", GroupID: g.ID, PackageID: p.ID})
	b := addCustomer(t, eng, &customer.Customer{Name: "B", GroupID: g.ID, PackageID: p.ID})

	for _, m := range []types.Month{"2024-04", "2024-05"} {
		_, err := eng.GenerateForMonth(ctx, m)
		require.NoError(t, err)
	}
	_, err := eng.RecordOutreach(ctx, a.ID, "2024-04")
	require.NoError(t, err)

	require.NoError(t, eng.DeleteCustomer(ctx, a.ID))

	doc, err := eng.Document()
	require.NoError(t, err)
	require.Len(t, doc.Customers, 1)
	for _, pay := range doc.Payments {
		assert.Equal(t, b.ID, pay.CustomerID)
	}
	assert.Len(t, doc.Payments, 2)

	rec, err := eng.Reminder(ctx, a.ID, "2024-04")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Count, "reminder records survive the customer")

	_, err = eng.Customer(ctx, a.ID)
	assert.ErrorIs(t, err, tally.ErrCustomerNotFound)
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	eng, s := newEngine(t)
	seedCatalog(t, eng, 5, 100)
	saves := s.Saves()

	require.NoError(t, eng.DeleteCustomer(ctx, id.NewCustomerID()))
	require.NoError(t, eng.DeleteGroup(ctx, id.NewGroupID()))
	require.NoError(t, eng.DeletePackage(ctx, id.NewPackageID()))
	assert.Equal(t, saves, s.Saves())
}

func TestDeleteGroupLeavesCustomersDangling(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	g, p := seedCatalog(t, eng, 5, 100)
	addCustomer(t, eng, &customer.Customer{Name: "A", GroupID: g.ID, PackageID: p.ID})

	require.NoError(t, eng.DeleteGroup(ctx, g.ID))
	_, err := eng.GenerateForMonth(ctx, "2024-05")
	require.NoError(t, err)

	st, err := eng.PaymentsForMonth(ctx, "2024-05")
	require.NoError(t, err)
	require.Len(t, st.Lines, 1)
	assert.Equal(t, catalog.NoneLabel, st.Lines[0].GroupName)

	_, err = eng.Group(ctx, g.ID)
	assert.True(t, tally.IsNotFound(err))
}

func TestListCustomersFilter(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	g, p := seedCatalog(t, eng, 10, 100)
	other, err := eng.UpsertGroup(ctx, &catalog.Group{Name: "South", Limit: 10})
	require.NoError(t, err)

	addCustomer(t, eng, &customer.Customer{Name: "Mona Ali", Phone: "0100111", GroupID: g.ID, PackageID: p.ID})
	addCustomer(t, eng, &customer.Customer{Name: "Omar", Phone: "0122333", GroupID: other.ID, PackageID: p.ID})

	tests := []struct {
		name   string
		filter customer.Filter
		want   []string
	}{
		{name: "all", filter: customer.Filter{}, want: []string{"Mona Ali", "Omar"}},
		{name: "name case-insensitive", filter: customer.Filter{Query: "mona"}, want: []string{"Mona Ali"}},
		{name: "phone substring", filter: customer.Filter{Query: "2233"}, want: []string{"Omar"}},
		{name: "group", filter: customer.Filter{GroupID: other.ID}, want: []string{"Omar"}},
		{name: "group and query", filter: customer.Filter{GroupID: other.ID, Query: "mona"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eng.ListCustomers(ctx, tt.filter)
			require.NoError(t, err)
			var names []string
			for _, c := range got {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestConfirmTwiceSavesOneCustomer(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)
	g, p := seedCatalog(t, eng, 0, 100)

	res, err := eng.UpsertCustomer(ctx, &customer.Customer{Name: "Late", GroupID: g.ID, PackageID: p.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Warning)

	first, err := res.Warning.Confirm(ctx)
	require.NoError(t, err)
	assert.True(t, first.Created)

	second, err := res.Warning.Confirm(ctx)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Customer.ID, second.Customer.ID)
	assert.Equal(t, first.Customer.CreatedAt, second.Customer.CreatedAt)

	customers, err := eng.ListCustomers(ctx, customer.Filter{})
	require.NoError(t, err)
	assert.Len(t, customers, 1)

	created, err := eng.GenerateForMonth(ctx, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}
