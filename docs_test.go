package tally_test

import (
	"context"
	"log"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/xraph/tally"
	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/store/file"
	"github.com/xraph/tally/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation work as written.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		ctx := context.Background()

		// File store for a single operator's book
		store := file.New(filepath.Join(t.TempDir(), "data", "book.json"))

		eng := tally.New(store,
			tally.WithLogger(slog.New(slog.DiscardHandler)),
			tally.WithCurrency("egp"),
		)
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop()

		g, err := eng.UpsertGroup(ctx, &catalog.Group{Name: "North", Limit: 1})
		if err != nil {
			t.Fatal(err)
		}
		p, err := eng.UpsertPackage(ctx, &catalog.Package{Name: "Basic", Price: tally.FromMajor(100)})
		if err != nil {
			t.Fatal(err)
		}

		for _, name := range []string{"Ali", "Mona"} {
			res, err := eng.UpsertCustomer(ctx, &customer.Customer{
				Name: name, Phone: "01000000000", GroupID: g.ID, PackageID: p.ID,
			})
			if err != nil {
				t.Fatal(err)
			}
			if res.Warning != nil {
				log.Printf("capacity: %s\n", res.Warning)
				if res, err = res.Warning.Confirm(ctx); err != nil {
					t.Fatal(err)
				}
			}
			log.Printf("saved %s as %s\n", res.Customer.Name, res.Customer.ID)
		}

		n, err := eng.GenerateForMonth(ctx, "2024-05")
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Errorf("got %d payments, want 2", n)
		}

		st, err := eng.PaymentsForMonth(ctx, "2024-05")
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("required %s, collected %s\n",
			st.Totals.Required.Format(eng.Currency()),
			st.Totals.Collected.Format(eng.Currency()),
		)
	})

	t.Run("MoneyExamples", func(t *testing.T) {
		price := types.FromMajor(100)
		discount := types.FromMajor(30.5)

		if got := price.Subtract(discount).FormatMajor(); got != "69.50" {
			t.Errorf("got %s, want 69.50", got)
		}
		if got := discount.Subtract(price).Max(types.Zero); got != types.Zero {
			t.Errorf("got %s, want zero", got)
		}
		if got := types.Sum(price, discount); got != types.FromMajor(130.5) {
			t.Errorf("got %s, want 130.50", got)
		}
	})
}
