// Package tally keeps the book of a small subscription business: groups
// with seat limits, priced packages, customers, their monthly dues and the
// reminders sent for unpaid months.
//
// Tally is a library, not a service. One *Tally owns one book, an
// aggregate document that is loaded once and saved as a whole after every
// change. It provides:
//
//   - A catalog of groups and packages
//   - A customer registry with advisory group seat limits
//   - Deterministic pricing with discount, custom-price and extra arrangements
//   - Idempotent monthly payment generation and collection tracking
//   - Reminder counts with ready-made wa.me links
//   - Whole-book export and import
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/tally"
//	    "github.com/xraph/tally/store/file"
//	)
//
//	t := tally.New(file.New("data/book.json"))
//	if err := t.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Stop()
//
//	g, _ := t.UpsertGroup(ctx, &catalog.Group{Name: "North", Limit: 10})
//	p, _ := t.UpsertPackage(ctx, &catalog.Package{Name: "Basic", Price: tally.FromMajor(100)})
//
//	res, err := t.UpsertCustomer(ctx, &customer.Customer{
//	    Name: "Ali", Phone: "01000000000", GroupID: g.ID, PackageID: p.ID,
//	})
//	if res.Warning != nil {
//	    // The group is full. Ask the operator, then:
//	    res, err = res.Warning.Confirm(ctx)
//	}
//
//	n, _ := t.GenerateForMonth(ctx, "2024-05")
//
// # Consistency
//
// Every mutation works on a copy of the book. The copy becomes current only
// after the store accepts it, so a failed save leaves the engine exactly as
// the store last saw it. All amounts are integer hundredths of the book's
// currency unit.
//
// # Backends
//
// The store sub-packages hold one document per book: memory, file, redis,
// s3, sqlite, postgres and mongo.
package tally
