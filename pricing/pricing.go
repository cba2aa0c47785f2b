// Package pricing computes what a customer owes for one month.
package pricing

import (
	"github.com/xraph/tally/catalog"
	"github.com/xraph/tally/customer"
	"github.com/xraph/tally/types"
)

// Quote returns the monthly amount for c under pkg. It is pure: the result
// depends only on its arguments and is never cached.
//
//   - missing package: zero
//   - no special arrangement: the package price
//   - discount: the package price less Value, floored at zero
//   - customPrice: Value
//   - extra, or any unrecognized kind: the package price
func Quote(c *customer.Customer, pkg *catalog.Package) types.Money {
	if pkg == nil {
		return types.Zero
	}
	price := pkg.Price
	if c == nil || c.Special == nil {
		return price
	}

	switch c.Special.Kind {
	case customer.SpecialDiscount:
		return price.Subtract(c.Special.Value).Max(types.Zero)
	case customer.SpecialCustomPrice:
		return c.Special.Value
	default:
		return price
	}
}
