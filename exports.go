package tally

import "github.com/xraph/tally/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Date is re-exported from types package.
type Date = types.Date

// Month is re-exported from types package.
type Month = types.Month

// Re-export constructors
var (
	FromMajor  = types.FromMajor
	ParseMoney = types.ParseMoney
	ParseMonth = types.ParseMonth
	ParseDate  = types.ParseDate
	Sum        = types.Sum
)
