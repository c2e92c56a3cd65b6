package boxrate

import "github.com/xraph/boxrate/types"

// Re-export common types for convenience so users don't have to import types package.

// Money is re-exported from types package.
type Money = types.Money

// Date is re-exported from types package.
type Date = types.Date

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export constructors
var (
	USD           = types.USD
	Zero          = types.Zero
	Sum           = types.Sum
	ParseMajor    = types.ParseMajor
	NewDate       = types.NewDate
	ParseDate     = types.ParseDate
	MustParseDate = types.MustParseDate
)
