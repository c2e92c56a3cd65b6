// Package boxrate prices mailbox rentals and reconciles the rates accounts
// are billed at against what their recipients and the effective rate table
// say they should pay.
//
// boxrate is a library, not a service. It provides:
//
//   - An effective-dated rate table with exactly one open version at a time
//   - Recipient classification (person or business, minor or adult)
//   - Full-term price breakdowns for 3, 6 and 12 month plans
//   - Renewal proration for minors who turn 18 during the term
//   - A concurrent audit that flags undercharged, overcharged and
//     overflowing accounts, with manager overrides
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/boxrate"
//	    "github.com/xraph/boxrate/store/memory"
//	)
//
//	e := boxrate.New(memory.New())
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
//	err := e.CreateRateVersion(ctx, &rate.Version{
//	    StartDate:            boxrate.MustParseDate("2026-11-01"),
//	    BaseRate3Month:       boxrate.USD(15300),
//	    BaseRate6Month:       boxrate.USD(28200),
//	    BaseRate12Month:      boxrate.USD(52000),
//	    AdditionalAdultRates: rate.Tiers(boxrate.USD(200), boxrate.USD(300), boxrate.USD(400), boxrate.USD(500)),
//	})
//
//	summary, err := e.RunAll(ctx, account.ListOpts{Status: account.StatusActive})
//
// # Months
//
// Term lengths are 3, 6 and 13 months: the twelve month plan includes a bonus
// month. Months between two dates are whole calendar months by year and
// month subtraction, so a minor born on the 20th who turns 18 two calendar
// months after a term starts on the 1st is a minor for two months.
//
// All monetary calculations use integer cents.
//
// # TypeID
//
// Records use TypeIDs:
//
//	rate_01h2xcejqtf2nbrexx3vqjhp41  // rate version
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // account
//	rcpt_01h455vb4pex5vsknk084sn02q  // recipient
//	arun_01h455vb4pex5vsknk084sn02q  // audit run
package boxrate
