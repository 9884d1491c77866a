// Package category classifies expense categories for the debt conversion
// rules. Some categories move money between buckets the user already owns
// (savings, transfers, investments); leaving those unpaid never creates an
// obligation to a third party, so they are excluded from carryover.
package category

import "strings"

var nonDebtNames = map[string]struct{}{
	"savings":     {},
	"poupança":    {},
	"poupancas":   {},
	"poupanças":   {},
	"transfer":    {},
	"transfers":   {},
	"investment":  {},
	"investments": {},
	"allocation":  {},
	"allocations": {},
}

// IsNonDebt reports whether a category name identifies self-owned money
// movement rather than a payable obligation.
func IsNonDebt(name string) bool {
	_, ok := nonDebtNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}
