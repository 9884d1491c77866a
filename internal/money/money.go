// Package money holds the amount helpers shared by the expense and debt
// ledgers. Amounts travel through the domain as float64 euros; the stores
// scan NUMERIC columns through shopspring/decimal before converting so no
// binary-float garbage leaks out of the database layer.
package money

import (
	"time"

	"github.com/shopspring/decimal"
)

// DriftTolerance is the threshold below which two mirrored amounts are
// considered in sync. Differences at or under a cent (with slack for float
// representation) are never "healed".
const DriftTolerance = 0.009

// FromDecimal converts a scanned NUMERIC value to a float64 amount.
func FromDecimal(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// FromNullDecimal converts a nullable NUMERIC value, treating NULL as zero.
func FromNullDecimal(d decimal.NullDecimal) float64 {
	if !d.Valid {
		return 0
	}

	return FromDecimal(d.Decimal)
}

// Round2 rounds an amount to cents, half away from zero.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Clamp constrains v to the [lo, hi] interval.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// Floor0 floors an amount at zero. Balances never go negative.
func Floor0(v float64) float64 {
	if v < 0 {
		return 0
	}

	return v
}

// InSync reports whether two amounts agree within DriftTolerance.
func InSync(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}

	return d <= DriftTolerance
}

// MatchKey builds the identity key used to pair a debt payment with its
// expense-side mirror: the cent-rounded amount and the UTC timestamp.
// The key is recomputed on every reconciliation pass, never stored.
func MatchKey(amount float64, paidAt time.Time) string {
	return decimal.NewFromFloat(amount).StringFixed(2) + "|" + paidAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
