package common

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Tolerance grades reconciliation differences. The thresholds are heuristics
// tuned against real statements; callers may override them, which is why they
// are data rather than constants inside the check.
type Tolerance struct {
	// Ratio is the accepted difference relative to the declared total.
	Ratio float64
	// DenomFloor keeps the ratio meaningful for near-zero totals.
	DenomFloor float64
	// SecondaryAbs is the absolute floor applied to the foreign-currency
	// leg, whose totals are often too small for a ratio to make sense.
	SecondaryAbs float64
}

// DefaultTolerance is the tolerance used when none is configured.
var DefaultTolerance = Tolerance{Ratio: 0.05, DenomFloor: 1.0, SecondaryAbs: 0.01}

// ToleranceFromConfig reads the tolerance from viper, falling back to
// DefaultTolerance for unset keys.
func ToleranceFromConfig() Tolerance {
	t := Tolerance{
		Ratio:        viper.GetFloat64("tolerance.ratio"),
		DenomFloor:   viper.GetFloat64("tolerance.denominator_floor"),
		SecondaryAbs: viper.GetFloat64("tolerance.secondary_abs_floor"),
	}
	if t.Ratio == 0 {
		t.Ratio = DefaultTolerance.Ratio
	}
	if t.DenomFloor == 0 {
		t.DenomFloor = DefaultTolerance.DenomFloor
	}
	if t.SecondaryAbs == 0 {
		t.SecondaryAbs = DefaultTolerance.SecondaryAbs
	}
	return t
}

// WithinRatio reports whether diff is within the ratio tolerance of total.
func (t Tolerance) WithinRatio(diff, total decimal.Decimal) bool {
	denom := decimal.Max(total.Abs(), decimal.NewFromFloat(t.DenomFloor))
	return diff.Abs().Div(denom).LessThanOrEqual(decimal.NewFromFloat(t.Ratio))
}

// WithinSecondary reports whether a foreign-currency difference is within the
// absolute floor.
func (t Tolerance) WithinSecondary(diff decimal.Decimal) bool {
	return diff.Abs().LessThanOrEqual(decimal.NewFromFloat(t.SecondaryAbs))
}

// SumByCurrency adds up the signed amounts of the transactions in one
// currency, rounded to cents.
func SumByCurrency(txs []Transaction, currency string) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range txs {
		if t.Currency == currency {
			sum = sum.Add(t.Amount)
		}
	}
	return sum.Round(2)
}

// CheckBalanceSum validates prev + sum == declared for one currency and
// records the graded outcome: nothing when the difference is exactly zero,
// BALANCE_SUM_WITHIN_TOLERANCE (INFO) inside tolerance, BALANCE_SUM_MISMATCH
// (WARNING) beyond it. secondary switches to the absolute-floor grading used
// for the foreign-currency leg.
func CheckBalanceSum(sink *Warnings, tol Tolerance, currency string, prev, sum, declared decimal.Decimal, secondary bool) {
	expected := prev.Add(sum).Round(2)
	diff := expected.Sub(declared.Round(2)).Round(2)
	if diff.IsZero() {
		return
	}

	within := tol.WithinRatio(diff, declared)
	if secondary {
		within = within || tol.WithinSecondary(diff)
	}

	level, code := LevelWarning, "BALANCE_SUM_MISMATCH"
	if within {
		level, code = LevelInfo, "BALANCE_SUM_WITHIN_TOLERANCE"
	}
	sink.Add(level, code, "declared balances do not reconcile with parsed transactions", map[string]any{
		"currency":        currency,
		"prev_balance":    prev,
		"sum":             sum,
		"expected":        expected,
		"declared":        declared.Round(2),
		"diff":            diff,
		"tolerance_ratio": tol.Ratio,
	})
}
