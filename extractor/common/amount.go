package common

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyRe matches statement-column amounts in the comma-decimal convention
// used by the credit-card variants, e.g. "1.234,56", "-150,00", "425.471,35-".
var moneyRe = regexp.MustCompile(`-?[\d.]+,\d{2}-?`)

// numberRe matches amounts in either separator convention, including partial
// forms with no integer part (".06"). Used by the savings variant, whose
// tables mix both conventions.
var numberRe = regexp.MustCompile(`-?(?:\d{1,3}(?:[.,]\d{3})*[.,]\d{2}|\d+[.,]\d{2}|\.\d{2})`)

// ParseAmount converts a locale-ambiguous amount string into a decimal.
// The rightmost of '.'/',' is the decimal separator; the other one is the
// thousands separator. A trailing minus is a valid negative marker. Empty or
// whitespace-only input yields zero; anything else malformed returns the
// conversion error.
func ParseAmount(s string) (decimal.Decimal, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return decimal.Zero, nil
	}

	neg := false
	if strings.HasSuffix(t, "-") {
		neg = true
		t = strings.TrimSuffix(t, "-")
	}
	if strings.HasPrefix(t, "-") {
		neg = true
		t = strings.TrimPrefix(t, "-")
	}

	dot := strings.LastIndexByte(t, '.')
	comma := strings.LastIndexByte(t, ',')
	if sep := max(dot, comma); sep >= 0 {
		intPart := strings.Map(func(r rune) rune {
			if r == '.' || r == ',' {
				return -1
			}
			return r
		}, t[:sep])
		t = intPart + "." + t[sep+1:]
	}
	if strings.HasPrefix(t, ".") {
		t = "0" + t
	}
	if neg {
		t = "-" + t
	}

	return decimal.NewFromString(t)
}

// FindMoneyAmounts returns the comma-decimal amount tokens in s, skipping
// percentages like "80,48%" that would otherwise look like money.
func FindMoneyAmounts(s string) []string {
	var out []string
	for _, loc := range moneyRe.FindAllStringIndex(s, -1) {
		if loc[1] < len(s) && s[loc[1]] == '%' {
			continue
		}
		out = append(out, s[loc[0]:loc[1]])
	}
	return out
}

// FindNumbers returns all numeric tokens in s in either separator convention.
func FindNumbers(s string) []string {
	return numberRe.FindAllString(s, -1)
}

// FirstNumberIndex returns the start offset of the first numeric token in s,
// or -1 when there is none.
func FirstNumberIndex(s string) int {
	loc := numberRe.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}
