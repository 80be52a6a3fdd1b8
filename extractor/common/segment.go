package common

import (
	"regexp"
	"strings"
)

var (
	// Extraction sometimes splits a number into spaced fragments
	// ("1 .234, 56"). These two rules close the gaps around separators.
	gapBeforeSepRe = regexp.MustCompile(`(\d)[ \t]+([.,]\d)`)
	gapAfterSepRe  = regexp.MustCompile(`(\d[.,])[ \t]+(\d)`)

	// "05- E N E -24" style month abbreviations with spaced letters.
	spacedMonthRe = regexp.MustCompile(`(\d{2})[ \t]*-[ \t]*([A-Za-z])[ \t]+([A-Za-z])[ \t]+([A-Za-z])[ \t]*-[ \t]*(\d{2})`)

	installmentRe = regexp.MustCompile(`(?:C\.|\s|^)(\d{1,2})/(\d{1,2})(?:\s|$)`)
	operationIDRe = regexp.MustCompile(`\s(\d{4,10}[A-Za-z*]?)$`)
	trailingAmtRe = regexp.MustCompile(`[ \t]*-?[\d.,]*\d[.,]\d{2}-?[ \t]*$`)

	// Informational parenthetical hints like "(DOM,USD, 39,00)" or
	// "(USA,ARS, 4799,99)". Their inner amount is original-currency data,
	// not a statement column.
	parenCurrencyRe = regexp.MustCompile(`(?i)\([ \t]*[A-Z]{2,3}[ \t]*,[ \t]*(?:ARS|USD|DOP)[^)]*\)`)
	parenCountryRe  = regexp.MustCompile(`(?i)\(([A-Za-z]{2,3}),[ \t]*(?:USD|ARS|DOP)\b`)
)

// NormSpace collapses runs of whitespace into single spaces and trims.
func NormSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CompactSpacedNumbers removes the spaces extraction noise inserts inside
// numeric tokens. Only horizontal whitespace is closed, so numbers never get
// joined across lines.
func CompactSpacedNumbers(s string) string {
	for {
		next := gapBeforeSepRe.ReplaceAllString(s, "$1$2")
		next = gapAfterSepRe.ReplaceAllString(next, "$1$2")
		if next == s {
			return s
		}
		s = next
	}
}

// CompactSpacedMonths rejoins month abbreviations whose letters were spread
// by extraction noise ("05- E N E -24" -> "05-ENE-24").
func CompactSpacedMonths(s string) string {
	return spacedMonthRe.ReplaceAllString(s, "$1-$2$3$4-$5")
}

// ExtractInstallments pulls an installment marker ("C.07/18" or a bare
// "07/18") out of a description. The last marker wins if several appear.
// Returns the cleaned description and the index/count, both zero when no
// marker was found.
func ExtractInstallments(desc string) (string, int, int) {
	matches := installmentRe.FindAllStringSubmatchIndex(desc, -1)
	if len(matches) == 0 {
		return desc, 0, 0
	}
	m := matches[len(matches)-1]
	num := atoi(desc[m[2]:m[3]])
	total := atoi(desc[m[4]:m[5]])
	if num < 1 || total < 1 || num > total {
		return desc, 0, 0
	}
	cleaned := NormSpace(desc[:m[0]] + " " + desc[m[1]:])
	return cleaned, num, total
}

// ExtractTrailingOperationID strips a trailing operation/authorization
// identifier: 4-10 digits, optionally followed by one letter or asterisk.
func ExtractTrailingOperationID(desc string) (string, string) {
	m := operationIDRe.FindStringSubmatchIndex(desc)
	if m == nil {
		return desc, ""
	}
	return strings.TrimSpace(desc[:m[0]]), desc[m[2]:m[3]]
}

// StripTrailingAmounts removes the amount/balance columns from the end of a
// row so only the description remains.
func StripTrailingAmounts(line string) string {
	for {
		next := trailingAmtRe.ReplaceAllString(line, "")
		if next == line {
			return line
		}
		line = next
	}
}

// StripParenCurrencyHint removes parenthetical country/currency annotations
// from a description.
func StripParenCurrencyHint(s string) string {
	return parenCurrencyRe.ReplaceAllString(s, "")
}

// ParenCountryCode returns the country code of a parenthetical currency hint
// ("(USA,ARS, ...)" -> "USA"), or "" when the line carries none.
func ParenCountryCode(s string) string {
	m := parenCountryRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
