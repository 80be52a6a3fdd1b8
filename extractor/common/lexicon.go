package common

import (
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Lexicon holds the literal keyword lists the parsers use to classify lines.
// These are tuned to observed statement samples, not general rules, which is
// why they live in configuration instead of code.
type Lexicon struct {
	// Commentary marks rate disclosures, installment-plan advertisements
	// and minimum-payment boilerplate that must never become transactions.
	Commentary []string
	// TailMarkers start the trailing terms-and-conditions section; past
	// one of these, transaction extraction stops.
	TailMarkers []string
	// AdjustmentPrefixes identify dateless statement-level adjustment
	// lines (taxes, withholdings, interests, refunds).
	AdjustmentPrefixes []string
	// AdjustmentExcludes are prefixes that disqualify a line from being a
	// summary adjustment (totals, limits, due dates).
	AdjustmentExcludes []string
	// Financial words mark payment/tax/fee movements excluded from the
	// per-person purchases subtotal on Mastercard statements.
	Financial []string
	// VisaFinancial words mark the Visa financial rows (payments, taxes,
	// VAT, fees, rebates) that get their own amount handling.
	VisaFinancial []string

	loaded      bool
	financialRe *regexp.Regexp
	visaFinRe   *regexp.Regexp
}

// DefaultLexicon returns the built-in keyword lists, matching the statement
// samples the parsers were tuned against.
func DefaultLexicon() Lexicon {
	lx := Lexicon{
		Commentary: []string{
			"ABONANDO EL PAGO",
			"ESTAS MISMAS TASAS",
			"CFT",
			"TNA",
			"TASA EFECTIVA",
		},
		TailMarkers: []string{
			"CONDICIONES GENERALES",
			"REGIMEN DE TRANSPARENCIA",
			"INFORMACION AL USUARIO DE SERVICIOS FINANCIEROS",
		},
		AdjustmentPrefixes: []string{
			"DEV ", "IMPUESTO", "PERCEP", "PERC ",
			"INT.", "INTERES", "I.V.A", "IVA ", "IVA.", "IVA:",
			"PUNITORIO",
		},
		AdjustmentExcludes: []string{
			"SALDO ", "SUBTOTAL", "TOTAL ", "COMPRAS ",
			"PAGO MINIMO", "VENCIMIENTO", "CIERRE ",
			"LIMITE ", "LÍMITE ", "ABONANDO ", "EFVO",
			"ENT/SUCURSAL", "DB ",
		},
		Financial: []string{
			`SU\s+PAGO`, `PAGO`, `IMPUESTO`, `PERCEP`, `INTERES`, `INT\.`, `DEV`,
		},
		VisaFinancial: []string{
			`SU\s+PAGO`, `IMPUESTO`, `IVA`, `COM\s+`, `BONI\s+`,
		},
	}
	return lx.compile()
}

// LexiconFromConfig loads the lists from viper, falling back per-key to the
// defaults when configuration is absent.
func LexiconFromConfig() Lexicon {
	def := DefaultLexicon()
	lx := Lexicon{
		Commentary:         orDefault(viper.GetStringSlice("lexicon.commentary"), def.Commentary),
		TailMarkers:        orDefault(viper.GetStringSlice("lexicon.tail_markers"), def.TailMarkers),
		AdjustmentPrefixes: orDefault(viper.GetStringSlice("lexicon.adjustment_prefixes"), def.AdjustmentPrefixes),
		AdjustmentExcludes: orDefault(viper.GetStringSlice("lexicon.adjustment_excludes"), def.AdjustmentExcludes),
		Financial:          orDefault(viper.GetStringSlice("lexicon.financial"), def.Financial),
		VisaFinancial:      orDefault(viper.GetStringSlice("lexicon.visa_financial"), def.VisaFinancial),
	}
	return lx.compile()
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func (lx Lexicon) compile() Lexicon {
	lx.financialRe = regexp.MustCompile(`\b(` + strings.Join(lx.Financial, "|") + `)\b`)
	lx.visaFinRe = regexp.MustCompile(`(` + strings.Join(lx.VisaFinancial, "|") + `)`)
	lx.loaded = true
	return lx
}

// IsCommentary reports whether a line is statement commentary: rate
// disclosures, installment advertisements and similar boilerplate.
func (lx Lexicon) IsCommentary(line string) bool {
	up := strings.ToUpper(line)
	for _, kw := range lx.Commentary {
		if strings.Contains(up, kw) {
			return true
		}
	}
	// Installment financing offers: "3 cuotas 159,29%/ 6 cuotas ..."
	return strings.Contains(up, "CUOTAS") && strings.Contains(up, "%")
}

// IsTailStart reports whether a line opens the trailing terms-and-conditions
// section.
func (lx Lexicon) IsTailStart(line string) bool {
	up := strings.ToUpper(line)
	for _, kw := range lx.TailMarkers {
		if strings.Contains(up, kw) {
			return true
		}
	}
	return false
}

// IsSummaryAdjustment reports whether an upper-cased dateless line is a
// statement-level adjustment (tax, withholding, interest, refund).
func (lx Lexicon) IsSummaryAdjustment(up string) bool {
	for _, kw := range lx.AdjustmentExcludes {
		if strings.HasPrefix(up, kw) {
			return false
		}
	}
	for _, kw := range lx.AdjustmentPrefixes {
		if strings.HasPrefix(up, kw) {
			return true
		}
	}
	return false
}

// IsFinancial reports whether a description is a financial movement rather
// than a purchase (Mastercard person-block subtotals exclude these).
func (lx Lexicon) IsFinancial(desc string) bool {
	return lx.financialRe.MatchString(strings.ToUpper(desc))
}

// IsVisaFinancial reports whether a Visa row is a financial line.
func (lx Lexicon) IsVisaFinancial(line string) bool {
	return lx.visaFinRe.MatchString(strings.ToUpper(line))
}
