// Package visa parses HSBC Argentina Visa statements: dot-separated dates,
// separate PESOS/DOLARES columns that frequently collapse, per-card holder
// headers and financial rows whose parenthesised bases must be skipped.
package visa

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nahuelc/resumen/extractor/common"
	"github.com/nahuelc/resumen/extractor/pdftext"
)

// headerGuards filter the transaction-table header rows.
var headerGuards = []string{"DETALLE DE TRANSACCION", "FECHA COMPROBANTE", "PESOS DOLARES"}

var (
	prevBalanceRe = regexp.MustCompile(`(?i)SALDO\s+ANTERIOR\s+([\d.]+,\d{2})\s+([\d.]+,\d{2})`)
	currBalanceRe = regexp.MustCompile(`(?i)SALDO\s+ACTUAL\s+\$?\s*([\d.]+,\d{2})\s+U\$S\s*([\d.]+,\d{2})`)
	closeCurrRe   = regexp.MustCompile(`(?i)CIERRE\s+ACTUAL\s+([0-9A-Za-z\s]{4,20})`)
	closePrevRe   = regexp.MustCompile(`(?i)CIERRE\s+ANTERIOR\s+([0-9A-Za-z\s]{4,20})`)
	holderRe      = regexp.MustCompile(`(?i)TARJETA\s+\d+\s+Total\s+Consumos\s+de\s+(.+)`)
	gluedDateRe   = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{2})(\d)`)
	dateLeadRe    = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{2})\s+(.+)$`)
	leadingOpRe   = regexp.MustCompile(`^([0-9A-Z]{5,10}\*?)\s+(.+)$`)
	anyDigitRe    = regexp.MustCompile(`\d`)
)

type Parser struct {
	path   string
	pages  []string
	lex    common.Lexicon
	tol    common.Tolerance
	sink   *common.Warnings
	result *common.Result
}

func New(path string, pages []string, opts common.Options) *Parser {
	opts = opts.Normalize()
	return &Parser{
		path:  path,
		pages: pages,
		lex:   opts.Lexicon,
		tol:   opts.Tolerance,
		sink:  common.NewWarnings(filepath.Base(path), opts.Logger),
	}
}

func (p *Parser) Result() *common.Result {
	return p.result
}

func (p *Parser) Parse() error {
	pages := p.pages
	if pages == nil {
		var err error
		pages, err = pdftext.Pages(p.path)
		if err != nil {
			return err
		}
	}

	source := filepath.Base(p.path)
	text := strings.Join(pages, "\n")
	compact := common.CompactSpacedMonths(common.CompactSpacedNumbers(text))

	stmt := common.Statement{Source: source, Bank: "HSBC", Kind: common.KindVisa}

	prevFound, currFound := false, false
	if m := prevBalanceRe.FindStringSubmatch(compact); m != nil {
		ars, err := common.ParseAmount(m[1])
		if err != nil {
			return fmt.Errorf("previous balance: %w", err)
		}
		usd, err := common.ParseAmount(m[2])
		if err != nil {
			return fmt.Errorf("previous balance: %w", err)
		}
		stmt.PrevBalanceARS = decimal.NewNullDecimal(ars)
		stmt.PrevBalanceUSD = decimal.NewNullDecimal(usd)
		prevFound = true
	}
	if m := currBalanceRe.FindStringSubmatch(compact); m != nil {
		ars, err := common.ParseAmount(m[1])
		if err != nil {
			return fmt.Errorf("current balance: %w", err)
		}
		usd, err := common.ParseAmount(m[2])
		if err != nil {
			return fmt.Errorf("current balance: %w", err)
		}
		stmt.CurrBalanceARS = decimal.NewNullDecimal(ars)
		stmt.CurrBalanceUSD = decimal.NewNullDecimal(usd)
		currFound = true
	}
	if m := closeCurrRe.FindStringSubmatch(compact); m != nil {
		stmt.PeriodEnd = common.ParseDateLoose(m[1])
	}
	if m := closePrevRe.FindStringSubmatch(compact); m != nil {
		stmt.PeriodStart = common.AddDays(common.ParseDateLoose(m[1]), 1)
	}
	if stmt.PeriodStart != "" && stmt.PeriodEnd != "" && stmt.PeriodEnd < stmt.PeriodStart {
		p.sink.Add(common.LevelWarning, "NO_PERIOD", "statement period end precedes its start", map[string]any{
			"period_start": stmt.PeriodStart, "period_end": stmt.PeriodEnd,
		})
		stmt.PeriodStart = ""
	}

	result := &common.Result{Statement: stmt}
	currentPerson := common.PersonTitular
	ignored := 0

	for _, page := range pages {
		for _, raw := range strings.Split(page, "\n") {
			line := common.CompactSpacedNumbers(strings.TrimSpace(raw))
			// Some extractions drop the space right after the date
			// ("08.09.23350257* ..."); restore the boundary.
			line = gluedDateRe.ReplaceAllString(line, "$1 $2")
			up := strings.ToUpper(line)

			if containsAny(up, headerGuards) {
				continue
			}
			if p.lex.IsCommentary(line) {
				continue
			}

			// Cardholder block headers switch attribution immediately.
			if m := holderRe.FindStringSubmatch(line); m != nil {
				currentPerson = common.NormSpace(m[1])
				continue
			}

			// Financial rows: payments, taxes, VAT, fees, rebates. The
			// genuine charge is in the trailing column pair; amounts inside
			// parentheses are computation bases.
			if p.lex.IsVisaFinancial(up) {
				amounts := common.FindMoneyAmounts(line)
				if len(amounts) == 0 {
					if dateLeadRe.MatchString(line) {
						ignored++
					}
					continue
				}
				currency, importe, err := p.pickColumn(amounts)
				if err != nil {
					return err
				}

				date := ""
				if m := dateLeadRe.FindStringSubmatch(line); m != nil {
					date = common.ParseDate(m[1], 0)
				}
				desc, opID, instNum, instTotal := p.cleanDescription(line)
				result.Transactions = append(result.Transactions, common.Transaction{
					Source: source, Date: date, Description: desc,
					Currency: currency, Amount: importe,
					Person: currentPerson, Kind: common.KindVisa,
					OperationID: opID, InstallmentNum: instNum, InstallmentTotal: instTotal,
				})
				continue
			}

			// Purchase rows: leading dotted date plus collapsed columns.
			m := dateLeadRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			amounts := common.FindMoneyAmounts(line)
			if len(amounts) == 0 {
				ignored++
				continue
			}
			currency, importe, err := p.pickColumn(amounts)
			if err != nil {
				return err
			}
			if importe.IsZero() {
				p.sink.Add(common.LevelWarning, "NO_AMOUNT", "line without amount", common.NormSpace(line))
				continue
			}

			desc, opID, instNum, instTotal := p.cleanDescription(line)
			result.Transactions = append(result.Transactions, common.Transaction{
				Source: source, Date: common.ParseDate(m[1], 0), Description: desc,
				Currency: currency, Amount: importe,
				Person: currentPerson, Kind: common.KindVisa,
				OperationID: opID, InstallmentNum: instNum, InstallmentTotal: instTotal,
			})
		}
	}

	if len(result.Transactions) == 0 {
		p.sink.Add(common.LevelError, "NO_TRANSACTIONS", "no transactions detected", nil)
	} else if ignored > 0 {
		p.sink.Add(common.LevelWarning, "IGNORED_ROWS", "date lines that could not be parsed", map[string]any{"count": ignored})
	}

	if prevFound && currFound {
		common.CheckBalanceSum(p.sink, p.tol, common.CurrencyARS,
			stmt.PrevBalanceARS.Decimal, common.SumByCurrency(result.Transactions, common.CurrencyARS),
			stmt.CurrBalanceARS.Decimal, false)
		common.CheckBalanceSum(p.sink, p.tol, common.CurrencyUSD,
			stmt.PrevBalanceUSD.Decimal, common.SumByCurrency(result.Transactions, common.CurrencyUSD),
			stmt.CurrBalanceUSD.Decimal, true)
	} else {
		p.sink.Add(common.LevelWarning, "MISSING_BALANCE_FIELDS",
			"could not extract SALDO ANTERIOR/SALDO ACTUAL", nil)
	}

	result.Warnings = p.sink.Entries()
	p.result = result
	return nil
}

// pickColumn chooses currency and amount from the trailing column pair:
// pesos first, dollars second, pesos taking priority when both are nonzero.
func (p *Parser) pickColumn(amounts []string) (string, decimal.Decimal, error) {
	pesosTok := amounts[len(amounts)-1]
	dollarsTok := ""
	if len(amounts) >= 2 {
		pesosTok = amounts[len(amounts)-2]
		dollarsTok = amounts[len(amounts)-1]
	}

	pesos, err := common.ParseAmount(pesosTok)
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("column amount: %w", err)
	}
	dollars := decimal.Zero
	if dollarsTok != "" {
		if dollars, err = common.ParseAmount(dollarsTok); err != nil {
			return "", decimal.Zero, fmt.Errorf("column amount: %w", err)
		}
	}

	switch {
	case !pesos.IsZero():
		return common.CurrencyARS, pesos, nil
	case !dollars.IsZero():
		return common.CurrencyUSD, dollars, nil
	default:
		return common.CurrencyARS, decimal.Zero, nil
	}
}

// cleanDescription strips column amounts, the leading date, a leading
// operation id, the installment marker and a trailing operation id.
func (p *Parser) cleanDescription(line string) (string, string, int, int) {
	desc := common.StripTrailingAmounts(line)
	if m := dateLeadRe.FindStringSubmatch(desc); m != nil {
		desc = m[2]
	}

	opID := ""
	if m := leadingOpRe.FindStringSubmatch(desc); m != nil && anyDigitRe.MatchString(m[1]) {
		opID = m[1]
		desc = m[2]
	}

	desc, instNum, instTotal := common.ExtractInstallments(desc)
	var trailingID string
	desc, trailingID = common.ExtractTrailingOperationID(desc)
	if opID == "" {
		opID = trailingID
	}
	if m := dateLeadRe.FindStringSubmatch(desc); m != nil {
		desc = m[2]
	}
	return strings.TrimSpace(desc), opID, instNum, instTotal
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
