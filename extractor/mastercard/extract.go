// Package mastercard parses the current HSBC Argentina Mastercard statement
// format (2024-2025): collapsed ARS/USD columns, TOTAL TITULAR/ADICIONAL
// person blocks, dateless summary adjustments and a trailing legal section.
package mastercard

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nahuelc/resumen/extractor/common"
	"github.com/nahuelc/resumen/extractor/pdftext"
)

var (
	closeDateRe   = regexp.MustCompile(`Estado de cuenta al:?\s+(\d{2}-[A-Za-z]{3}-\d{2})`)
	prevCloseRe   = regexp.MustCompile(`(?i)Cierre Anterior:?\s+(\d{2}-[A-Za-z]{3}-\d{2})`)
	prevBalanceRe = regexp.MustCompile(`(?i)SALDO ANTERIOR\s+([-\d.,]+)\s+([-\d.,]+)`)
	currBalanceRe = regexp.MustCompile(`(?i)SALDO ACTUAL\s+([-\d.,]+)\s+([-\d.,]+)`)
	totalLineRe   = regexp.MustCompile(`(?i)^TOTAL\s+(TITULAR|ADICIONAL)\s+(.+?)\s+(-?[\d.]+,\d{2}-?)\s+(-?[\d.]+,\d{2}-?)\s*$`)
	dateLineRe    = regexp.MustCompile(`^\d{2}-[A-Za-z]{3}-\d{2}\b`)
	dateRowRe     = regexp.MustCompile(`^(\d{2}-[A-Za-z]{3}-\d{2})\s+(.+)`)
	usdWordRe     = regexp.MustCompile(`\bUSD\b`)
)

type Parser struct {
	path   string
	pages  []string
	lex    common.Lexicon
	tol    common.Tolerance
	sink   *common.Warnings
	result *common.Result
}

// New builds a Mastercard parser for one document. pages non-nil overrides
// the live source (testing); nil means the pages are read from path.
func New(path string, pages []string, opts common.Options) *Parser {
	opts = opts.Normalize()
	source := filepath.Base(path)
	return &Parser{
		path:  path,
		pages: pages,
		lex:   opts.Lexicon,
		tol:   opts.Tolerance,
		sink:  common.NewWarnings(source, opts.Logger),
	}
}

// Result returns the parse outcome. Valid after Parse.
func (p *Parser) Result() *common.Result {
	return p.result
}

// Parse consumes the page texts once and fills the Result. It returns an
// error only when the source cannot be read or a numeric token the grammar
// guaranteed is unparseable; everything else degrades into Warnings.
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

	stmt := common.Statement{Source: source, Bank: "HSBC", Kind: common.KindMastercard}

	if m := closeDateRe.FindStringSubmatch(compact); m != nil {
		stmt.PeriodEnd = common.ParseDate(m[1], 0)
	}
	if m := prevCloseRe.FindStringSubmatch(compact); m != nil {
		stmt.PeriodStart = common.AddDays(common.ParseDate(m[1], 0), 1)
	}

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

	if stmt.PeriodStart != "" && stmt.PeriodEnd != "" && stmt.PeriodEnd < stmt.PeriodStart {
		p.sink.Add(common.LevelWarning, "NO_PERIOD", "statement period end precedes its start", map[string]any{
			"period_start": stmt.PeriodStart, "period_end": stmt.PeriodEnd,
		})
		stmt.PeriodStart = ""
	}

	result := &common.Result{Statement: stmt}

	currentPerson := common.PersonTitular
	var pendingIdx []int
	lastTxDate := ""
	pendingAdjustment := ""
	havePendingAdjustment := false
	inTail := false

	// The TOTAL TITULAR/ADICIONAL row closes a person block after its
	// transactions, so accumulate indexes and backfill on the total row.
	finalizeBlock := func(name string, totalARS, totalUSD decimal.Decimal) {
		if len(pendingIdx) == 0 {
			return
		}
		for _, i := range pendingIdx {
			result.Transactions[i].Person = name
		}

		// The totals row is a purchases subtotal: it excludes payments,
		// taxes and other financial rows.
		sumARS, sumUSD := decimal.Zero, decimal.Zero
		for _, i := range pendingIdx {
			tx := result.Transactions[i]
			if p.lex.IsFinancial(tx.Description) {
				continue
			}
			switch tx.Currency {
			case common.CurrencyARS:
				sumARS = sumARS.Add(tx.Amount)
			case common.CurrencyUSD:
				sumUSD = sumUSD.Add(tx.Amount)
			}
		}
		sumARS, sumUSD = sumARS.Round(2), sumUSD.Round(2)
		diffARS := sumARS.Sub(totalARS.Round(2)).Round(2)
		diffUSD := sumUSD.Sub(totalUSD.Round(2)).Round(2)

		if !(diffARS.IsZero() && diffUSD.IsZero()) {
			within := p.tol.WithinRatio(diffARS, totalARS) && p.tol.WithinSecondary(diffUSD)
			level, code := common.LevelWarning, "PERSON_TOTAL_MISMATCH"
			if within {
				level, code = common.LevelInfo, "PERSON_TOTAL_WITHIN_TOLERANCE"
			}
			p.sink.Add(level, code, "TOTAL (TITULAR/ADICIONAL) differs from the sum of parsed purchases for that block", map[string]any{
				"person":          name,
				"sum_ars":         sumARS,
				"total_ars":       totalARS.Round(2),
				"diff_ars":        diffARS,
				"sum_usd":         sumUSD,
				"total_usd":       totalUSD.Round(2),
				"diff_usd":        diffUSD,
				"tolerance_ratio": p.tol.Ratio,
			})
		}
		pendingIdx = pendingIdx[:0]
	}

	appendTx := func(tx common.Transaction, inBlock bool) {
		result.Transactions = append(result.Transactions, tx)
		if inBlock {
			pendingIdx = append(pendingIdx, len(result.Transactions)-1)
		}
	}

	for _, raw := range strings.Split(compact, "\n") {
		line := strings.TrimSpace(raw)
		up := strings.ToUpper(line)

		// Rate disclosure rows ("... CON IVA ... %").
		if strings.Contains(up, "CON IVA") && strings.Contains(up, "%") {
			continue
		}

		if !inTail && lastTxDate != "" && p.lex.IsTailStart(line) {
			inTail = true
		}
		// Past the terms-and-conditions section only total rows matter
		// (person backfill); legal boilerplate must not become purchases.
		if inTail {
			if m := totalLineRe.FindStringSubmatch(line); m != nil {
				totalARS, totalUSD, err := p.totalAmounts(m)
				if err != nil {
					return err
				}
				finalizeBlock(common.NormSpace(m[2]), totalARS, totalUSD)
				currentPerson = common.PersonTitular
			}
			continue
		}

		// Second half of a two-line refund: "DEV ..." followed by a line
		// holding only the amount.
		if havePendingAdjustment {
			if amounts := common.FindMoneyAmounts(line); len(amounts) > 0 {
				importe, err := common.ParseAmount(amounts[len(amounts)-1])
				if err != nil {
					return fmt.Errorf("adjustment amount: %w", err)
				}
				appendTx(common.Transaction{
					Source:      source,
					Date:        firstNonEmpty(lastTxDate, stmt.PeriodEnd),
					Description: pendingAdjustment,
					Currency:    common.CurrencyARS,
					Amount:      importe,
					Person:      currentPerson,
					Kind:        common.KindMastercard,
				}, false)
				havePendingAdjustment = false
				continue
			}
			if line != "" && strings.Trim(line, "- ") != "" {
				havePendingAdjustment = false
			}
		}

		// Dateless statement-level adjustments (taxes, withholdings,
		// interests, refunds) in the consolidated summary.
		if !dateLineRe.MatchString(line) && p.lex.IsSummaryAdjustment(up) {
			amounts := common.FindMoneyAmounts(line)
			desc := common.NormSpace(common.StripParenCurrencyHint(common.StripTrailingAmounts(line)))
			if len(amounts) > 0 {
				importe, err := common.ParseAmount(amounts[len(amounts)-1])
				if err != nil {
					return fmt.Errorf("adjustment amount: %w", err)
				}
				appendTx(common.Transaction{
					Source:      source,
					Date:        firstNonEmpty(lastTxDate, stmt.PeriodEnd),
					Description: desc,
					Currency:    common.CurrencyARS,
					Amount:      importe,
					Person:      currentPerson,
					Kind:        common.KindMastercard,
				}, false)
				continue
			}
			// Only DEV refunds are known to split across two lines.
			if strings.HasPrefix(up, "DEV ") {
				pendingAdjustment = desc
				havePendingAdjustment = true
				continue
			}
		}

		if m := totalLineRe.FindStringSubmatch(line); m != nil {
			totalARS, totalUSD, err := p.totalAmounts(m)
			if err != nil {
				return err
			}
			finalizeBlock(common.NormSpace(m[2]), totalARS, totalUSD)
			currentPerson = common.PersonTitular
			continue
		}

		m := dateRowRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rest := m[2]
		if p.lex.IsCommentary(rest) {
			continue
		}
		date := common.ParseDate(m[1], 0)
		if date != "" {
			lastTxDate = date
		}
		rest = common.NormSpace(rest)

		// Parenthetical hints like "(USA,ARS, 4799,99)" carry original-
		// currency amounts that must not count as statement columns.
		amounts := common.FindMoneyAmounts(common.StripParenCurrencyHint(rest))
		if len(amounts) == 0 {
			continue
		}

		desc := common.StripTrailingAmounts(rest)
		desc = common.StripParenCurrencyHint(desc)
		desc, instNum, instTotal := common.ExtractInstallments(desc)
		desc, opID := common.ExtractTrailingOperationID(desc)
		desc = common.NormSpace(desc)

		// Collapsed currency columns: two trailing amounts are ARS + USD.
		// Zero USD rows are synthetic and get suppressed.
		if len(amounts) >= 2 {
			arsVal, err := common.ParseAmount(amounts[len(amounts)-2])
			if err != nil {
				return fmt.Errorf("row amount: %w", err)
			}
			usdVal, err := common.ParseAmount(amounts[len(amounts)-1])
			if err != nil {
				return fmt.Errorf("row amount: %w", err)
			}
			base := common.Transaction{
				Source: source, Date: date, Description: desc,
				Person: currentPerson, Kind: common.KindMastercard,
				OperationID: opID, InstallmentNum: instNum, InstallmentTotal: instTotal,
			}
			ars := base
			ars.Currency, ars.Amount = common.CurrencyARS, arsVal
			appendTx(ars, true)
			if !usdVal.Round(2).IsZero() {
				usd := base
				usd.Currency, usd.Amount = common.CurrencyUSD, usdVal
				appendTx(usd, true)
			}
			continue
		}

		importe, err := common.ParseAmount(amounts[len(amounts)-1])
		if err != nil {
			return fmt.Errorf("row amount: %w", err)
		}

		currency := ""
		if strings.Contains(up, "U$S") || usdWordRe.MatchString(up) {
			currency = common.CurrencyUSD
		}
		if currency == "" {
			if cc := common.ParenCountryCode(rest); cc != "" && cc != "ARG" && cc != "AR" {
				currency = common.CurrencyUSD
			}
		}
		if currency == "" {
			currency = common.CurrencyARS
		}

		appendTx(common.Transaction{
			Source: source, Date: date, Description: desc,
			Currency: currency, Amount: importe,
			Person: currentPerson, Kind: common.KindMastercard,
			OperationID: opID, InstallmentNum: instNum, InstallmentTotal: instTotal,
		}, true)
	}

	// A block that never met its closing total row: attribute it to the
	// last known person and flag it for manual review.
	if len(pendingIdx) > 0 {
		for _, i := range pendingIdx {
			result.Transactions[i].Person = currentPerson
		}
		first := result.Transactions[pendingIdx[0]]
		last := result.Transactions[pendingIdx[len(pendingIdx)-1]]
		p.sink.Add(common.LevelWarning, "MISSING_PERSON_TOTAL_AT_EOF",
			"reached end of document without a closing TOTAL TITULAR/ADICIONAL for the last block", map[string]any{
				"person_assigned": currentPerson,
				"count":           len(pendingIdx),
				"first_date":      first.Date,
				"last_date":       last.Date,
				"first_desc":      first.Description,
				"last_desc":       last.Description,
			})
		pendingIdx = pendingIdx[:0]
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

	if len(result.Transactions) == 0 {
		p.sink.Add(common.LevelError, "NO_TRANSACTIONS", "no transactions detected", nil)
	}
	if stmt.PeriodEnd == "" {
		p.sink.Add(common.LevelWarning, "MISSING_STATEMENT_FIELD", "missing statement closing date", map[string]any{"field": "period_end"})
	}

	result.Warnings = p.sink.Entries()
	p.result = result
	return nil
}

func (p *Parser) totalAmounts(m []string) (decimal.Decimal, decimal.Decimal, error) {
	ars, err := common.ParseAmount(m[3])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("total row: %w", err)
	}
	usd, err := common.ParseAmount(m[4])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("total row: %w", err)
	}
	return ars, usd, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
