// Package cuenta parses HSBC Argentina savings-account statements: the
// FECHA/REFERENCIA/NRO/DEBITO/CREDITO/SALDO table, one section per currency.
// Row signs come from running-balance deltas because the debit/credit column
// alignment is unreliable.
package cuenta

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nahuelc/resumen/extractor/common"
	"github.com/nahuelc/resumen/extractor/pdftext"
)

var (
	periodRe     = regexp.MustCompile(`(?i)EXTRACTO\s+DEL\s+(\d{2}/\d{2}/\d{4})\s+AL\s+(\d{2}/\d{2}/\d{4})`)
	tableHeadRe  = regexp.MustCompile(`(?i)FECHA\s+REFERENCIA\s+NRO\s+DEBITO\s+CREDITO\s+SALDO`)
	prevSaldoRe  = regexp.MustCompile(`(?i)SALDO ANTERIOR\s+([-\d.,]+)`)
	finalSaldoRe = regexp.MustCompile(`(?i)SALDO FINAL\s+([-\d.,]+)`)
	dateRowRe    = regexp.MustCompile(`^(\d{2}-[A-Z]{3})\s+(.+)`)
)

// section aggregates per-currency reconciliation inputs.
type section struct {
	start    decimal.Decimal
	hasStart bool
	end      decimal.Decimal
	hasEnd   bool
	sum      decimal.Decimal
	ignored  int
}

type Parser struct {
	path   string
	pages  []string
	tol    common.Tolerance
	sink   *common.Warnings
	result *common.Result
}

func New(path string, pages []string, opts common.Options) *Parser {
	opts = opts.Normalize()
	return &Parser{
		path:  path,
		pages: pages,
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

	stmt := common.Statement{Source: source, Bank: "HSBC", Kind: common.KindCuenta}
	defaultYear := 0
	if m := periodRe.FindStringSubmatch(text); m != nil {
		stmt.PeriodStart = common.ParseDate(m[1], 0)
		stmt.PeriodEnd = common.ParseDate(m[2], 0)
		if parts := strings.Split(m[2], "/"); len(parts) == 3 {
			defaultYear, _ = strconv.Atoi(parts[2])
		}
	} else {
		p.sink.Add(common.LevelWarning, "NO_PERIOD", "could not detect statement period", nil)
	}
	if stmt.PeriodStart != "" && stmt.PeriodEnd != "" && stmt.PeriodEnd < stmt.PeriodStart {
		p.sink.Add(common.LevelWarning, "NO_PERIOD", "statement period end precedes its start", map[string]any{
			"period_start": stmt.PeriodStart, "period_end": stmt.PeriodEnd,
		})
		stmt.PeriodStart = ""
	}

	result := &common.Result{Statement: stmt}

	inTable := false
	var runningBalance decimal.Decimal
	haveRunning := false
	currency := ""
	lastDate := ""
	sections := map[string]*section{}

	sectionFor := func(cur string) *section {
		s, ok := sections[cur]
		if !ok {
			s = &section{}
			sections[cur] = s
		}
		return s
	}

	for _, page := range pages {
		for _, raw := range strings.Split(page, "\n") {
			line := strings.TrimSpace(raw)
			up := strings.ToUpper(line)

			// Section boundaries reset running-balance tracking.
			if strings.Contains(up, "CAJA DE AHORRO") && strings.Contains(up, "U$S") {
				currency = common.CurrencyUSD
				haveRunning = false
				lastDate = ""
			} else if strings.Contains(up, "CAJA DE AHORRO") && strings.Contains(up, "$") {
				currency = common.CurrencyARS
				haveRunning = false
				lastDate = ""
			}

			if tableHeadRe.MatchString(up) {
				inTable = true
				continue
			}
			if !inTable {
				continue
			}

			if strings.HasPrefix(up, "HOJA ") || strings.Contains(up, "DETALLE DE INTERESES") || strings.Contains(up, "DETALLE DE PLAZOS FIJOS") {
				continue
			}

			if m := prevSaldoRe.FindStringSubmatch(line); m != nil {
				val, err := common.ParseAmount(m[1])
				if err != nil {
					return fmt.Errorf("opening balance: %w", err)
				}
				runningBalance = val
				haveRunning = true
				if currency != "" {
					sectionFor(currency).start = val
					sectionFor(currency).hasStart = true
				}
				continue
			}

			if m := finalSaldoRe.FindStringSubmatch(line); m != nil {
				endVal, err := common.ParseAmount(m[1])
				if err != nil {
					return fmt.Errorf("closing balance: %w", err)
				}
				if currency != "" {
					s := sectionFor(currency)
					s.end = endVal
					s.hasEnd = true
					// The declared closing line must equal the last
					// running balance seen in the table.
					if haveRunning && !runningBalance.Round(2).Equal(endVal.Round(2)) {
						p.sink.Add(common.LevelWarning, "BALANCE_FINAL_MISMATCH",
							"declared final balance does not match the last running balance in the table", map[string]any{
								"currency":         currency,
								"last_table_saldo": runningBalance,
								"declared_final":   endVal,
							})
					}
				}
				inTable = false
				haveRunning = false
				lastDate = ""
				continue
			}

			// Dated row or continuation of the previous dated row.
			var date, rest string
			if m := dateRowRe.FindStringSubmatch(line); m != nil {
				lastDate = m[1]
				date = common.ParseDate(m[1], defaultYear)
				rest = m[2]
			} else if strings.HasPrefix(line, "-") {
				if lastDate != "" {
					date = common.ParseDate(lastDate, defaultYear)
				}
				rest = line
			} else {
				continue
			}

			nums := common.FindNumbers(rest)
			if len(nums) == 0 {
				if currency != "" {
					sectionFor(currency).ignored++
				}
				continue
			}

			saldo, err := common.ParseAmount(nums[len(nums)-1])
			if err != nil {
				return fmt.Errorf("running balance: %w", err)
			}

			var amount decimal.Decimal
			haveAmount := false
			if haveRunning {
				// Most reliable: the delta between running balances.
				amount = saldo.Sub(runningBalance).Round(2)
				haveAmount = true
			} else if len(nums) >= 3 {
				debit, err := common.ParseAmount(nums[len(nums)-3])
				if err != nil {
					return fmt.Errorf("debit column: %w", err)
				}
				credit, err := common.ParseAmount(nums[len(nums)-2])
				if err != nil {
					return fmt.Errorf("credit column: %w", err)
				}
				if !credit.IsZero() {
					amount = credit.Round(2)
				} else {
					amount = debit.Neg().Round(2)
				}
				haveAmount = true
			} else if len(nums) == 2 {
				p.sink.Add(common.LevelWarning, "NO_PREV_BALANCE",
					"could not infer transaction sign (missing previous balance)", common.NormSpace(line))
				if amount, err = common.ParseAmount(nums[0]); err != nil {
					return fmt.Errorf("row amount: %w", err)
				}
				haveAmount = true
			}

			runningBalance = saldo
			haveRunning = true

			if !haveAmount {
				p.sink.Add(common.LevelWarning, "NO_AMOUNT_ROW", "row without debit or credit", common.NormSpace(line))
				continue
			}

			desc := rest
			if idx := common.FirstNumberIndex(rest); idx >= 0 {
				desc = rest[:idx]
			}
			desc = strings.TrimSpace(strings.TrimLeft(common.NormSpace(desc), "-"))
			var instNum, instTotal int
			desc, instNum, instTotal = common.ExtractInstallments(desc)
			desc = common.StripTrailingAmounts(desc)
			var opID string
			desc, opID = common.ExtractTrailingOperationID(desc)

			cur := currency
			if cur == "" {
				cur = common.CurrencyARS
			}
			if currency != "" {
				s := sectionFor(currency)
				s.sum = s.sum.Add(amount)
			}

			result.Transactions = append(result.Transactions, common.Transaction{
				Source: source, Date: date, Description: desc,
				Currency: cur, Amount: amount,
				Person: common.PersonTitular, Kind: common.KindCuenta,
				OperationID: opID, InstallmentNum: instNum, InstallmentTotal: instTotal,
			})
		}
	}

	// Section reconciliation: opening + sum of deltas == declared closing.
	// Fixed currency order keeps the warning sequence stable.
	for _, cur := range []string{common.CurrencyARS, common.CurrencyUSD} {
		s, ok := sections[cur]
		if !ok {
			continue
		}
		if s.hasStart && s.hasEnd {
			common.CheckBalanceSum(p.sink, p.tol, cur, s.start, s.sum.Round(2), s.end, cur == common.CurrencyUSD)
		}
		if s.ignored > 0 {
			p.sink.Add(common.LevelWarning, "IGNORED_ROWS", "table rows that could not be parsed", map[string]any{
				"currency": cur, "count": s.ignored,
			})
		}
	}

	// Expose section balances on the statement row, best-effort.
	if s, ok := sections[common.CurrencyARS]; ok {
		if s.hasStart {
			result.Statement.PrevBalanceARS = decimal.NewNullDecimal(s.start)
		}
		if s.hasEnd {
			result.Statement.CurrBalanceARS = decimal.NewNullDecimal(s.end)
		}
	}
	if s, ok := sections[common.CurrencyUSD]; ok {
		if s.hasStart {
			result.Statement.PrevBalanceUSD = decimal.NewNullDecimal(s.start)
		}
		if s.hasEnd {
			result.Statement.CurrBalanceUSD = decimal.NewNullDecimal(s.end)
		}
	}

	if len(result.Transactions) == 0 {
		p.sink.Add(common.LevelError, "NO_TRANSACTIONS", "no transactions detected", nil)
	}
	if result.Statement.PeriodStart == "" || result.Statement.PeriodEnd == "" {
		p.sink.Add(common.LevelWarning, "MISSING_STATEMENT_FIELD", "missing statement period", map[string]any{
			"field": "period_start/period_end",
		})
	}

	result.Warnings = p.sink.Entries()
	p.result = result
	return nil
}
