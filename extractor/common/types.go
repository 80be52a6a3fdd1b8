package common

import (
	"io"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Statement kinds.
const (
	KindMastercard = "mastercard"
	KindVisa       = "visa"
	KindCuenta     = "cuenta"
)

// Currencies an HSBC Argentina statement can carry.
const (
	CurrencyARS = "ARS"
	CurrencyUSD = "USD"
)

// Warning levels.
const (
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// PersonTitular is the default person a transaction is attributed to until a
// cardholder block says otherwise.
const PersonTitular = "TITULAR"

// Statement is the per-document summary row. Optional balances are
// NullDecimal: savings statements only fill the per-currency fields their
// sections declare.
type Statement struct {
	Source         string              `json:"source"`
	Bank           string              `json:"bank"`
	Kind           string              `json:"kind"`
	PeriodStart    string              `json:"period_start,omitempty"`
	PeriodEnd      string              `json:"period_end,omitempty"`
	PrevBalanceARS decimal.NullDecimal `json:"prev_balance_ars"`
	PrevBalanceUSD decimal.NullDecimal `json:"prev_balance_usd"`
	CurrBalanceARS decimal.NullDecimal `json:"curr_balance_ars"`
	CurrBalanceUSD decimal.NullDecimal `json:"curr_balance_usd"`
}

// Transaction is one recognized movement. Amount is signed: debits negative,
// credits positive. InstallmentNum/InstallmentTotal are both zero when the
// description carried no installment marker.
type Transaction struct {
	Source           string          `json:"source"`
	Date             string          `json:"date"`
	Description      string          `json:"description"`
	Currency         string          `json:"currency"`
	Amount           decimal.Decimal `json:"amount"`
	Person           string          `json:"person"`
	Kind             string          `json:"kind"`
	OperationID      string          `json:"operation_id,omitempty"`
	InstallmentNum   int             `json:"installment_num,omitempty"`
	InstallmentTotal int             `json:"installment_total,omitempty"`
}

// Warning is a recorded anomaly. Context stays untyped inside the engine;
// exporters flatten it to text at their own boundary.
type Warning struct {
	Source  string `json:"source"`
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Context any    `json:"context,omitempty"`
}

// Result is what a completed parse leaves behind.
type Result struct {
	Statement    Statement     `json:"statement"`
	Transactions []Transaction `json:"transactions"`
	Warnings     []Warning     `json:"warnings"`
}

// StatementParser is the contract all three variants implement. Parse is
// called once; it returns an error only for infrastructure failure (source
// unreadable). Malformed statement content becomes Warnings on the Result.
type StatementParser interface {
	Parse() error
	Result() *Result
}

// Warnings is the append-only sink attached to a parser. Appends are mirrored
// to the attached logger; the sink itself never fails regardless of the
// context shape.
type Warnings struct {
	source  string
	log     *logrus.Logger
	entries []Warning
}

func NewWarnings(source string, log *logrus.Logger) *Warnings {
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Warnings{source: source, log: log}
}

func (w *Warnings) Add(level, code, message string, context any) {
	w.entries = append(w.entries, Warning{
		Source:  w.source,
		Level:   level,
		Code:    code,
		Message: message,
		Context: context,
	})

	entry := w.log.WithFields(logrus.Fields{"source": w.source, "code": code, "context": context})
	switch level {
	case LevelError:
		entry.Error(message)
	case LevelInfo:
		entry.Info(message)
	default:
		entry.Warn(message)
	}
}

// Entries returns the recorded warnings in append order.
func (w *Warnings) Entries() []Warning {
	return w.entries
}

// HasCode reports whether any recorded warning carries the given code.
func (w *Warnings) HasCode(code string) bool {
	for _, e := range w.entries {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Options configures a variant parser. The zero value is usable: a nil Logger
// discards, a zero Tolerance falls back to DefaultTolerance and a zero
// Lexicon is loaded from configuration (built-in defaults when unset).
type Options struct {
	Logger    *logrus.Logger
	Tolerance Tolerance
	Lexicon   Lexicon
}

// Normalize fills in the defaults described above.
func (o Options) Normalize() Options {
	if o.Logger == nil {
		o.Logger = logrus.New()
		o.Logger.SetOutput(io.Discard)
	}
	if o.Tolerance.Ratio == 0 {
		o.Tolerance = ToleranceFromConfig()
	}
	if !o.Lexicon.loaded {
		o.Lexicon = LexiconFromConfig()
	}
	return o
}
