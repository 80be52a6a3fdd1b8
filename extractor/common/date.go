package common

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// months maps the three-letter abbreviations the statements use. Spanish and
// English overlap on several entries, so one table covers both.
var months = map[string]int{
	"ENE": 1, "JAN": 1,
	"FEB": 2,
	"MAR": 3,
	"ABR": 4, "APR": 4,
	"MAY": 5,
	"JUN": 6,
	"JUL": 7,
	"AGO": 8, "AUG": 8,
	"SEP": 9, "SET": 9,
	"OCT": 10,
	"NOV": 11,
	"DIC": 12, "DEC": 12,
}

var (
	dateSlashRe = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	dateDotRe   = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{2})$`)
	dateMonRe   = regexp.MustCompile(`^(\d{2})[- ]([A-Za-z]{3})[- ](\d{2})$`)
	dateShortRe = regexp.MustCompile(`^(\d{2})-([A-Za-z]{3})$`)
	dateLooseRe = regexp.MustCompile(`(\d{1,2})[\s-]+([A-Za-z]{3})[\s-]+(\d{2,4})`)
)

// ParseDate converts a statement date token into ISO form (YYYY-MM-DD).
// Supported shapes: DD/MM/YYYY, DD.MM.YY, DD-Mon-YY, DD Mon YY, and the short
// DD-Mon form, which needs the caller-supplied default year because only the
// surrounding statement knows it. Unrecognized input returns "" — callers
// treat an empty date as unknown, not as an error.
func ParseDate(s string, defaultYear int) string {
	t := strings.TrimSpace(s)

	if m := dateSlashRe.FindStringSubmatch(t); m != nil {
		return isoDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := dateDotRe.FindStringSubmatch(t); m != nil {
		return isoDate(2000+atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := dateMonRe.FindStringSubmatch(t); m != nil {
		mon, ok := months[strings.ToUpper(m[2])]
		if !ok {
			return ""
		}
		return isoDate(2000+atoi(m[3]), mon, atoi(m[1]))
	}
	if m := dateShortRe.FindStringSubmatch(t); m != nil {
		if defaultYear == 0 {
			return ""
		}
		mon, ok := months[strings.ToUpper(m[2])]
		if !ok {
			return ""
		}
		return isoDate(defaultYear, mon, atoi(m[1]))
	}
	return ""
}

// ParseDateLoose finds a "25 Ene 24" style date anywhere inside s. The Visa
// header prints closing dates with surrounding label text, so this scans
// instead of anchoring.
func ParseDateLoose(s string) string {
	m := dateLooseRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	mon, ok := months[strings.ToUpper(m[2])]
	if !ok {
		return ""
	}
	year := atoi(m[3])
	if year < 100 {
		year += 2000
	}
	return isoDate(year, mon, atoi(m[1]))
}

// AddDays shifts an ISO date by n calendar days. Returns "" for input that is
// not an ISO date.
func AddDays(iso string, n int) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, n).Format("2006-01-02")
}

func isoDate(year, month, day int) string {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
