// Package ledger holds the bookkeeping rules shared by every flow that
// writes or reads transactions: account classification, the double-entry
// check, sign conventions and report periods.
package ledger

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnbalanced   = errors.New("debet och kredit balanserar inte")
	ErrNoLines      = errors.New("transaktionen saknar poster")
	ErrInvalidLine  = errors.New("ogiltig transaktionspost")
	ErrInvalidYear  = errors.New("ogiltigt år")
	ErrInvalidMonth = errors.New("ogiltig månad")
)

// Class is the report bucket an account belongs to, decided by the
// leading digits of the account number.
type Class int

const (
	Unknown Class = iota
	Asset
	LiabilityEquity
	Revenue
	OperatingExpense
	FinancialIncome
	FinancialExpense
)

func (c Class) String() string {
	switch c {
	case Asset:
		return "tillgångar"
	case LiabilityEquity:
		return "eget kapital och skulder"
	case Revenue:
		return "rörelseintäkter"
	case OperatingExpense:
		return "rörelsekostnader"
	case FinancialIncome:
		return "finansiella intäkter"
	case FinancialExpense:
		return "finansiella kostnader"
	}
	return "okänd"
}

var kontoRe = regexp.MustCompile(`^[1-8][0-9]{3}$`)

// ValidKonto reports whether s is a four digit BAS account number.
func ValidKonto(s string) bool { return kontoRe.MatchString(s) }

// Classify buckets a BAS account number.
func Classify(konto string) Class {
	if !ValidKonto(konto) {
		return Unknown
	}
	switch konto[0] {
	case '1':
		return Asset
	case '2':
		return LiabilityEquity
	case '3':
		return Revenue
	case '4', '5', '6', '7':
		return OperatingExpense
	case '8':
		if konto[1] <= '3' {
			return FinancialIncome
		}
		return FinancialExpense
	}
	return Unknown
}

// IsResultAccount reports whether the account belongs to the income
// statement (3xxx-8xxx).
func IsResultAccount(konto string) bool {
	switch Classify(konto) {
	case Revenue, OperatingExpense, FinancialIncome, FinancialExpense:
		return true
	}
	return false
}

// Balance applies the sign convention of the account's class: assets and
// costs are debit minus credit, everything else credit minus debit.
func Balance(konto string, debet, kredit decimal.Decimal) decimal.Decimal {
	switch Classify(konto) {
	case Asset, OperatingExpense, FinancialExpense:
		return debet.Sub(kredit)
	}
	return kredit.Sub(debet)
}

// Result is the profit contribution of a result account: credit minus
// debit regardless of class.
func Result(debet, kredit decimal.Decimal) decimal.Decimal {
	return kredit.Sub(debet)
}

// Round rounds to whole öre.
func Round(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// Line is one debit or credit posting.
type Line struct {
	Konto  string          `json:"konto"`
	Debet  decimal.Decimal `json:"debet"`
	Kredit decimal.Decimal `json:"kredit"`
}

// Totals sums debit and credit over lines.
func Totals(lines []Line) (debet, kredit decimal.Decimal) {
	for _, l := range lines {
		debet = debet.Add(l.Debet)
		kredit = kredit.Add(l.Kredit)
	}
	return debet, kredit
}

// CheckBalanced enforces the double-entry invariant: at least two lines,
// every line a valid account with exactly one non-negative side set, and
// sum(debet) == sum(kredit).
func CheckBalanced(lines []Line) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	for i, l := range lines {
		if !ValidKonto(l.Konto) {
			return fmt.Errorf("%w: rad %d har ogiltigt konto %q", ErrInvalidLine, i+1, l.Konto)
		}
		if l.Debet.IsNegative() || l.Kredit.IsNegative() {
			return fmt.Errorf("%w: rad %d har negativt belopp", ErrInvalidLine, i+1)
		}
		if l.Debet.IsZero() == l.Kredit.IsZero() {
			return fmt.Errorf("%w: rad %d måste ha antingen debet eller kredit", ErrInvalidLine, i+1)
		}
	}
	if len(lines) < 2 {
		return ErrUnbalanced
	}
	d, k := Totals(lines)
	if !d.Equal(k) {
		return fmt.Errorf("%w: debet %s, kredit %s", ErrUnbalanced, d.StringFixed(2), k.StringFixed(2))
	}
	return nil
}

// Debit and Credit build single-sided lines rounded to öre.
func Debit(konto string, amount decimal.Decimal) Line {
	return Line{Konto: konto, Debet: Round(amount)}
}

func Credit(konto string, amount decimal.Decimal) Line {
	return Line{Konto: konto, Kredit: Round(amount)}
}

// Compact drops zero lines and merges lines on the same account and side,
// keeping first-seen order.
func Compact(lines []Line) []Line {
	type key struct {
		konto string
		debit bool
	}
	idx := map[key]int{}
	var out []Line
	for _, l := range lines {
		if l.Debet.IsZero() && l.Kredit.IsZero() {
			continue
		}
		k := key{l.Konto, !l.Debet.IsZero()}
		if i, ok := idx[k]; ok {
			out[i].Debet = out[i].Debet.Add(l.Debet)
			out[i].Kredit = out[i].Kredit.Add(l.Kredit)
			continue
		}
		idx[k] = len(out)
		out = append(out, l)
	}
	return out
}

var (
	yearRe  = regexp.MustCompile(`^[0-9]{4}$`)
	monthRe = regexp.MustCompile(`^(0[1-9]|1[0-2])$`)
)

// Period is a report window inside one fiscal (calendar) year. End is
// inclusive.
type Period struct {
	Year  int       `json:"year"`
	Month int       `json:"month,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// YearStart is the first day of the period's fiscal year.
func (p Period) YearStart() time.Time {
	return time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether d falls inside [Start, End].
func (p Period) Contains(d time.Time) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// ParsePeriod validates a 4-digit year and an optional 2-digit month.
func ParsePeriod(year, month string) (Period, error) {
	if !yearRe.MatchString(year) {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidYear, year)
	}
	y, _ := strconv.Atoi(year)
	if y < 1900 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidYear, year)
	}
	if month == "" {
		return Period{
			Year:  y,
			Start: time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(y, time.December, 31, 0, 0, 0, 0, time.UTC),
		}, nil
	}
	if !monthRe.MatchString(month) {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	m, _ := strconv.Atoi(month)
	start := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: y, Month: m, Start: start, End: start.AddDate(0, 1, -1)}, nil
}
