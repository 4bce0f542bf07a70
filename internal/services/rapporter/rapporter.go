// Package rapporter aggregates booked postings into the balance report,
// the income statement, the NE-bilaga, the general ledger and the list of
// verifications.
package rapporter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bokfor/internal/ledger"
	"bokfor/internal/models"
	"bokfor/internal/services"
)

// ErrReportFailed is returned when a query fails. The cause is logged, not
// exposed.
var ErrReportFailed = errors.New("kunde inte skapa rapporten")

type Service struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func New(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, lg: lg}
}

// openingFilter selects which side of the opening-balance marker a query
// covers.
type openingFilter int

const (
	allRows openingFilter = iota
	onlyOpening
	withoutOpening
)

const sumsQuery = `
SELECT k.kontonummer AS konto, k.beskrivning AS beskrivning,
       COALESCE(SUM(p.debet), 0) AS debet, COALESCE(SUM(p.kredit), 0) AS kredit
FROM transaktionsposter p
JOIN transaktioner t ON t.id = p.transaktion_id
JOIN konton k ON k.id = p.konto_id
WHERE t.user_id = @user AND t.datum >= @from AND t.datum <= @to %s
GROUP BY k.kontonummer, k.beskrivning
%s
ORDER BY k.kontonummer`

const entriesQuery = `
SELECT t.id AS transaktion_id, t.datum AS datum, t.beskrivning AS beskrivning,
       k.kontonummer AS konto, k.beskrivning AS konto_beskrivning,
       p.debet AS debet, p.kredit AS kredit,
       (t.beskrivning = @marker) AS opening
FROM transaktionsposter p
JOIN transaktioner t ON t.id = p.transaktion_id
JOIN konton k ON k.id = p.konto_id
WHERE t.user_id = @user AND t.datum >= @from AND t.datum <= @to
ORDER BY t.datum, t.id, p.id`

// beginning is the lower bound of the windows that have none.
var beginning = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)

func (s *Service) sums(ctx context.Context, userID int64, from, to time.Time, f openingFilter, nonZero bool) ([]ledger.AccountSum, error) {
	var where, having string
	switch f {
	case onlyOpening:
		where = "AND t.beskrivning = @marker"
	case withoutOpening:
		where = "AND t.beskrivning <> @marker"
	}
	if nonZero {
		having = "HAVING SUM(p.debet) - SUM(p.kredit) <> 0"
	}
	var out []ledger.AccountSum
	err := s.db.WithContext(ctx).Raw(fmt.Sprintf(sumsQuery, where, having), map[string]any{
		"user":   userID,
		"from":   from,
		"to":     to,
		"marker": models.OpeningBalanceMarker,
	}).Scan(&out).Error
	return out, err
}

func (s *Service) entries(ctx context.Context, userID int64, from, to time.Time) ([]ledger.Entry, error) {
	var out []ledger.Entry
	err := s.db.WithContext(ctx).Raw(entriesQuery, map[string]any{
		"user":   userID,
		"from":   from,
		"to":     to,
		"marker": models.OpeningBalanceMarker,
	}).Scan(&out).Error
	return out, err
}

func (s *Service) fail(report string, userID int64, err error) error {
	s.lg.Errorw("report query failed", "report", report, "user_id", userID, "error", err)
	return fmt.Errorf("%w: %s", ErrReportFailed, report)
}

func period(year, month string) (ledger.Period, error) {
	p, err := ledger.ParsePeriod(year, month)
	if err != nil {
		return ledger.Period{}, services.Invalid("%s", err.Error())
	}
	return p, nil
}

// Balance builds the balance report for a year or one month of it.
// Opening is every opening-balance transaction up to the period end, period
// is the window without them and closing is every row up to the period end,
// so balances carry over from earlier years.
func (s *Service) Balance(ctx context.Context, userID int64, year, month string) (*ledger.BalanceReport, error) {
	p, err := period(year, month)
	if err != nil {
		return nil, err
	}

	var w ledger.BalanceWindows
	if w.Opening, err = s.sums(ctx, userID, beginning, p.End, onlyOpening, false); err != nil {
		return nil, s.fail("balans", userID, err)
	}
	if w.Period, err = s.sums(ctx, userID, p.Start, p.End, withoutOpening, true); err != nil {
		return nil, s.fail("balans", userID, err)
	}
	if w.Closing, err = s.sums(ctx, userID, beginning, p.End, allRows, false); err != nil {
		return nil, s.fail("balans", userID, err)
	}
	entries, err := s.entries(ctx, userID, beginning, p.End)
	if err != nil {
		return nil, s.fail("balans", userID, err)
	}
	rep := ledger.BuildBalanceReport(p, w, entries)
	return &rep, nil
}

// IncomeStatement compares a year's result accounts with the year before.
func (s *Service) IncomeStatement(ctx context.Context, userID int64, year string) (*ledger.IncomeStatement, error) {
	p, err := period(year, "")
	if err != nil {
		return nil, err
	}
	prev := ledger.Period{
		Year:  p.Year - 1,
		Start: p.Start.AddDate(-1, 0, 0),
		End:   p.End.AddDate(-1, 0, 0),
	}
	current, err := s.sums(ctx, userID, p.Start, p.End, allRows, false)
	if err != nil {
		return nil, s.fail("resultat", userID, err)
	}
	previous, err := s.sums(ctx, userID, prev.Start, prev.End, allRows, false)
	if err != nil {
		return nil, s.fail("resultat", userID, err)
	}
	entries, err := s.entries(ctx, userID, p.Start, p.End)
	if err != nil {
		return nil, s.fail("resultat", userID, err)
	}
	st := ledger.BuildIncomeStatement(p.Year, current, previous, entries)
	return &st, nil
}

// NEBilaga returns the year's non-zero account balances for the NE form.
func (s *Service) NEBilaga(ctx context.Context, userID int64, year string) (*ledger.NEBilaga, error) {
	p, err := period(year, "")
	if err != nil {
		return nil, err
	}
	sums, err := s.sums(ctx, userID, p.Start, p.End, allRows, true)
	if err != nil {
		return nil, s.fail("ne-bilaga", userID, err)
	}
	ne := ledger.BuildNEBilaga(p.Year, sums)
	return &ne, nil
}

// GeneralLedger is the huvudbok of a year or month.
func (s *Service) GeneralLedger(ctx context.Context, userID int64, year, month string) ([]ledger.LedgerAccount, error) {
	p, err := period(year, month)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries(ctx, userID, p.YearStart(), p.End)
	if err != nil {
		return nil, s.fail("huvudbok", userID, err)
	}
	// Lines before the window roll into the incoming balance.
	for i := range entries {
		if entries[i].Datum.Before(p.Start) {
			entries[i].Opening = true
		}
	}
	return ledger.BuildGeneralLedger(entries), nil
}

// Verifications lists the year's transactions with their postings in
// booking order.
func (s *Service) Verifications(ctx context.Context, userID int64, year string) ([]models.Transaktion, error) {
	p, err := period(year, "")
	if err != nil {
		return nil, err
	}
	var out []models.Transaktion
	err = s.db.WithContext(ctx).
		Preload("Poster", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Poster.Konto").
		Where("user_id = ? AND datum >= ? AND datum <= ?", userID, p.Start, p.End).
		Order("datum, id").
		Find(&out).Error
	if err != nil {
		return nil, s.fail("verifikationer", userID, err)
	}
	return out, nil
}
