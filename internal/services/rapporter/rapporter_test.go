package rapporter

import (
	"context"
	"errors"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bokfor/internal/database/dbtest"
	"bokfor/internal/ledger"
	"bokfor/internal/models"
	"bokfor/internal/services"
	"bokfor/internal/services/bokforing"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC) }

type fixture struct {
	s   *Service
	bf  *bokforing.Service
	uid int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.New(t)
	if err := bokforing.Seed(context.Background(), db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	u := models.User{Email: "maja@example.se", PasswordHash: "x"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	lg := zap.NewNop().Sugar()
	return fixture{s: New(db, lg), bf: bokforing.New(db, lg), uid: u.ID}
}

func (f fixture) book(t *testing.T, datum time.Time, beskrivning string, lines ...ledger.Line) {
	t.Helper()
	if _, err := f.bf.Book(context.Background(), f.uid, bokforing.Entry{Datum: datum, Beskrivning: beskrivning, Lines: lines}); err != nil {
		t.Fatalf("book %s: %v", beskrivning, err)
	}
}

func saldo(rows []ledger.AccountBalance, konto string) (decimal.Decimal, bool) {
	for _, r := range rows {
		if r.Konto == konto {
			return r.Saldo, true
		}
	}
	return decimal.Zero, false
}

func TestBalanceOpeningOnlyYear(t *testing.T) {
	c := qt.New(t)
	f := newFixture(t)
	f.book(t, day(2024, 1, 1), models.OpeningBalanceMarker,
		ledger.Debit("1930", dec("1000")),
		ledger.Credit("2010", dec("1000")),
	)

	rep, err := f.s.Balance(context.Background(), f.uid, "2024", "")
	c.Assert(err, qt.IsNil)

	opening, ok := saldo(rep.Assets.Opening, "1930")
	c.Assert(ok, qt.IsTrue)
	c.Assert(opening.StringFixed(2), qt.Equals, "1000.00")
	c.Assert(rep.Assets.Period, qt.HasLen, 0)
	closing, ok := saldo(rep.Assets.Closing, "1930")
	c.Assert(ok, qt.IsTrue)
	c.Assert(closing.StringFixed(2), qt.Equals, "1000.00")

	eq, ok := saldo(rep.Liabilities.Closing, "2010")
	c.Assert(ok, qt.IsTrue)
	c.Assert(eq.StringFixed(2), qt.Equals, "1000.00")
}

func TestBalanceMonthAndResult(t *testing.T) {
	c := qt.New(t)
	f := newFixture(t)
	f.book(t, day(2024, 1, 1), models.OpeningBalanceMarker,
		ledger.Debit("1930", dec("1000")), ledger.Credit("2010", dec("1000")))
	f.book(t, day(2024, 2, 10), "Försäljning",
		ledger.Debit("1930", dec("500")), ledger.Credit("3004", dec("500")))
	f.book(t, day(2024, 3, 5), "Bankavgift",
		ledger.Debit("6570", dec("40")), ledger.Credit("1930", dec("40")))

	rep, err := f.s.Balance(context.Background(), f.uid, "2024", "03")
	c.Assert(err, qt.IsNil)
	period, _ := saldo(rep.Assets.Period, "1930")
	c.Assert(period.StringFixed(2), qt.Equals, "-40.00")
	closing, _ := saldo(rep.Assets.Closing, "1930")
	c.Assert(closing.StringFixed(2), qt.Equals, "1460.00")
	c.Assert(rep.Result.Period.StringFixed(2), qt.Equals, "-40.00")
	c.Assert(rep.Result.Closing.StringFixed(2), qt.Equals, "460.00")

	_, err = f.s.Balance(context.Background(), f.uid, "24", "")
	_, isValidation := services.AsValidation(err)
	c.Assert(isValidation, qt.IsTrue)
	_, err = f.s.Balance(context.Background(), f.uid, "2024", "13")
	_, isValidation = services.AsValidation(err)
	c.Assert(isValidation, qt.IsTrue)
}

func TestBalanceCarriesEarlierYears(t *testing.T) {
	c := qt.New(t)
	f := newFixture(t)
	f.book(t, day(2023, 6, 1), "Insättning",
		ledger.Debit("1930", dec("1000")), ledger.Credit("2010", dec("1000")))
	f.book(t, day(2024, 2, 1), "Försäljning",
		ledger.Debit("1930", dec("200")), ledger.Credit("3004", dec("200")))
	f.book(t, day(2025, 1, 10), "Nästa år",
		ledger.Debit("1930", dec("999")), ledger.Credit("3004", dec("999")))

	rep, err := f.s.Balance(context.Background(), f.uid, "2024", "")
	c.Assert(err, qt.IsNil)
	closing, ok := saldo(rep.Assets.Closing, "1930")
	c.Assert(ok, qt.IsTrue)
	c.Assert(closing.StringFixed(2), qt.Equals, "1200.00")
	eq, ok := saldo(rep.Liabilities.Closing, "2010")
	c.Assert(ok, qt.IsTrue)
	c.Assert(eq.StringFixed(2), qt.Equals, "1000.00")
	period, _ := saldo(rep.Assets.Period, "1930")
	c.Assert(period.StringFixed(2), qt.Equals, "200.00")
	c.Assert(rep.Assets.Opening, qt.HasLen, 0)
}

func TestIncomeStatementRevenueGroup(t *testing.T) {
	c := qt.New(t)
	f := newFixture(t)
	f.book(t, day(2024, 4, 1), "Försäljning 1",
		ledger.Debit("1930", dec("500")), ledger.Credit("3004", dec("500")))
	f.book(t, day(2024, 5, 1), "Försäljning 2",
		ledger.Debit("1930", dec("300")), ledger.Credit("3004", dec("300")))
	f.book(t, day(2023, 5, 1), "Förra året",
		ledger.Debit("1930", dec("200")), ledger.Credit("3004", dec("200")))
	f.book(t, day(2024, 6, 1), "Ränta",
		ledger.Debit("8410", dec("25")), ledger.Credit("1930", dec("25")))

	st, err := f.s.IncomeStatement(context.Background(), f.uid, "2024")
	c.Assert(err, qt.IsNil)
	c.Assert(st.Intakter.Summa.StringFixed(2), qt.Equals, "800.00")
	c.Assert(st.Intakter.SummaForegaende.StringFixed(2), qt.Equals, "200.00")
	c.Assert(st.Intakter.Konton[0].Transaktioner, qt.HasLen, 2)
	c.Assert(st.FinansiellaKostnader.Summa.StringFixed(2), qt.Equals, "25.00")
	c.Assert(st.Resultat.StringFixed(2), qt.Equals, "775.00")

	ne, err := f.s.NEBilaga(context.Background(), f.uid, "2024")
	c.Assert(err, qt.IsNil)
	rev, ok := saldo(ne.Saldon, "3004")
	c.Assert(ok, qt.IsTrue)
	c.Assert(rev.StringFixed(2), qt.Equals, "800.00")
	c.Assert(ne.Rader, qt.HasLen, len(ledger.NECodes))
}

func TestGeneralLedgerAndVerifications(t *testing.T) {
	c := qt.New(t)
	f := newFixture(t)
	f.book(t, day(2024, 1, 15), "Januari",
		ledger.Debit("1930", dec("100")), ledger.Credit("3004", dec("100")))
	f.book(t, day(2024, 2, 15), "Februari",
		ledger.Debit("1930", dec("50")), ledger.Credit("3004", dec("50")))

	hb, err := f.s.GeneralLedger(context.Background(), f.uid, "2024", "02")
	c.Assert(err, qt.IsNil)
	c.Assert(hb[0].Konto, qt.Equals, "1930")
	c.Assert(hb[0].IngaendeSaldo.StringFixed(2), qt.Equals, "100.00")
	c.Assert(hb[0].Rader, qt.HasLen, 1)
	c.Assert(hb[0].UtgaendeSaldo.StringFixed(2), qt.Equals, "150.00")

	ver, err := f.s.Verifications(context.Background(), f.uid, "2024")
	c.Assert(err, qt.IsNil)
	c.Assert(ver, qt.HasLen, 2)
	c.Assert(ver[0].Beskrivning, qt.Equals, "Januari")
	c.Assert(ver[0].Poster, qt.HasLen, 2)
}

func TestReportFailureIsWrapped(t *testing.T) {
	c := qt.New(t)
	f := newFixture(t)
	sqlDB, err := f.s.db.DB()
	c.Assert(err, qt.IsNil)
	c.Assert(sqlDB.Close(), qt.IsNil)

	_, err = f.s.NEBilaga(context.Background(), f.uid, "2024")
	c.Assert(errors.Is(err, ErrReportFailed), qt.IsTrue)
}
