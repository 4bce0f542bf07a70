package ledger

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func TestBalanceReportOpeningOnly(t *testing.T) {
	c := qt.New(t)
	p, err := ParsePeriod("2024", "")
	c.Assert(err, qt.IsNil)

	ib := []AccountSum{
		{Konto: "1930", Beskrivning: "Företagskonto", Debet: dec("1000")},
		{Konto: "2010", Beskrivning: "Eget kapital", Kredit: dec("1000")},
	}
	entries := []Entry{
		{TransaktionID: 1, Datum: day(2024, 1, 1), Beskrivning: "Ingående balanser", Konto: "1930", Debet: dec("1000"), Opening: true},
		{TransaktionID: 1, Datum: day(2024, 1, 1), Beskrivning: "Ingående balanser", Konto: "2010", Kredit: dec("1000"), Opening: true},
	}
	rep := BuildBalanceReport(p, BalanceWindows{Opening: ib, Closing: ib}, entries)

	c.Assert(rep.Assets.Opening, qt.HasLen, 1)
	c.Assert(rep.Assets.Opening[0].Konto, qt.Equals, "1930")
	c.Assert(rep.Assets.Opening[0].Saldo.StringFixed(2), qt.Equals, "1000.00")
	c.Assert(rep.Assets.Opening[0].Transaktioner, qt.HasLen, 1)
	c.Assert(rep.Assets.Period, qt.HasLen, 0)
	c.Assert(rep.Assets.Closing, qt.HasLen, 1)
	c.Assert(rep.Assets.Closing[0].Saldo.StringFixed(2), qt.Equals, "1000.00")
	c.Assert(rep.Liabilities.Closing[0].Saldo.StringFixed(2), qt.Equals, "1000.00")
	c.Assert(rep.Result.Closing.IsZero(), qt.IsTrue)
}

func TestBalanceReportPeriodDropsZeroMovement(t *testing.T) {
	c := qt.New(t)
	p, err := ParsePeriod("2024", "03")
	c.Assert(err, qt.IsNil)

	period := []AccountSum{
		{Konto: "1930", Debet: dec("500"), Kredit: dec("500")},
		{Konto: "1510", Debet: dec("1250")},
		{Konto: "2611", Kredit: dec("250")},
		{Konto: "3001", Kredit: dec("1000")},
	}
	entries := []Entry{
		{TransaktionID: 2, Datum: day(2024, 2, 10), Konto: "1510", Debet: dec("99")},
		{TransaktionID: 3, Datum: day(2024, 3, 5), Konto: "1510", Debet: dec("1250")},
		{TransaktionID: 4, Datum: day(2024, 4, 1), Konto: "1510", Debet: dec("7")},
	}
	rep := BuildBalanceReport(p, BalanceWindows{Period: period}, entries)

	c.Assert(rep.Assets.Period, qt.HasLen, 1)
	c.Assert(rep.Assets.Period[0].Konto, qt.Equals, "1510")
	c.Assert(rep.Assets.Period[0].Transaktioner, qt.HasLen, 1)
	c.Assert(rep.Assets.Period[0].Transaktioner[0].TransaktionID, qt.Equals, int64(3))
	c.Assert(rep.Liabilities.Period[0].Saldo.StringFixed(2), qt.Equals, "250.00")
	c.Assert(rep.Result.Period.StringFixed(2), qt.Equals, "1000.00")
}

func TestIncomeStatementRevenueGroup(t *testing.T) {
	c := qt.New(t)
	current := []AccountSum{
		{Konto: "3000", Beskrivning: "Försäljning", Kredit: dec("800")},
		{Konto: "5010", Beskrivning: "Lokalhyra", Debet: dec("300")},
		{Konto: "8310", Beskrivning: "Ränteintäkter", Kredit: dec("20")},
		{Konto: "8410", Beskrivning: "Räntekostnader", Debet: dec("15")},
		{Konto: "1930", Beskrivning: "Företagskonto", Debet: dec("800")},
	}
	previous := []AccountSum{
		{Konto: "3000", Beskrivning: "Försäljning", Kredit: dec("400")},
		{Konto: "6110", Beskrivning: "Kontorsmateriel", Debet: dec("50")},
	}
	entries := []Entry{
		{TransaktionID: 1, Datum: day(2024, 5, 1), Konto: "3000", Kredit: dec("500")},
		{TransaktionID: 2, Datum: day(2024, 6, 1), Konto: "3000", Kredit: dec("300")},
	}
	st := BuildIncomeStatement(2024, current, previous, entries)

	c.Assert(st.Intakter.Summa.StringFixed(2), qt.Equals, "800.00")
	c.Assert(st.Intakter.SummaForegaende.StringFixed(2), qt.Equals, "400.00")
	c.Assert(st.Intakter.Konton[0].Transaktioner, qt.HasLen, 2)
	c.Assert(st.Rorelsekostnader.Konton, qt.HasLen, 2)
	c.Assert(st.Rorelsekostnader.Summa.StringFixed(2), qt.Equals, "300.00")
	c.Assert(st.Rorelseresultat.StringFixed(2), qt.Equals, "500.00")
	c.Assert(st.RorelseresultatForeg.StringFixed(2), qt.Equals, "350.00")
	c.Assert(st.Resultat.StringFixed(2), qt.Equals, "505.00")
	c.Assert(st.FinansiellaKostnader.Summa.StringFixed(2), qt.Equals, "15.00")
}

func TestGeneralLedgerRunningBalance(t *testing.T) {
	c := qt.New(t)
	entries := []Entry{
		{TransaktionID: 3, Datum: day(2024, 2, 1), Konto: "1930", KontoBeskrivning: "Företagskonto", Kredit: dec("200")},
		{TransaktionID: 1, Datum: day(2024, 1, 1), Konto: "1930", KontoBeskrivning: "Företagskonto", Debet: dec("1000"), Opening: true},
		{TransaktionID: 2, Datum: day(2024, 1, 15), Konto: "1930", KontoBeskrivning: "Företagskonto", Debet: dec("500")},
		{TransaktionID: 2, Datum: day(2024, 1, 15), Konto: "3001", KontoBeskrivning: "Försäljning", Kredit: dec("500")},
	}
	gl := BuildGeneralLedger(entries)

	c.Assert(gl, qt.HasLen, 2)
	bank := gl[0]
	c.Assert(bank.Konto, qt.Equals, "1930")
	c.Assert(bank.Beskrivning, qt.Equals, "Företagskonto")
	c.Assert(bank.IngaendeSaldo.StringFixed(2), qt.Equals, "1000.00")
	c.Assert(bank.Rader, qt.HasLen, 2)
	c.Assert(bank.Rader[0].Saldo.StringFixed(2), qt.Equals, "1500.00")
	c.Assert(bank.Rader[1].Saldo.StringFixed(2), qt.Equals, "1300.00")
	c.Assert(bank.UtgaendeSaldo.StringFixed(2), qt.Equals, "1300.00")
	c.Assert(gl[1].UtgaendeSaldo.StringFixed(2), qt.Equals, "500.00")
}

func TestNEBilagaKeepsNonZero(t *testing.T) {
	c := qt.New(t)
	ne := BuildNEBilaga(2024, []AccountSum{
		{Konto: "3001", Kredit: dec("900")},
		{Konto: "1930", Debet: dec("100"), Kredit: dec("100")},
	})
	c.Assert(ne.Saldon, qt.HasLen, 1)
	c.Assert(ne.Saldon[0].Konto, qt.Equals, "3001")
	c.Assert(ne.Rader, qt.HasLen, len(NECodes))
	c.Assert(ne.Rader["B1"], qt.HasLen, 0)
}
