package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AccountSum is an aggregated row: the debit and credit totals of one
// account over some window.
type AccountSum struct {
	Konto       string          `json:"konto"`
	Beskrivning string          `json:"beskrivning"`
	Debet       decimal.Decimal `json:"debet"`
	Kredit      decimal.Decimal `json:"kredit"`
}

// Entry is one transaction line joined with its transaction and account,
// used for drill-down lists.
type Entry struct {
	TransaktionID    int64           `json:"transaktion_id"`
	Datum            time.Time       `json:"datum"`
	Beskrivning      string          `json:"beskrivning"`
	Konto            string          `json:"konto"`
	KontoBeskrivning string          `json:"-"`
	Debet            decimal.Decimal `json:"debet"`
	Kredit           decimal.Decimal `json:"kredit"`
	Opening          bool            `json:"-"`
}

// AccountBalance is one account row of a report.
type AccountBalance struct {
	Konto         string          `json:"konto"`
	Beskrivning   string          `json:"beskrivning"`
	Saldo         decimal.Decimal `json:"saldo"`
	Transaktioner []Entry         `json:"transaktioner"`
}

// BalanceSide holds one side (assets or liabilities/equity) of the
// balance report in its three windows.
type BalanceSide struct {
	Opening []AccountBalance `json:"ingaende"`
	Period  []AccountBalance `json:"period"`
	Closing []AccountBalance `json:"utgaende"`
}

// ResultFigures is the cumulative profit/loss from result accounts.
type ResultFigures struct {
	Opening decimal.Decimal `json:"ingaende"`
	Period  decimal.Decimal `json:"period"`
	Closing decimal.Decimal `json:"utgaende"`
}

type BalanceReport struct {
	Period      Period        `json:"period"`
	Assets      BalanceSide   `json:"tillgangar"`
	Liabilities BalanceSide   `json:"skulder"`
	Result      ResultFigures `json:"resultat"`
}

// BalanceWindows are the three aggregations the balance report is built
// from. Period rows with a zero net have already been filtered by the
// query; BuildBalanceReport filters them again so callers can pass raw
// sums.
type BalanceWindows struct {
	Opening []AccountSum
	Period  []AccountSum
	Closing []AccountSum
}

// BuildBalanceReport shapes aggregated sums into the balance report.
// entries are every line from the fiscal year start up to the period end;
// they are attached to the account rows of the window they belong to.
func BuildBalanceReport(p Period, w BalanceWindows, entries []Entry) BalanceReport {
	rep := BalanceReport{Period: p}

	var openingEntries, periodEntries, closingEntries []Entry
	for _, e := range entries {
		if e.Datum.After(p.End) {
			continue
		}
		closingEntries = append(closingEntries, e)
		if e.Opening {
			openingEntries = append(openingEntries, e)
		} else if p.Contains(e.Datum) {
			periodEntries = append(periodEntries, e)
		}
	}

	rep.Assets.Opening, rep.Liabilities.Opening, rep.Result.Opening = splitSides(w.Opening, openingEntries, false)
	rep.Assets.Period, rep.Liabilities.Period, rep.Result.Period = splitSides(w.Period, periodEntries, true)
	rep.Assets.Closing, rep.Liabilities.Closing, rep.Result.Closing = splitSides(w.Closing, closingEntries, false)
	return rep
}

func splitSides(sums []AccountSum, entries []Entry, dropZero bool) (assets, liabilities []AccountBalance, result decimal.Decimal) {
	byKonto := groupEntries(entries)
	assets = []AccountBalance{}
	liabilities = []AccountBalance{}
	for _, s := range sortSums(sums) {
		switch Classify(s.Konto) {
		case Asset, LiabilityEquity:
			saldo := Balance(s.Konto, s.Debet, s.Kredit)
			if dropZero && saldo.IsZero() {
				continue
			}
			row := AccountBalance{Konto: s.Konto, Beskrivning: s.Beskrivning, Saldo: saldo, Transaktioner: byKonto[s.Konto]}
			if row.Transaktioner == nil {
				row.Transaktioner = []Entry{}
			}
			if Classify(s.Konto) == Asset {
				assets = append(assets, row)
			} else {
				liabilities = append(liabilities, row)
			}
		default:
			if IsResultAccount(s.Konto) {
				result = result.Add(Result(s.Debet, s.Kredit))
			}
		}
	}
	return assets, liabilities, result
}

func groupEntries(entries []Entry) map[string][]Entry {
	out := map[string][]Entry{}
	for _, e := range entries {
		out[e.Konto] = append(out[e.Konto], e)
	}
	for _, list := range out {
		sortEntries(list)
	}
	return out
}

func sortSums(sums []AccountSum) []AccountSum {
	out := append([]AccountSum(nil), sums...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Konto < out[j].Konto })
	return out
}

func sortEntries(list []Entry) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].Datum.Equal(list[j].Datum) {
			return list[i].Datum.Before(list[j].Datum)
		}
		return list[i].TransaktionID < list[j].TransaktionID
	})
}

// IncomeAccount is one account row of the income statement.
type IncomeAccount struct {
	Konto         string          `json:"konto"`
	Beskrivning   string          `json:"beskrivning"`
	Belopp        decimal.Decimal `json:"belopp"`
	Foregaende    decimal.Decimal `json:"foregaende"`
	Transaktioner []Entry         `json:"transaktioner"`
}

type IncomeGroup struct {
	Namn            string          `json:"namn"`
	Konton          []IncomeAccount `json:"konton"`
	Summa           decimal.Decimal `json:"summa"`
	SummaForegaende decimal.Decimal `json:"summa_foregaende"`
}

// IncomeStatement compares a year with the previous one. Revenue and
// financial income are positive when credited, costs positive when debited.
type IncomeStatement struct {
	Year                 int             `json:"year"`
	Intakter             IncomeGroup     `json:"rorelseintakter"`
	Rorelsekostnader     IncomeGroup     `json:"rorelsekostnader"`
	FinansiellaIntakter  IncomeGroup     `json:"finansiella_intakter"`
	FinansiellaKostnader IncomeGroup     `json:"finansiella_kostnader"`
	Rorelseresultat      decimal.Decimal `json:"rorelseresultat"`
	RorelseresultatForeg decimal.Decimal `json:"rorelseresultat_foregaende"`
	Resultat             decimal.Decimal `json:"resultat"`
	ResultatForegaende   decimal.Decimal `json:"resultat_foregaende"`
}

// BuildIncomeStatement groups yearly sums by class. entries are the
// current year's lines, attached per account.
func BuildIncomeStatement(year int, current, previous []AccountSum, entries []Entry) IncomeStatement {
	st := IncomeStatement{Year: year}
	groups := map[Class]*IncomeGroup{
		Revenue:          &st.Intakter,
		OperatingExpense: &st.Rorelsekostnader,
		FinancialIncome:  &st.FinansiellaIntakter,
		FinancialExpense: &st.FinansiellaKostnader,
	}
	for c, g := range groups {
		g.Namn = c.String()
		g.Konton = []IncomeAccount{}
	}

	rows := map[string]*IncomeAccount{}
	var order []string
	row := func(s AccountSum) *IncomeAccount {
		if r, ok := rows[s.Konto]; ok {
			return r
		}
		r := &IncomeAccount{Konto: s.Konto, Beskrivning: s.Beskrivning}
		rows[s.Konto] = r
		order = append(order, s.Konto)
		return r
	}
	for _, s := range current {
		if IsResultAccount(s.Konto) {
			r := row(s)
			r.Belopp = r.Belopp.Add(Balance(s.Konto, s.Debet, s.Kredit))
		}
	}
	for _, s := range previous {
		if IsResultAccount(s.Konto) {
			r := row(s)
			r.Foregaende = r.Foregaende.Add(Balance(s.Konto, s.Debet, s.Kredit))
		}
	}

	byKonto := groupEntries(entries)
	sort.Strings(order)
	for _, k := range order {
		r := rows[k]
		r.Transaktioner = byKonto[k]
		if r.Transaktioner == nil {
			r.Transaktioner = []Entry{}
		}
		g := groups[Classify(k)]
		g.Konton = append(g.Konton, *r)
		g.Summa = g.Summa.Add(r.Belopp)
		g.SummaForegaende = g.SummaForegaende.Add(r.Foregaende)
	}

	st.Rorelseresultat = st.Intakter.Summa.Sub(st.Rorelsekostnader.Summa)
	st.RorelseresultatForeg = st.Intakter.SummaForegaende.Sub(st.Rorelsekostnader.SummaForegaende)
	st.Resultat = st.Rorelseresultat.Add(st.FinansiellaIntakter.Summa).Sub(st.FinansiellaKostnader.Summa)
	st.ResultatForegaende = st.RorelseresultatForeg.
		Add(st.FinansiellaIntakter.SummaForegaende).
		Sub(st.FinansiellaKostnader.SummaForegaende)
	return st
}

// LedgerRow is a general ledger line with the running balance after it.
type LedgerRow struct {
	Entry
	Saldo decimal.Decimal `json:"saldo"`
}

// LedgerAccount is one account of the general ledger (huvudbok).
type LedgerAccount struct {
	Konto         string          `json:"konto"`
	Beskrivning   string          `json:"beskrivning"`
	IngaendeSaldo decimal.Decimal `json:"ingaende_saldo"`
	Rader         []LedgerRow     `json:"rader"`
	UtgaendeSaldo decimal.Decimal `json:"utgaende_saldo"`
}

// BuildGeneralLedger groups entries per account in account order. Opening
// balance entries form the incoming balance; the rest are listed by date
// with a running balance under the account's sign convention.
func BuildGeneralLedger(entries []Entry) []LedgerAccount {
	byKonto := groupEntries(entries)
	keys := make([]string, 0, len(byKonto))
	for k := range byKonto {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]LedgerAccount, 0, len(keys))
	for _, k := range keys {
		acc := LedgerAccount{Konto: k, Rader: []LedgerRow{}}
		for _, e := range byKonto[k] {
			if acc.Beskrivning == "" {
				acc.Beskrivning = e.KontoBeskrivning
			}
			if e.Opening {
				acc.IngaendeSaldo = acc.IngaendeSaldo.Add(Balance(k, e.Debet, e.Kredit))
			}
		}
		saldo := acc.IngaendeSaldo
		for _, e := range byKonto[k] {
			if e.Opening {
				continue
			}
			saldo = saldo.Add(Balance(k, e.Debet, e.Kredit))
			acc.Rader = append(acc.Rader, LedgerRow{Entry: e, Saldo: saldo})
		}
		acc.UtgaendeSaldo = saldo
		out = append(out, acc)
	}
	return out
}

// NECodes are the line codes of the NE-bilaga form.
var NECodes = []string{
	"B1", "B2", "B3", "B4", "B5", "B6", "B7", "B8", "B9", "B10",
	"B11", "B12", "B13", "B14", "B15", "B16",
	"R1", "R2", "R3", "R4", "R5", "R6", "R7", "R8", "R9", "R10", "R11",
}

// NEBilaga carries the non-zero balances of a year. Rader is keyed by
// every NE line code; accounts are not distributed onto the codes here,
// the form is filled in by the client from Saldon.
type NEBilaga struct {
	Year   int                         `json:"year"`
	Saldon []AccountBalance            `json:"saldon"`
	Rader  map[string][]AccountBalance `json:"rader"`
}

// BuildNEBilaga keeps the non-zero balances in account order.
func BuildNEBilaga(year int, sums []AccountSum) NEBilaga {
	ne := NEBilaga{Year: year, Saldon: []AccountBalance{}, Rader: make(map[string][]AccountBalance, len(NECodes))}
	for _, code := range NECodes {
		ne.Rader[code] = []AccountBalance{}
	}
	for _, s := range sortSums(sums) {
		saldo := Balance(s.Konto, s.Debet, s.Kredit)
		if saldo.IsZero() {
			continue
		}
		ne.Saldon = append(ne.Saldon, AccountBalance{Konto: s.Konto, Beskrivning: s.Beskrivning, Saldo: saldo, Transaktioner: []Entry{}})
	}
	return ne
}
