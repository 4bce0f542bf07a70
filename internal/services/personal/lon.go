package personal

import (
	"github.com/shopspring/decimal"

	"bokfor/internal/ledger"
	"bokfor/internal/models"
)

// Arbetsgivaravgift is the full employer contribution rate.
var Arbetsgivaravgift = decimal.RequireFromString("0.3142")

// Lon is a computed salary.
type Lon struct {
	Grundlon        decimal.Decimal `json:"grundlon"`
	Tillagg         decimal.Decimal `json:"tillagg"`
	Avdrag          decimal.Decimal `json:"avdrag"`
	Bruttolon       decimal.Decimal `json:"bruttolon"`
	Formaner        decimal.Decimal `json:"formaner"`
	Skattepliktigt  decimal.Decimal `json:"skattepliktigt"`
	Skatt           decimal.Decimal `json:"skatt"`
	Nettolon        decimal.Decimal `json:"nettolon"`
	SocialaAvgifter decimal.Decimal `json:"sociala_avgifter"`
}

// Belopp is the extra row's total.
func Belopp(r models.Extrarad) decimal.Decimal {
	antal := r.Antal
	if antal.IsZero() {
		antal = decimal.NewFromInt(1)
	}
	return ledger.Round(antal.Mul(r.Belopp))
}

// ComputeLon derives a salary. Additions raise and deductions lower the
// gross pay. Benefits are taxable and carry employer contributions but
// are not paid out. Tax is withheld in whole kronor.
func ComputeLon(grundlon, skattesats decimal.Decimal, extra []models.Extrarad) Lon {
	l := Lon{Grundlon: ledger.Round(grundlon)}
	for _, r := range extra {
		switch r.Typ {
		case models.ExtraradTillagg:
			l.Tillagg = l.Tillagg.Add(Belopp(r))
		case models.ExtraradAvdrag:
			l.Avdrag = l.Avdrag.Add(Belopp(r))
		case models.ExtraradFormansvarde:
			l.Formaner = l.Formaner.Add(Belopp(r))
		}
	}
	l.Bruttolon = l.Grundlon.Add(l.Tillagg).Sub(l.Avdrag)
	l.Skattepliktigt = l.Bruttolon.Add(l.Formaner)
	l.Skatt = l.Skattepliktigt.Mul(skattesats).Round(0)
	l.Nettolon = l.Bruttolon.Sub(l.Skatt)
	l.SocialaAvgifter = ledger.Round(l.Skattepliktigt.Mul(Arbetsgivaravgift))
	return l
}

// Lines books the salary on its payout date: gross pay and employer
// contributions as costs, tax and contributions as liabilities, net pay
// from the bank.
func (l Lon) Lines() []ledger.Line {
	return ledger.Compact([]ledger.Line{
		ledger.Debit("7210", l.Bruttolon),
		ledger.Credit("2710", l.Skatt),
		ledger.Credit("1930", l.Nettolon),
		ledger.Debit("7510", l.SocialaAvgifter),
		ledger.Credit("2731", l.SocialaAvgifter),
	})
}
