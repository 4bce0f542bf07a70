package faktura

import (
	"sort"

	"github.com/shopspring/decimal"

	"bokfor/internal/ledger"
	"bokfor/internal/models"
)

// VAT rates an invoice line may carry, in percent.
var Momssatser = []int{25, 12, 6, 0}

// Deduction shares and yearly caps per buyer for ROT and RUT work.
var (
	RotAndel = decimal.RequireFromString("0.30")
	RutAndel = decimal.RequireFromString("0.50")
	RotTak   = decimal.NewFromInt(50000)
	RutTak   = decimal.NewFromInt(75000)
)

var (
	revenueAccount = map[int]string{25: "3001", 12: "3002", 6: "3003", 0: "3004"}
	vatAccount     = map[int]string{25: "2611", 12: "2621", 6: "2631"}
)

func validMoms(m int) bool {
	_, ok := revenueAccount[m]
	return ok
}

// MomsRad is the VAT of one rate.
type MomsRad struct {
	Sats     int             `json:"sats"`
	Underlag decimal.Decimal `json:"underlag"`
	Moms     decimal.Decimal `json:"moms"`
}

// Totals are the computed amounts of an invoice. AttBetala is what the
// customer pays; Avdrag is claimed from Skatteverket.
type Totals struct {
	Netto        decimal.Decimal `json:"netto"`
	Moms         []MomsRad       `json:"moms"`
	MomsTotalt   decimal.Decimal `json:"moms_totalt"`
	Brutto       decimal.Decimal `json:"brutto"`
	ArbeteBrutto decimal.Decimal `json:"arbete_brutto"`
	Avdrag       decimal.Decimal `json:"avdrag"`
	AttBetala    decimal.Decimal `json:"att_betala"`
}

// RadNetto is quantity times unit price, rounded to öre.
func RadNetto(r models.Fakturarad) decimal.Decimal {
	return ledger.Round(r.Antal.Mul(r.APris))
}

// Compute totals the invoice lines. VAT is computed per rate on the summed
// base. The ROT/RUT deduction is a share of labour including VAT, capped
// and rounded down to whole kronor.
func Compute(rader []models.Fakturarad, rotRut string) Totals {
	var t Totals
	base := map[int]decimal.Decimal{}
	for _, r := range rader {
		n := RadNetto(r)
		t.Netto = t.Netto.Add(n)
		base[r.Moms] = base[r.Moms].Add(n)
		if r.Arbete {
			vat := n.Mul(decimal.NewFromInt(int64(r.Moms))).Div(decimal.NewFromInt(100))
			t.ArbeteBrutto = t.ArbeteBrutto.Add(n).Add(vat)
		}
	}
	rates := make([]int, 0, len(base))
	for rate := range base {
		rates = append(rates, rate)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(rates)))
	t.Moms = []MomsRad{}
	for _, rate := range rates {
		m := ledger.Round(base[rate].Mul(decimal.NewFromInt(int64(rate))).Div(decimal.NewFromInt(100)))
		t.Moms = append(t.Moms, MomsRad{Sats: rate, Underlag: base[rate], Moms: m})
		t.MomsTotalt = t.MomsTotalt.Add(m)
	}
	t.Brutto = t.Netto.Add(t.MomsTotalt)
	t.ArbeteBrutto = ledger.Round(t.ArbeteBrutto)

	switch rotRut {
	case models.RotRutROT:
		t.Avdrag = decimal.Min(t.ArbeteBrutto.Mul(RotAndel).Floor(), RotTak)
	case models.RotRutRUT:
		t.Avdrag = decimal.Min(t.ArbeteBrutto.Mul(RutAndel).Floor(), RutTak)
	}
	t.AttBetala = t.Brutto.Sub(t.Avdrag)
	return t
}

// Lines are the postings that book the invoice as a receivable.
func (t Totals) Lines() []ledger.Line {
	lines := []ledger.Line{
		ledger.Debit("1510", t.AttBetala),
		ledger.Debit("1513", t.Avdrag),
	}
	for _, m := range t.Moms {
		lines = append(lines, ledger.Credit(revenueAccount[m.Sats], m.Underlag))
		if acc, ok := vatAccount[m.Sats]; ok {
			lines = append(lines, ledger.Credit(acc, m.Moms))
		}
	}
	return ledger.Compact(lines)
}
