package faktura

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/shopspring/decimal"

	"bokfor/internal/ledger"
	"bokfor/internal/models"
	"bokfor/internal/services"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func rad(antal, pris string, moms int, arbete bool) models.Fakturarad {
	return models.Fakturarad{Beskrivning: "rad", Antal: dec(antal), APris: dec(pris), Moms: moms, Arbete: arbete}
}

func TestComputeMixedRates(t *testing.T) {
	c := qt.New(t)
	tot := Compute([]models.Fakturarad{
		rad("2", "500", 25, false),
		rad("1", "100", 6, false),
		rad("3", "33.33", 25, false),
	}, models.RotRutNone)

	c.Assert(tot.Netto.StringFixed(2), qt.Equals, "1199.99")
	c.Assert(tot.Moms, qt.HasLen, 2)
	c.Assert(tot.Moms[0].Sats, qt.Equals, 25)
	c.Assert(tot.Moms[0].Underlag.StringFixed(2), qt.Equals, "1099.99")
	c.Assert(tot.Moms[0].Moms.StringFixed(2), qt.Equals, "275.00")
	c.Assert(tot.Moms[1].Sats, qt.Equals, 6)
	c.Assert(tot.Moms[1].Moms.StringFixed(2), qt.Equals, "6.00")
	c.Assert(tot.Brutto.StringFixed(2), qt.Equals, "1480.99")
	c.Assert(tot.Avdrag.IsZero(), qt.IsTrue)
	c.Assert(tot.AttBetala.Equal(tot.Brutto), qt.IsTrue)
}

func TestComputeRotRut(t *testing.T) {
	tests := []struct {
		name      string
		typ       string
		rader     []models.Fakturarad
		avdrag    string
		attBetala string
	}{{
		name:      "rot on labour only",
		typ:       models.RotRutROT,
		rader:     []models.Fakturarad{rad("10", "500", 25, true), rad("1", "2000", 25, false)},
		avdrag:    "1875",
		attBetala: "6875.00",
	}, {
		name:      "rut half of labour",
		typ:       models.RotRutRUT,
		rader:     []models.Fakturarad{rad("4", "400", 25, true)},
		avdrag:    "1000",
		attBetala: "1000.00",
	}, {
		name:      "rot capped",
		typ:       models.RotRutROT,
		rader:     []models.Fakturarad{rad("1", "400000", 25, true)},
		avdrag:    "50000",
		attBetala: "450000.00",
	}, {
		name:      "rut capped",
		typ:       models.RotRutRUT,
		rader:     []models.Fakturarad{rad("1", "200000", 25, true)},
		avdrag:    "75000",
		attBetala: "175000.00",
	}, {
		name:      "rounded down to kronor",
		typ:       models.RotRutROT,
		rader:     []models.Fakturarad{rad("1", "99", 25, true)},
		avdrag:    "37",
		attBetala: "86.75",
	}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			tot := Compute(tt.rader, tt.typ)
			c.Assert(tot.Avdrag.String(), qt.Equals, tt.avdrag)
			c.Assert(tot.AttBetala.StringFixed(2), qt.Equals, tt.attBetala)
		})
	}
}

func TestBookingLinesBalance(t *testing.T) {
	c := qt.New(t)
	tot := Compute([]models.Fakturarad{
		rad("10", "500", 25, true),
		rad("1", "250", 12, false),
		rad("1", "80", 0, false),
	}, models.RotRutROT)
	lines := tot.Lines()
	c.Assert(ledger.CheckBalanced(lines), qt.IsNil)

	byKonto := map[string]ledger.Line{}
	for _, l := range lines {
		byKonto[l.Konto] = l
	}
	c.Assert(byKonto["1510"].Debet.Equal(tot.AttBetala), qt.IsTrue)
	c.Assert(byKonto["1513"].Debet.String(), qt.Equals, "1875")
	c.Assert(byKonto["3001"].Kredit.StringFixed(2), qt.Equals, "5000.00")
	c.Assert(byKonto["2611"].Kredit.StringFixed(2), qt.Equals, "1250.00")
	c.Assert(byKonto["3002"].Kredit.StringFixed(2), qt.Equals, "250.00")
	c.Assert(byKonto["2621"].Kredit.StringFixed(2), qt.Equals, "30.00")
	c.Assert(byKonto["3004"].Kredit.StringFixed(2), qt.Equals, "80.00")
	_, hasZeroVat := byKonto["2631"]
	c.Assert(hasZeroVat, qt.IsFalse)
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	ok := Input{
		Kundnamn:     "Kund AB",
		Fakturadatum: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Rader:        []Rad{{Beskrivning: "Konsult", Antal: dec("1"), APris: dec("100"), Moms: 25}},
	}
	c.Assert(ok.validate(), qt.IsNil)

	bad := ok
	bad.Kundemail = "inte-en-adress"
	bad.RotRut = models.RotRutROT
	bad.Rader = []Rad{{Beskrivning: "", Antal: dec("0"), APris: dec("-1"), Moms: 7}}
	ve, isValidation := services.AsValidation(bad.validate())
	c.Assert(isValidation, qt.IsTrue)
	c.Assert(ve.Message, qt.Equals, "Fakturan är ofullständig")
	c.Assert(ve.Details, qt.DeepEquals, []string{
		"Ogiltig e-postadress till kunden",
		"Rad 1 saknar beskrivning",
		"Rad 1 har ogiltigt antal",
		"Rad 1 har negativt pris",
		"Rad 1 har ogiltig momssats 7",
		"Personnummer krävs för ROT-avdrag",
		"ROT-avdrag kräver minst en rad med arbete",
	})
}

func TestApplyDefaultsDueDate(t *testing.T) {
	c := qt.New(t)
	in := Input{
		Kundnamn:          "Kund AB",
		Fakturadatum:      time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		Betalningsvillkor: 30,
		Rader:             []Rad{{Beskrivning: "Konsult", Antal: dec("2"), APris: dec("100"), Moms: 25}},
	}
	var f models.Faktura
	in.apply(&f)
	c.Assert(f.Forfallodatum, qt.Equals, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	c.Assert(f.Rader[0].Enhet, qt.Equals, "st")
	c.Assert(f.Totalt.StringFixed(2), qt.Equals, "250.00")
}
