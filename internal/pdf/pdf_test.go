package pdf

import (
	"bytes"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/shopspring/decimal"

	"bokfor/internal/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestKr(t *testing.T) {
	c := qt.New(t)
	c.Assert(Kr(dec("1234567.5")), qt.Equals, "1\u00a0234\u00a0567,50 kr")
	c.Assert(Kr(dec("0")), qt.Equals, "0,00 kr")
	c.Assert(num(dec("3")), qt.Equals, "3")
	c.Assert(num(dec("1.5")), qt.Equals, "1,50")
	c.Assert(Kr(dec("-1234.5")), qt.Equals, "-1\u00a0234,50 kr")
	c.Assert(Kr(dec("0.005")), qt.Equals, "0,01 kr")
}

func TestKrKeepsEveryDigit(t *testing.T) {
	c := qt.New(t)
	c.Assert(Kr(dec("12345678901234.57")), qt.Equals, "12\u00a0345\u00a0678\u00a0901\u00a0234,57 kr")
	c.Assert(Kr(dec("98765432109876543210.99")), qt.Equals,
		"98\u00a0765\u00a0432\u00a0109\u00a0876\u00a0543\u00a0210,99 kr")
	c.Assert(num(dec("1000000")), qt.Equals, "1\u00a0000\u00a0000")
}

var profile = models.Foretagsprofil{
	Foretagsnamn: "Åsa Öberg Bygg", Organisationsnummer: "556677-8899",
	Adress: "Storgatan 1", Postnummer: "111 22", Stad: "Stockholm",
	Bankgiro: "123-4567", FSkatt: true,
}

func TestInvoice(t *testing.T) {
	c := qt.New(t)
	f := models.Faktura{
		Fakturanummer: "1001", Kundnamn: "Bengt Ärlig", Personnummer: "19700101-0000",
		Fakturadatum: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Forfallodatum: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Betalningsvillkor: 30, Betalningsmetod: "Bankgiro", Betalningsnummer: "123-4567",
		RotRut: models.RotRutROT,
		Rader: []models.Fakturarad{
			{Beskrivning: "Målning", Antal: dec("8"), Enhet: "tim", APris: dec("550"), Moms: 25, Arbete: true},
			{Beskrivning: "Färg", Antal: dec("2"), Enhet: "st", APris: dec("399"), Moms: 25},
		},
	}
	out, err := Invoice(f, profile)
	c.Assert(err, qt.IsNil)
	c.Assert(bytes.HasPrefix(out, []byte("%PDF-")), qt.IsTrue)
}

func TestSalarySlip(t *testing.T) {
	c := qt.New(t)
	spec := models.Lonespec{
		Period: "2024-05", Utbetalningsdatum: time.Date(2024, 5, 25, 0, 0, 0, 0, time.UTC),
		Anstalld: &models.Anstalld{Fornamn: "Jöns", Efternamn: "Ågren", Clearingnr: "8327", Bankkonto: "1234567"},
		Grundlon: dec("30000"), Bruttolon: dec("30000"), Formaner: dec("2000"),
		Skatt: dec("9600"), Nettolon: dec("20400"), SocialaAvgifter: dec("10054.40"),
		Extrarader: []models.Extrarad{
			{Typ: models.ExtraradFormansvarde, Beskrivning: "Bilförmån", Antal: dec("1"), Belopp: dec("2000")},
		},
	}
	out, err := SalarySlip(spec, profile)
	c.Assert(err, qt.IsNil)
	c.Assert(bytes.HasPrefix(out, []byte("%PDF-")), qt.IsTrue)
}
