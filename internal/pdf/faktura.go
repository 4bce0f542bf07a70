package pdf

import (
	"fmt"

	"bokfor/internal/models"
	"bokfor/internal/services/faktura"
)

// Invoice renders f with its computed totals and the sender's company
// profile.
func Invoice(f models.Faktura, p models.Foretagsprofil) ([]byte, error) {
	t := faktura.Compute(f.Rader, f.RotRut)
	d := newDoc("Faktura " + f.Fakturanummer)

	y := d.GetY()
	d.sender(p)
	d.SetXY(120, y)
	d.font("B", 18)
	d.line(72, 9, "FAKTURA", "R")
	d.font("", 9)
	for _, kv := range [][2]string{
		{"Fakturanummer", f.Fakturanummer},
		{"Fakturadatum", date(f.Fakturadatum)},
		{"Förfallodatum", date(f.Forfallodatum)},
		{"Betalningsvillkor", fmt.Sprintf("%d dagar", f.Betalningsvillkor)},
	} {
		d.SetX(120)
		d.text(36, 5, kv[0], "L")
		d.line(36, 5, kv[1], "R")
	}

	d.Ln(8)
	d.font("B", 10)
	d.line(100, 5, "Faktureras till", "L")
	d.font("", 10)
	for _, s := range []string{f.Kundnamn, f.Kundadress, label("Org.nr", f.Kundorgnr), f.Kundemail} {
		if s != "" {
			d.MultiCell(100, 5, d.tr(s), "", "L", false)
		}
	}
	d.Ln(6)

	widths := []float64{78, 18, 14, 24, 12, 28}
	d.font("B", 9)
	d.SetFillColor(243, 244, 246)
	for i, h := range []string{"Beskrivning", "Antal", "Enhet", "À-pris", "Moms", "Belopp"} {
		align := "R"
		if i == 0 || i == 2 {
			align = "L"
		}
		d.CellFormat(widths[i], 7, d.tr(h), "B", 0, align, true, 0, "")
	}
	d.Ln(-1)
	d.font("", 9)
	for _, r := range f.Rader {
		desc := r.Beskrivning
		if r.Arbete && f.RotRut != models.RotRutNone {
			desc += " (arbete)"
		}
		d.text(widths[0], 6, desc, "L")
		d.text(widths[1], 6, num(r.Antal), "R")
		d.text(widths[2], 6, r.Enhet, "L")
		d.text(widths[3], 6, num(r.APris), "R")
		d.text(widths[4], 6, fmt.Sprintf("%d %%", r.Moms), "R")
		d.line(widths[5], 6, Kr(faktura.RadNetto(r)), "R")
	}
	d.rule()

	sum := func(l, v string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		d.font(style, 10)
		d.SetX(104)
		d.text(50, 6, l, "L")
		d.line(38, 6, v, "R")
	}
	sum("Netto", Kr(t.Netto), false)
	for _, m := range t.Moms {
		if m.Sats > 0 {
			sum(fmt.Sprintf("Moms %d %%", m.Sats), Kr(m.Moms), false)
		}
	}
	sum("Totalt", Kr(t.Brutto), false)
	if t.Avdrag.IsPositive() {
		sum(f.RotRut+"-avdrag", "-"+Kr(t.Avdrag), false)
	}
	sum("Att betala", Kr(t.AttBetala), true)

	if t.Avdrag.IsPositive() {
		d.Ln(4)
		d.font("", 8)
		d.MultiCell(0, 4, d.tr(fmt.Sprintf(
			"Skattereduktion för %s-arbete har dragits av med %s. Arbetskostnad inkl. moms: %s. Personnummer: %s.",
			f.RotRut, Kr(t.Avdrag), Kr(t.ArbeteBrutto), f.Personnummer)), "", "L", false)
	}
	if f.Betalningsnummer != "" {
		d.Ln(4)
		d.font("B", 10)
		d.MultiCell(0, 5, d.tr(fmt.Sprintf("Betala till %s %s. Ange fakturanummer %s som referens.",
			f.Betalningsmetod, f.Betalningsnummer, f.Fakturanummer)), "", "L", false)
	}

	d.footer(p)
	return d.bytes()
}
