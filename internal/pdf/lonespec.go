package pdf

import (
	"bokfor/internal/models"
	"bokfor/internal/services/personal"
)

var extraradLabel = map[string]string{
	models.ExtraradTillagg:      "Tillägg",
	models.ExtraradAvdrag:       "Avdrag",
	models.ExtraradFormansvarde: "Förmånsvärde",
}

// SalarySlip renders the employee's salary specification.
func SalarySlip(spec models.Lonespec, p models.Foretagsprofil) ([]byte, error) {
	d := newDoc("Lönespecifikation " + spec.Period)

	y := d.GetY()
	d.sender(p)
	d.SetXY(110, y)
	d.font("B", 16)
	d.line(82, 8, "LÖNESPECIFIKATION", "R")
	d.font("", 9)
	for _, kv := range [][2]string{
		{"Period", spec.Period},
		{"Utbetalningsdatum", date(spec.Utbetalningsdatum)},
	} {
		d.SetX(110)
		d.text(41, 5, kv[0], "L")
		d.line(41, 5, kv[1], "R")
	}

	d.Ln(8)
	if a := spec.Anstalld; a != nil {
		d.font("B", 10)
		d.line(100, 5, a.Namn(), "L")
		d.font("", 9)
		for _, s := range []string{label("Personnummer", a.Personnummer), a.Befattning, label("Konto", joinNonEmpty("-", a.Clearingnr, a.Bankkonto))} {
			if s != "" {
				d.line(100, 4.5, s, "L")
			}
		}
		d.Ln(6)
	}

	row := func(l, v string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		d.font(style, 10)
		d.text(120, 6, l, "L")
		d.line(54, 6, v, "R")
	}
	d.font("B", 9)
	d.SetFillColor(243, 244, 246)
	d.CellFormat(120, 7, d.tr("Lönearter"), "B", 0, "L", true, 0, "")
	d.CellFormat(54, 7, d.tr("Belopp"), "B", 1, "R", true, 0, "")

	row("Grundlön", Kr(spec.Grundlon), false)
	for _, r := range spec.Extrarader {
		v := Kr(personal.Belopp(r))
		if r.Typ == models.ExtraradAvdrag {
			v = "-" + v
		}
		row(extraradLabel[r.Typ]+": "+r.Beskrivning, v, false)
	}
	d.rule()
	row("Bruttolön", Kr(spec.Bruttolon), true)
	if spec.Formaner.IsPositive() {
		row("Skattepliktiga förmåner", Kr(spec.Formaner), false)
	}
	row("Preliminär skatt", "-"+Kr(spec.Skatt), false)
	d.rule()
	row("Att utbetala", Kr(spec.Nettolon), true)

	d.Ln(6)
	d.font("", 8)
	d.line(0, 4, "Arbetsgivaravgifter som betalas av arbetsgivaren: "+Kr(spec.SocialaAvgifter), "L")

	d.footer(p)
	return d.bytes()
}
