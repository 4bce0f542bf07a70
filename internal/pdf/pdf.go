// Package pdf renders invoices and salary slips.
package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bokfor/internal/models"
)

var sv = message.NewPrinter(language.Swedish)

// Kr formats an amount the Swedish way: space grouped, decimal comma.
func Kr(d decimal.Decimal) string {
	return fixed2(d) + " kr"
}

func num(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return fixed(d.StringFixed(0))
	}
	return fixed2(d)
}

func fixed2(d decimal.Decimal) string { return fixed(d.StringFixed(2)) }

// fixed regroups a plain decimal string ("-1234.50") with the Swedish
// separators. The digits come from the string, never from a float.
func fixed(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	out := sign + group(whole)
	if hasFrac {
		out += "," + frac
	}
	return out
}

// group inserts no-break spaces between thousands. Values that fit an
// int64 go through the Swedish number printer.
func group(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return sv.Sprintf("%d", n)
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune('\u00a0')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// doc wraps fpdf with the cp1252 translator needed for å, ä and ö in the
// core fonts.
type doc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func newDoc(title string) *doc {
	f := fpdf.New("P", "mm", "A4", "")
	f.SetMargins(18, 18, 18)
	f.SetAutoPageBreak(true, 20)
	d := &doc{Fpdf: f, tr: f.UnicodeTranslatorFromDescriptor("")}
	f.SetTitle(title, true)
	f.SetCreator("Bokför.com", true)
	f.AddPage()
	return d
}

func (d *doc) font(style string, size float64) { d.SetFont("Helvetica", style, size) }

func (d *doc) text(w, h float64, s, align string) {
	d.CellFormat(w, h, d.tr(s), "", 0, align, false, 0, "")
}

func (d *doc) line(w, h float64, s, align string) {
	d.CellFormat(w, h, d.tr(s), "", 1, align, false, 0, "")
}

func (d *doc) rule() {
	x, y := d.GetXY()
	pw, _ := d.GetPageSize()
	l, _, r, _ := d.GetMargins()
	d.SetDrawColor(200, 200, 200)
	d.Line(l, y, pw-r, y)
	d.SetXY(x, y+2)
}

// sender prints the company block top left.
func (d *doc) sender(p models.Foretagsprofil) {
	d.font("B", 14)
	d.line(100, 7, p.Foretagsnamn, "L")
	d.font("", 9)
	for _, s := range []string{p.Adress, joinNonEmpty(" ", p.Postnummer, p.Stad), p.Email, p.Telefon} {
		if s != "" {
			d.line(100, 4.5, s, "L")
		}
	}
}

func (d *doc) footer(p models.Foretagsprofil) {
	d.SetY(-35)
	d.rule()
	d.font("", 8)
	cols := []string{
		joinNonEmpty("\n", p.Foretagsnamn, p.Adress, joinNonEmpty(" ", p.Postnummer, p.Stad)),
		joinNonEmpty("\n", label("Org.nr", p.Organisationsnummer), label("Momsreg.nr", p.Momsregnr), fskatt(p.FSkatt)),
		joinNonEmpty("\n", label("Bankgiro", p.Bankgiro), label("Plusgiro", p.Plusgiro), label("Swish", p.Swish)),
	}
	y := d.GetY()
	for i, col := range cols {
		d.SetXY(18+float64(i)*58, y)
		d.MultiCell(58, 4, d.tr(col), "", "L", false)
	}
}

func fskatt(ok bool) string {
	if ok {
		return "Godkänd för F-skatt"
	}
	return ""
}

func label(l, v string) string {
	if v == "" {
		return ""
	}
	return l + ": " + v
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}

func (d *doc) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
