package bokforing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bokfor/internal/ledger"
	"bokfor/internal/models"
	"bokfor/internal/services"
)

// Shares a förval posting can take of the entered amount. The amount is
// the gross sum paid or received.
const (
	AndelBrutto     = "brutto"
	AndelNetto      = "netto"
	AndelMoms       = "moms"
	AndelHalvMoms   = "halvmoms"
	AndelRestMoms   = "restmoms"
	AndelOmvandMoms = "omvandmoms"
)

const (
	SidaDebet  = "debet"
	SidaKredit = "kredit"
)

// Shares splits a gross amount under a VAT rate. Net and VAT are rounded
// to öre with the remainder on VAT, so Net+VAT always equals the gross.
type Shares struct {
	Brutto     decimal.Decimal
	Netto      decimal.Decimal
	Moms       decimal.Decimal
	HalvMoms   decimal.Decimal
	RestMoms   decimal.Decimal
	OmvandMoms decimal.Decimal
}

func SplitAmount(amount, rate decimal.Decimal) Shares {
	gross := ledger.Round(amount)
	net := ledger.Round(gross.Div(decimal.NewFromInt(1).Add(rate)))
	vat := gross.Sub(net)
	half := ledger.Round(vat.Div(decimal.NewFromInt(2)))
	return Shares{
		Brutto:     gross,
		Netto:      net,
		Moms:       vat,
		HalvMoms:   half,
		RestMoms:   vat.Sub(half),
		OmvandMoms: ledger.Round(gross.Mul(rate)),
	}
}

func (s Shares) of(andel string) (decimal.Decimal, bool) {
	switch andel {
	case AndelBrutto:
		return s.Brutto, true
	case AndelNetto:
		return s.Netto, true
	case AndelMoms:
		return s.Moms, true
	case AndelHalvMoms:
		return s.HalvMoms, true
	case AndelRestMoms:
		return s.RestMoms, true
	case AndelOmvandMoms:
		return s.OmvandMoms, true
	}
	return decimal.Zero, false
}

// BuildLines expands a förval for amount into balanced postings. A non-nil
// rate overrides the förval's own VAT rate, zero included.
func BuildLines(f models.Forval, amount decimal.Decimal, rate *decimal.Decimal) ([]ledger.Line, error) {
	if !amount.IsPositive() {
		return nil, services.Invalid("Beloppet måste vara större än noll")
	}
	r := f.Momssats
	if rate != nil {
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, services.Invalid("Ogiltig momssats")
		}
		r = *rate
	}
	shares := SplitAmount(amount, r)

	lines := make([]ledger.Line, 0, len(f.Poster))
	for _, p := range f.Poster {
		v, ok := shares.of(p.Andel)
		if !ok {
			return nil, fmt.Errorf("förval %s: unknown share %q", f.Kod, p.Andel)
		}
		switch p.Sida {
		case SidaDebet:
			lines = append(lines, ledger.Debit(p.Konto, v))
		case SidaKredit:
			lines = append(lines, ledger.Credit(p.Konto, v))
		default:
			return nil, fmt.Errorf("förval %s: unknown side %q", f.Kod, p.Sida)
		}
	}
	lines = ledger.Compact(lines)
	if err := ledger.CheckBalanced(lines); err != nil {
		return nil, fmt.Errorf("förval %s: %w", f.Kod, err)
	}
	return lines, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func p(konto, sida, andel string) models.ForvalPost {
	return models.ForvalPost{Konto: konto, Sida: sida, Andel: andel}
}

// purchase is a domestic purchase paid from the business account with
// deductible input VAT.
func purchase(kod, namn, konto, kategori, sokord string, rate string) models.Forval {
	return models.Forval{
		Kod: kod, Namn: namn, Kategori: kategori, Sokord: sokord, Momssats: d(rate),
		Poster: []models.ForvalPost{
			p(konto, SidaDebet, AndelNetto),
			p("2641", SidaDebet, AndelMoms),
			p("1930", SidaKredit, AndelBrutto),
		},
	}
}

// DefaultForval is the built-in catalogue seeded into förval.
var DefaultForval = []models.Forval{
	{
		Kod: "leasing_personbil", Namn: "Leasing av personbil", Kategori: "Bil",
		Beskrivning: "Leasingavgift för personbil. Halva momsen är avdragsgill.",
		Sokord:      "leasing bil personbil billeasing", Momssats: d("0.25"),
		Poster: []models.ForvalPost{
			p("5615", SidaDebet, AndelNetto),
			p("5615", SidaDebet, AndelRestMoms),
			p("2641", SidaDebet, AndelHalvMoms),
			p("1930", SidaKredit, AndelBrutto),
		},
	},
	{
		Kod: "tjanst_eu", Namn: "Inköp av tjänst från annat EU-land", Kategori: "Utland",
		Beskrivning: "Omvänd skattskyldighet: köparen redovisar både utgående och ingående moms.",
		Sokord:      "eu utland tjänst omvänd skattskyldighet google facebook annonser", Momssats: d("0.25"),
		Poster: []models.ForvalPost{
			p("4535", SidaDebet, AndelBrutto),
			p("2645", SidaDebet, AndelOmvandMoms),
			p("2614", SidaKredit, AndelOmvandMoms),
			p("1930", SidaKredit, AndelBrutto),
		},
	},
	{
		Kod: "tjanst_utanfor_eu", Namn: "Inköp av tjänst från land utanför EU", Kategori: "Utland",
		Beskrivning: "Omvänd skattskyldighet för tjänster från tredje land.",
		Sokord:      "utland tjänst usa omvänd skattskyldighet programvara", Momssats: d("0.25"),
		Poster: []models.ForvalPost{
			p("4531", SidaDebet, AndelBrutto),
			p("2645", SidaDebet, AndelOmvandMoms),
			p("2614", SidaKredit, AndelOmvandMoms),
			p("1930", SidaKredit, AndelBrutto),
		},
	},
	purchase("kontorsmaterial", "Kontorsmaterial", "6110", "Kontor", "kontor material papper pennor", "0.25"),
	purchase("telefon", "Mobiltelefon", "6212", "Kontor", "telefon mobil abonnemang", "0.25"),
	purchase("internet", "Internet och datakommunikation", "6230", "Kontor", "internet bredband data", "0.25"),
	purchase("programvara", "Programvaror och licenser", "5420", "IT", "programvara licens mjukvara saas", "0.25"),
	purchase("lokalhyra", "Lokalhyra", "5010", "Lokal", "hyra lokal kontor", "0.25"),
	purchase("drivmedel", "Drivmedel för personbil", "5611", "Bil", "bensin diesel drivmedel tanka", "0.25"),
	purchase("porto", "Porto och frakt", "6250", "Kontor", "porto frimärken post frakt", "0.25"),
	{
		Kod: "bankavgift", Namn: "Bankavgift", Kategori: "Bank", Sokord: "bank avgift kostnad",
		Poster: []models.ForvalPost{
			p("6570", SidaDebet, AndelBrutto),
			p("1930", SidaKredit, AndelBrutto),
		},
	},
	{
		Kod: "forsaljning_25", Namn: "Försäljning av tjänster 25 % moms", Kategori: "Försäljning",
		Sokord: "försäljning intäkt tjänst kund", Momssats: d("0.25"),
		Poster: []models.ForvalPost{
			p("1930", SidaDebet, AndelBrutto),
			p("3001", SidaKredit, AndelNetto),
			p("2611", SidaKredit, AndelMoms),
		},
	},
	{
		Kod: "forsaljning_6", Namn: "Försäljning 6 % moms", Kategori: "Försäljning",
		Sokord: "försäljning böcker tidningar kultur persontransport", Momssats: d("0.06"),
		Poster: []models.ForvalPost{
			p("1930", SidaDebet, AndelBrutto),
			p("3003", SidaKredit, AndelNetto),
			p("2631", SidaKredit, AndelMoms),
		},
	},
	{
		Kod: "egen_insattning", Namn: "Egen insättning", Kategori: "Eget kapital",
		Sokord: "insättning eget kapital privat",
		Poster: []models.ForvalPost{
			p("1930", SidaDebet, AndelBrutto),
			p("2018", SidaKredit, AndelBrutto),
		},
	},
	{
		Kod: "eget_uttag", Namn: "Eget uttag", Kategori: "Eget kapital",
		Sokord: "uttag eget kapital privat lön enskild firma",
		Poster: []models.ForvalPost{
			p("2013", SidaDebet, AndelBrutto),
			p("1930", SidaKredit, AndelBrutto),
		},
	},
	{
		Kod: "ranteintakt", Namn: "Ränteintäkt", Kategori: "Finansiellt", Sokord: "ränta intäkt bank",
		Poster: []models.ForvalPost{
			p("1930", SidaDebet, AndelBrutto),
			p("8310", SidaKredit, AndelBrutto),
		},
	},
	{
		Kod: "rantekostnad", Namn: "Räntekostnad", Kategori: "Finansiellt", Sokord: "ränta kostnad lån",
		Poster: []models.ForvalPost{
			p("8410", SidaDebet, AndelBrutto),
			p("1930", SidaKredit, AndelBrutto),
		},
	},
}
