package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RotRutNone = ""
	RotRutROT  = "ROT"
	RotRutRUT  = "RUT"

	BetalningsstatusObetald = "obetald"
	BetalningsstatusBetald  = "betald"

	RotRutStatusEjAktuell = ""
	RotRutStatusVantar    = "väntar"
	RotRutStatusBetald    = "betald"
)

// Faktura is a customer invoice. It starts as a draft, may be booked
// (TransaktionID set) and is finally marked paid.
type Faktura struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64           `gorm:"index;not null;uniqueIndex:idx_faktura_nummer" json:"user_id"`
	Fakturanummer     string          `gorm:"not null;uniqueIndex:idx_faktura_nummer" json:"fakturanummer"`
	Kundnamn          string          `gorm:"not null" json:"kundnamn"`
	Kundemail         string          `gorm:"not null;default:''" json:"kundemail"`
	Kundadress        string          `gorm:"not null;default:''" json:"kundadress"`
	Kundorgnr         string          `gorm:"not null;default:''" json:"kundorgnr"`
	Personnummer      string          `gorm:"not null;default:''" json:"personnummer,omitempty"`
	Fakturadatum      time.Time       `gorm:"type:date;not null" json:"fakturadatum"`
	Forfallodatum     time.Time       `gorm:"type:date;not null" json:"forfallodatum"`
	Betalningsvillkor int             `gorm:"not null" json:"betalningsvillkor"`
	Betalningsmetod   string          `gorm:"not null;default:''" json:"betalningsmetod"`
	Betalningsnummer  string          `gorm:"not null;default:''" json:"betalningsnummer"`
	RotRut            string          `gorm:"size:3;not null;default:''" json:"rot_rut"`
	RotRutStatus      string          `gorm:"not null;default:''" json:"rot_rut_status"`
	Betalningsstatus  string          `gorm:"not null;default:'obetald'" json:"betalningsstatus"`
	Betaldatum        *time.Time      `gorm:"type:date" json:"betaldatum,omitempty"`
	Skickad           *time.Time      `json:"skickad,omitempty"`
	TransaktionID     *int64          `json:"transaktion_id,omitempty"`
	Rader             []Fakturarad    `gorm:"foreignKey:FakturaID;constraint:OnDelete:CASCADE" json:"rader"`
	Totalt            decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"totalt"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Faktura) TableName() string { return "fakturor" }

// Fakturarad is one invoice line. Arbete marks labour that qualifies for
// the ROT/RUT deduction.
type Fakturarad struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	FakturaID   int64           `gorm:"index;not null" json:"faktura_id"`
	Beskrivning string          `gorm:"not null" json:"beskrivning"`
	Antal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"antal"`
	Enhet       string          `gorm:"not null;default:'st'" json:"enhet"`
	APris       decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"a_pris"`
	Moms        int             `gorm:"not null" json:"moms"`
	Arbete      bool            `gorm:"not null" json:"arbete"`
}

func (Fakturarad) TableName() string { return "fakturarader" }

// Foretagsprofil is the user's company details printed on documents.
type Foretagsprofil struct {
	UserID              int64     `gorm:"primaryKey" json:"user_id"`
	Foretagsnamn        string    `gorm:"not null;default:''" json:"foretagsnamn"`
	Organisationsnummer string    `gorm:"not null;default:''" json:"organisationsnummer"`
	Momsregnr           string    `gorm:"not null;default:''" json:"momsregnr"`
	Adress              string    `gorm:"not null;default:''" json:"adress"`
	Postnummer          string    `gorm:"not null;default:''" json:"postnummer"`
	Stad                string    `gorm:"not null;default:''" json:"stad"`
	Email               string    `gorm:"not null;default:''" json:"email"`
	Telefon             string    `gorm:"not null;default:''" json:"telefon"`
	Bankgiro            string    `gorm:"not null;default:''" json:"bankgiro"`
	Plusgiro            string    `gorm:"not null;default:''" json:"plusgiro"`
	Swish               string    `gorm:"not null;default:''" json:"swish"`
	FSkatt              bool      `gorm:"not null" json:"f_skatt"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (Foretagsprofil) TableName() string { return "företagsprofil" }
