package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Anstalld is an employee of the user's company.
type Anstalld struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64           `gorm:"index;not null" json:"user_id"`
	Fornamn           string          `gorm:"not null" json:"fornamn"`
	Efternamn         string          `gorm:"not null" json:"efternamn"`
	Personnummer      string          `gorm:"not null;default:''" json:"personnummer"`
	Email             string          `gorm:"not null;default:''" json:"email"`
	Befattning        string          `gorm:"not null;default:''" json:"befattning"`
	Manadslon         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"manadslon"`
	Skattesats        decimal.Decimal `gorm:"type:numeric(5,4);not null" json:"skattesats"`
	Clearingnr        string          `gorm:"not null;default:''" json:"clearingnr"`
	Bankkonto         string          `gorm:"not null;default:''" json:"bankkonto"`
	Anstallningsdatum time.Time       `gorm:"type:date" json:"anstallningsdatum"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (Anstalld) TableName() string { return "anställda" }

// Namn returns the full name.
func (a Anstalld) Namn() string { return a.Fornamn + " " + a.Efternamn }

// Utlagg is an expense an employee paid privately. It is booked against
// 2890 and linked to its transaction.
type Utlagg struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64           `gorm:"index;not null" json:"user_id"`
	AnstalldID    int64           `gorm:"index;not null" json:"anstalld_id"`
	Datum         time.Time       `gorm:"type:date;not null" json:"datum"`
	Beskrivning   string          `gorm:"not null" json:"beskrivning"`
	Belopp        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"belopp"`
	Moms          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"moms"`
	Konto         string          `gorm:"size:4;not null" json:"konto"`
	Status        string          `gorm:"not null;default:'väntande'" json:"status"`
	Kvitto        string          `gorm:"not null;default:''" json:"kvitto,omitempty"`
	TransaktionID *int64          `json:"transaktion_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (Utlagg) TableName() string { return "utlägg" }

const (
	ExtraradTillagg      = "tillagg"
	ExtraradAvdrag       = "avdrag"
	ExtraradFormansvarde = "formansvarde"
)

// Lonespec is one salary specification for a payroll period (YYYY-MM).
type Lonespec struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64           `gorm:"index;not null" json:"user_id"`
	AnstalldID        int64           `gorm:"index;not null" json:"anstalld_id"`
	Anstalld          *Anstalld       `gorm:"foreignKey:AnstalldID" json:"anstalld,omitempty"`
	Period            string          `gorm:"size:7;not null" json:"period"`
	Utbetalningsdatum time.Time       `gorm:"type:date;not null" json:"utbetalningsdatum"`
	Grundlon          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"grundlon"`
	Bruttolon         decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"bruttolon"`
	Formaner          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"formaner"`
	Skatt             decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"skatt"`
	Nettolon          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"nettolon"`
	SocialaAvgifter   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"sociala_avgifter"`
	Extrarader        []Extrarad      `gorm:"foreignKey:LonespecID;constraint:OnDelete:CASCADE" json:"extrarader"`
	TransaktionID     *int64          `json:"transaktion_id,omitempty"`
	Skickad           *time.Time      `json:"skickad,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (Lonespec) TableName() string { return "lönespecar" }

// Extrarad is an addition, deduction or taxable benefit on a salary spec.
type Extrarad struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	LonespecID  int64           `gorm:"index;not null" json:"lonespec_id"`
	Typ         string          `gorm:"not null" json:"typ"`
	Beskrivning string          `gorm:"not null" json:"beskrivning"`
	Antal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"antal"`
	Belopp      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"belopp"`
}

func (Extrarad) TableName() string { return "extrarader" }

// All lists every model for AutoMigrate, in dependency order.
func All() []any {
	return []any{
		&User{}, &Session{}, &UserToken{}, &ImpersonationSession{}, &SecurityLog{}, &UserEvent{},
		&Konto{}, &Transaktion{}, &Transaktionspost{}, &Forval{},
		&Foretagsprofil{}, &Faktura{}, &Fakturarad{},
		&Anstalld{}, &Utlagg{}, &Lonespec{}, &Extrarad{},
	}
}
