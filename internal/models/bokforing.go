package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OpeningBalanceMarker is the description of the transaction that carries
// a year's opening balances (ingående balanser).
const OpeningBalanceMarker = "Ingående balanser"

// Konto is a chart-of-accounts entry (BAS kontoplan). Reference data.
type Konto struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Kontonummer string `gorm:"uniqueIndex;size:4;not null" json:"kontonummer"`
	Beskrivning string `gorm:"not null" json:"beskrivning"`
	Kontoklass  string `gorm:"not null;default:''" json:"kontoklass"`
	Kategori    string `gorm:"not null;default:''" json:"kategori"`
	Sokord      string `gorm:"not null;default:''" json:"sokord"`
}

func (Konto) TableName() string { return "konton" }

// Transaktion is one bookkeeping event (verifikation).
type Transaktion struct {
	ID          int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64              `gorm:"index;not null" json:"user_id"`
	Datum       time.Time          `gorm:"type:date;index;not null" json:"datum"`
	Beskrivning string             `gorm:"not null" json:"beskrivning"`
	Kommentar   string             `gorm:"not null;default:''" json:"kommentar,omitempty"`
	Fil         string             `gorm:"not null;default:''" json:"fil,omitempty"`
	Poster      []Transaktionspost `gorm:"foreignKey:TransaktionID;constraint:OnDelete:CASCADE" json:"poster,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

func (Transaktion) TableName() string { return "transaktioner" }

// Transaktionspost is one debit or credit line of a transaction.
type Transaktionspost struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TransaktionID int64           `gorm:"index;not null" json:"transaktion_id"`
	KontoID       int64           `gorm:"index;not null" json:"konto_id"`
	Konto         *Konto          `gorm:"foreignKey:KontoID" json:"konto,omitempty"`
	Debet         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"debet"`
	Kredit        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"kredit"`
}

func (Transaktionspost) TableName() string { return "transaktionsposter" }

// ForvalPost is one posting rule of a förval template.
type ForvalPost struct {
	Konto string `json:"konto"`
	Sida  string `json:"sida"`
	Andel string `json:"andel"`
}

// Forval is a predefined template mapping a business event to postings.
type Forval struct {
	ID          int64                           `gorm:"primaryKey;autoIncrement" json:"id"`
	Kod         string                          `gorm:"uniqueIndex;not null" json:"kod"`
	Namn        string                          `gorm:"not null" json:"namn"`
	Beskrivning string                          `gorm:"not null;default:''" json:"beskrivning"`
	Kategori    string                          `gorm:"not null;default:''" json:"kategori"`
	Sokord      string                          `gorm:"not null;default:''" json:"sokord"`
	Momssats    decimal.Decimal                 `gorm:"type:numeric(5,4);not null;default:0" json:"momssats"`
	Poster      datatypes.JSONSlice[ForvalPost] `gorm:"type:jsonb;not null" json:"poster"`
}

func (Forval) TableName() string { return "förval" }
