// Package faktura manages customer invoices: drafting, numbering, booking
// into the ledger and payment tracking.
package faktura

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bokfor/internal/auth"
	"bokfor/internal/ledger"
	"bokfor/internal/models"
	"bokfor/internal/services"
	"bokfor/internal/services/bokforing"
)

type Service struct {
	db  *gorm.DB
	lg  *zap.SugaredLogger
	now func() time.Time
}

func New(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, lg: lg, now: time.Now}
}

// Rad is one submitted invoice line.
type Rad struct {
	Beskrivning string          `json:"beskrivning"`
	Antal       decimal.Decimal `json:"antal"`
	Enhet       string          `json:"enhet"`
	APris       decimal.Decimal `json:"a_pris"`
	Moms        int             `json:"moms"`
	Arbete      bool            `json:"arbete"`
}

// Input is a submitted invoice. An empty Fakturanummer takes the next
// free number.
type Input struct {
	Fakturanummer     string    `json:"fakturanummer"`
	Kundnamn          string    `json:"kundnamn"`
	Kundemail         string    `json:"kundemail"`
	Kundadress        string    `json:"kundadress"`
	Kundorgnr         string    `json:"kundorgnr"`
	Personnummer      string    `json:"personnummer"`
	Fakturadatum      time.Time `json:"fakturadatum"`
	Forfallodatum     time.Time `json:"forfallodatum"`
	Betalningsvillkor int       `json:"betalningsvillkor"`
	Betalningsmetod   string    `json:"betalningsmetod"`
	Betalningsnummer  string    `json:"betalningsnummer"`
	RotRut            string    `json:"rot_rut"`
	Rader             []Rad     `json:"rader"`
}

func (in Input) validate() error {
	ve := &services.ValidationError{Message: "Fakturan är ofullständig"}
	if strings.TrimSpace(in.Kundnamn) == "" {
		ve.Details = append(ve.Details, "Kundnamn saknas")
	}
	if in.Kundemail != "" && !auth.ValidEmail(in.Kundemail) {
		ve.Details = append(ve.Details, "Ogiltig e-postadress till kunden")
	}
	if in.Fakturadatum.IsZero() {
		ve.Details = append(ve.Details, "Fakturadatum saknas")
	}
	if in.Betalningsvillkor < 0 {
		ve.Details = append(ve.Details, "Betalningsvillkor kan inte vara negativt")
	}
	if len(in.Rader) == 0 {
		ve.Details = append(ve.Details, "Fakturan måste ha minst en rad")
	}
	arbete := false
	for i, r := range in.Rader {
		if strings.TrimSpace(r.Beskrivning) == "" {
			ve.Details = append(ve.Details, fmt.Sprintf("Rad %d saknar beskrivning", i+1))
		}
		if !r.Antal.IsPositive() {
			ve.Details = append(ve.Details, fmt.Sprintf("Rad %d har ogiltigt antal", i+1))
		}
		if r.APris.IsNegative() {
			ve.Details = append(ve.Details, fmt.Sprintf("Rad %d har negativt pris", i+1))
		}
		if !validMoms(r.Moms) {
			ve.Details = append(ve.Details, fmt.Sprintf("Rad %d har ogiltig momssats %d", i+1, r.Moms))
		}
		arbete = arbete || r.Arbete
	}
	switch in.RotRut {
	case models.RotRutNone:
	case models.RotRutROT, models.RotRutRUT:
		if strings.TrimSpace(in.Personnummer) == "" {
			ve.Details = append(ve.Details, "Personnummer krävs för "+in.RotRut+"-avdrag")
		}
		if !arbete {
			ve.Details = append(ve.Details, in.RotRut+"-avdrag kräver minst en rad med arbete")
		}
	default:
		ve.Details = append(ve.Details, "Ogiltig typ av skattereduktion")
	}
	if len(ve.Details) > 0 {
		return ve
	}
	return nil
}

func (in Input) apply(f *models.Faktura) {
	f.Kundnamn = strings.TrimSpace(in.Kundnamn)
	f.Kundemail = strings.TrimSpace(in.Kundemail)
	f.Kundadress = in.Kundadress
	f.Kundorgnr = in.Kundorgnr
	f.Personnummer = in.Personnummer
	f.Fakturadatum = in.Fakturadatum
	f.Betalningsvillkor = in.Betalningsvillkor
	f.Forfallodatum = in.Forfallodatum
	if f.Forfallodatum.IsZero() {
		f.Forfallodatum = in.Fakturadatum.AddDate(0, 0, in.Betalningsvillkor)
	}
	f.Betalningsmetod = in.Betalningsmetod
	f.Betalningsnummer = in.Betalningsnummer
	f.RotRut = in.RotRut
	f.Rader = make([]models.Fakturarad, 0, len(in.Rader))
	for _, r := range in.Rader {
		enhet := r.Enhet
		if enhet == "" {
			enhet = "st"
		}
		f.Rader = append(f.Rader, models.Fakturarad{
			Beskrivning: strings.TrimSpace(r.Beskrivning),
			Antal:       r.Antal,
			Enhet:       enhet,
			APris:       r.APris,
			Moms:        r.Moms,
			Arbete:      r.Arbete,
		})
	}
	f.Totalt = Compute(f.Rader, f.RotRut).AttBetala
}

// NextNumber returns the next numeric invoice number for the user.
func (s *Service) NextNumber(ctx context.Context, userID int64) (string, error) {
	return nextNumber(s.db.WithContext(ctx), userID)
}

func nextNumber(db *gorm.DB, userID int64) (string, error) {
	var last int64
	err := db.Raw(`SELECT COALESCE(MAX(CAST(fakturanummer AS bigint)), 0) FROM fakturor
		WHERE user_id = ? AND fakturanummer ~ '^[0-9]{1,18}$'`, userID).Scan(&last).Error
	if err != nil {
		return "", fmt.Errorf("next fakturanummer: %w", err)
	}
	return strconv.FormatInt(last+1, 10), nil
}

func (s *Service) Create(ctx context.Context, userID int64, in Input) (*models.Faktura, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	f := models.Faktura{
		UserID:           userID,
		Fakturanummer:    strings.TrimSpace(in.Fakturanummer),
		Betalningsstatus: models.BetalningsstatusObetald,
	}
	in.apply(&f)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if f.Fakturanummer == "" {
			n, err := nextNumber(tx, userID)
			if err != nil {
				return err
			}
			f.Fakturanummer = n
		}
		return tx.Create(&f).Error
	})
	if services.IsUniqueViolation(err) {
		return nil, services.Conflict("Fakturanummer %s används redan", f.Fakturanummer)
	}
	if err != nil {
		return nil, fmt.Errorf("create faktura: %w", err)
	}
	s.lg.Infow("invoice created", "user_id", userID, "faktura_id", f.ID, "nummer", f.Fakturanummer)
	return &f, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]models.Faktura, error) {
	var out []models.Faktura
	err := s.db.WithContext(ctx).
		Preload("Rader", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("user_id = ?", userID).
		Order("fakturadatum desc, id desc").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list fakturor: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*models.Faktura, error) {
	return get(s.db.WithContext(ctx), userID, id)
}

func get(db *gorm.DB, userID, id int64) (*models.Faktura, error) {
	var f models.Faktura
	err := db.Preload("Rader", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&f).Error
	if err != nil {
		return nil, services.NotFound("get faktura", err)
	}
	return &f, nil
}

// Update replaces a draft. Booked invoices are locked.
func (s *Service) Update(ctx context.Context, userID, id int64, in Input) (*models.Faktura, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var f *models.Faktura
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if f, err = get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, id); err != nil {
			return err
		}
		if f.TransaktionID != nil {
			return services.Conflict("Fakturan är bokförd och kan inte ändras")
		}
		if n := strings.TrimSpace(in.Fakturanummer); n != "" {
			f.Fakturanummer = n
		}
		in.apply(f)
		if err := tx.Where("faktura_id = ?", f.ID).Delete(&models.Fakturarad{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(f).Error
	})
	if services.IsUniqueViolation(err) {
		return nil, services.Conflict("Fakturanummer %s används redan", in.Fakturanummer)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes a draft invoice and its lines.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		f, err := get(tx, userID, id)
		if err != nil {
			return err
		}
		if f.TransaktionID != nil {
			return services.Conflict("Fakturan är bokförd. Ta bort verifikationen först")
		}
		if err := tx.Where("faktura_id = ?", f.ID).Delete(&models.Fakturarad{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Faktura{}, f.ID).Error
	})
}

// Book posts the invoice as a receivable on its invoice date. An invoice
// is booked at most once.
func (s *Service) Book(ctx context.Context, userID, id int64) (*models.Faktura, error) {
	var f *models.Faktura
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if f, err = get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, id); err != nil {
			return err
		}
		if f.TransaktionID != nil {
			return services.Conflict("Fakturan är redan bokförd")
		}
		t := Compute(f.Rader, f.RotRut)
		if !t.Brutto.IsPositive() {
			return services.Invalid("Fakturan saknar belopp att bokföra")
		}
		tr, err := bokforing.Insert(tx, userID, bokforing.Entry{
			Datum:       f.Fakturadatum,
			Beskrivning: fmt.Sprintf("Faktura %s, %s", f.Fakturanummer, f.Kundnamn),
			Lines:       t.Lines(),
		})
		if err != nil {
			return err
		}
		f.TransaktionID = &tr.ID
		f.Totalt = t.AttBetala
		if t.Avdrag.IsPositive() {
			f.RotRutStatus = models.RotRutStatusVantar
		}
		return tx.Model(&models.Faktura{}).Where("id = ?", f.ID).Updates(map[string]any{
			"transaktion_id": f.TransaktionID,
			"totalt":         f.Totalt,
			"rot_rut_status": f.RotRutStatus,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("invoice booked", "user_id", userID, "faktura_id", f.ID, "transaktion_id", *f.TransaktionID)
	return f, nil
}

// MarkPaid records the customer's payment: 1930 against 1510.
func (s *Service) MarkPaid(ctx context.Context, userID, id int64, datum time.Time) (*models.Faktura, error) {
	if datum.IsZero() {
		datum = s.now().UTC().Truncate(24 * time.Hour)
	}
	var f *models.Faktura
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if f, err = get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, id); err != nil {
			return err
		}
		if f.TransaktionID == nil {
			return services.Invalid("Fakturan måste bokföras innan den markeras som betald")
		}
		if f.Betalningsstatus == models.BetalningsstatusBetald {
			return services.Conflict("Fakturan är redan markerad som betald")
		}
		t := Compute(f.Rader, f.RotRut)
		if _, err := bokforing.Insert(tx, userID, bokforing.Entry{
			Datum:       datum,
			Beskrivning: fmt.Sprintf("Betalning faktura %s, %s", f.Fakturanummer, f.Kundnamn),
			Lines: []ledger.Line{
				ledger.Debit("1930", t.AttBetala),
				ledger.Credit("1510", t.AttBetala),
			},
		}); err != nil {
			return err
		}
		f.Betalningsstatus = models.BetalningsstatusBetald
		f.Betaldatum = &datum
		return tx.Model(&models.Faktura{}).Where("id = ?", f.ID).Updates(map[string]any{
			"betalningsstatus": f.Betalningsstatus,
			"betaldatum":       f.Betaldatum,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// MarkRotRutPaid records Skatteverket's payment of the ROT/RUT claim:
// 1930 against 1513.
func (s *Service) MarkRotRutPaid(ctx context.Context, userID, id int64, datum time.Time) (*models.Faktura, error) {
	if datum.IsZero() {
		datum = s.now().UTC().Truncate(24 * time.Hour)
	}
	var f *models.Faktura
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if f, err = get(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, id); err != nil {
			return err
		}
		if f.RotRut == models.RotRutNone {
			return services.Invalid("Fakturan har inget ROT- eller RUT-avdrag")
		}
		switch f.RotRutStatus {
		case models.RotRutStatusBetald:
			return services.Conflict("%s-avdraget är redan utbetalt", f.RotRut)
		case models.RotRutStatusVantar:
		default:
			return services.Invalid("Fakturan måste bokföras först")
		}
		avdrag := Compute(f.Rader, f.RotRut).Avdrag
		if _, err := bokforing.Insert(tx, userID, bokforing.Entry{
			Datum:       datum,
			Beskrivning: fmt.Sprintf("%s-utbetalning faktura %s", f.RotRut, f.Fakturanummer),
			Lines: []ledger.Line{
				ledger.Debit("1930", avdrag),
				ledger.Credit("1513", avdrag),
			},
		}); err != nil {
			return err
		}
		f.RotRutStatus = models.RotRutStatusBetald
		return tx.Model(&models.Faktura{}).Where("id = ?", f.ID).Update("rot_rut_status", f.RotRutStatus).Error
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// MarkSent stamps the invoice as emailed.
func (s *Service) MarkSent(ctx context.Context, userID, id int64) error {
	res := s.db.WithContext(ctx).Model(&models.Faktura{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("skickad", s.now().UTC())
	if res.Error != nil {
		return fmt.Errorf("mark faktura sent: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}
