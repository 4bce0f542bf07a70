// Package personal handles employees, their expense claims and monthly
// salary specifications.
package personal

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bokfor/internal/auth"
	"bokfor/internal/ledger"
	"bokfor/internal/models"
	"bokfor/internal/services"
	"bokfor/internal/services/bokforing"
)

const (
	UtlaggVantande = "väntande"
	UtlaggBokford  = "bokförd"
)

var periodRe = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)

type Service struct {
	db  *gorm.DB
	lg  *zap.SugaredLogger
	now func() time.Time
}

func New(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, lg: lg, now: time.Now}
}

func validateAnstalld(a *models.Anstalld) error {
	ve := &services.ValidationError{Message: "Uppgifterna om den anställda är ofullständiga"}
	a.Fornamn = strings.TrimSpace(a.Fornamn)
	a.Efternamn = strings.TrimSpace(a.Efternamn)
	a.Email = strings.TrimSpace(a.Email)
	if a.Fornamn == "" || a.Efternamn == "" {
		ve.Details = append(ve.Details, "För- och efternamn krävs")
	}
	if a.Email != "" && !auth.ValidEmail(a.Email) {
		ve.Details = append(ve.Details, "Ogiltig e-postadress")
	}
	if a.Manadslon.IsNegative() {
		ve.Details = append(ve.Details, "Månadslönen kan inte vara negativ")
	}
	if a.Skattesats.IsNegative() || a.Skattesats.GreaterThan(decimal.NewFromInt(1)) {
		ve.Details = append(ve.Details, "Skattesatsen måste vara mellan 0 och 1")
	}
	if len(ve.Details) > 0 {
		return ve
	}
	return nil
}

func (s *Service) CreateAnstalld(ctx context.Context, userID int64, a models.Anstalld) (*models.Anstalld, error) {
	if err := validateAnstalld(&a); err != nil {
		return nil, err
	}
	a.ID = 0
	a.UserID = userID
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, fmt.Errorf("create anställd: %w", err)
	}
	return &a, nil
}

func (s *Service) ListAnstallda(ctx context.Context, userID int64) ([]models.Anstalld, error) {
	var out []models.Anstalld
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("efternamn, fornamn").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list anställda: %w", err)
	}
	return out, nil
}

func (s *Service) GetAnstalld(ctx context.Context, userID, id int64) (*models.Anstalld, error) {
	var a models.Anstalld
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
		return nil, services.NotFound("get anställd", err)
	}
	return &a, nil
}

func (s *Service) UpdateAnstalld(ctx context.Context, userID, id int64, a models.Anstalld) (*models.Anstalld, error) {
	cur, err := s.GetAnstalld(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := validateAnstalld(&a); err != nil {
		return nil, err
	}
	a.ID, a.UserID, a.CreatedAt = cur.ID, userID, cur.CreatedAt
	if err := s.db.WithContext(ctx).Save(&a).Error; err != nil {
		return nil, fmt.Errorf("update anställd: %w", err)
	}
	return &a, nil
}

// DeleteAnstalld removes an employee without salary or expense history.
func (s *Service) DeleteAnstalld(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a models.Anstalld
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
			return services.NotFound("get anställd", err)
		}
		var refs int64
		if err := tx.Model(&models.Lonespec{}).Where("anstalld_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		var utlagg int64
		if err := tx.Model(&models.Utlagg{}).Where("anstalld_id = ?", id).Count(&utlagg).Error; err != nil {
			return err
		}
		if refs+utlagg > 0 {
			return services.Conflict("Den anställda har lönespecifikationer eller utlägg och kan inte tas bort")
		}
		return tx.Delete(&a).Error
	})
}

// UtlaggInput is an expense claim. Belopp includes Moms.
type UtlaggInput struct {
	AnstalldID  int64           `json:"anstalld_id"`
	Datum       time.Time       `json:"datum"`
	Beskrivning string          `json:"beskrivning"`
	Belopp      decimal.Decimal `json:"belopp"`
	Moms        decimal.Decimal `json:"moms"`
	Konto       string          `json:"konto"`
	Kvitto      string          `json:"kvitto"`
}

func (in UtlaggInput) lines() []ledger.Line {
	return ledger.Compact([]ledger.Line{
		ledger.Debit(in.Konto, in.Belopp.Sub(in.Moms)),
		ledger.Debit("2641", in.Moms),
		ledger.Credit("2890", in.Belopp),
	})
}

// CreateUtlagg records an expense and books it against 2890 in one
// transaction.
func (s *Service) CreateUtlagg(ctx context.Context, userID int64, in UtlaggInput) (*models.Utlagg, error) {
	switch {
	case strings.TrimSpace(in.Beskrivning) == "":
		return nil, services.Invalid("Beskrivning saknas")
	case in.Datum.IsZero():
		return nil, services.Invalid("Datum saknas")
	case !in.Belopp.IsPositive():
		return nil, services.Invalid("Beloppet måste vara större än noll")
	case in.Moms.IsNegative() || !in.Moms.LessThan(in.Belopp):
		return nil, services.Invalid("Momsen måste vara mindre än beloppet")
	case !ledger.IsResultAccount(in.Konto) && ledger.Classify(in.Konto) != ledger.Asset:
		return nil, services.Invalid("Ogiltigt kostnadskonto %s", in.Konto)
	}
	if _, err := s.GetAnstalld(ctx, userID, in.AnstalldID); err != nil {
		return nil, err
	}
	u := models.Utlagg{
		UserID:      userID,
		AnstalldID:  in.AnstalldID,
		Datum:       in.Datum,
		Beskrivning: strings.TrimSpace(in.Beskrivning),
		Belopp:      ledger.Round(in.Belopp),
		Moms:        ledger.Round(in.Moms),
		Konto:       in.Konto,
		Kvitto:      in.Kvitto,
		Status:      UtlaggBokford,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tr, err := bokforing.Insert(tx, userID, bokforing.Entry{
			Datum:       in.Datum,
			Beskrivning: "Utlägg: " + u.Beskrivning,
			Fil:         in.Kvitto,
			Lines:       in.lines(),
		})
		if err != nil {
			return err
		}
		u.TransaktionID = &tr.ID
		return tx.Create(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) ListUtlagg(ctx context.Context, userID int64) ([]models.Utlagg, error) {
	var out []models.Utlagg
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("datum desc, id desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list utlägg: %w", err)
	}
	return out, nil
}

// DeleteUtlagg removes the expense and its transaction together.
func (s *Service) DeleteUtlagg(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.Utlagg
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&u).Error; err != nil {
			return services.NotFound("get utlägg", err)
		}
		if err := tx.Delete(&u).Error; err != nil {
			return fmt.Errorf("delete utlägg: %w", err)
		}
		if u.TransaktionID == nil {
			return nil
		}
		return bokforing.Remove(tx, tx.Where("user_id = ?", userID), *u.TransaktionID)
	})
}

// LonespecInput creates a salary specification. A zero Grundlon takes the
// employee's monthly salary.
type LonespecInput struct {
	AnstalldID        int64             `json:"anstalld_id"`
	Period            string            `json:"period"`
	Utbetalningsdatum time.Time         `json:"utbetalningsdatum"`
	Grundlon          decimal.Decimal   `json:"grundlon"`
	Extrarader        []models.Extrarad `json:"extrarader"`
}

func (s *Service) CreateLonespec(ctx context.Context, userID int64, in LonespecInput) (*models.Lonespec, error) {
	if !periodRe.MatchString(in.Period) {
		return nil, services.Invalid("Perioden måste anges som ÅÅÅÅ-MM")
	}
	if in.Utbetalningsdatum.IsZero() {
		return nil, services.Invalid("Utbetalningsdatum saknas")
	}
	for i, r := range in.Extrarader {
		switch r.Typ {
		case models.ExtraradTillagg, models.ExtraradAvdrag, models.ExtraradFormansvarde:
		default:
			return nil, services.Invalid("Extrarad %d har ogiltig typ %q", i+1, r.Typ)
		}
		if r.Belopp.IsNegative() || r.Antal.IsNegative() {
			return nil, services.Invalid("Extrarad %d har negativt belopp", i+1)
		}
	}
	a, err := s.GetAnstalld(ctx, userID, in.AnstalldID)
	if err != nil {
		return nil, err
	}
	grund := in.Grundlon
	if grund.IsZero() {
		grund = a.Manadslon
	}
	l := ComputeLon(grund, a.Skattesats, in.Extrarader)
	if l.Nettolon.IsNegative() {
		return nil, services.Invalid("Nettolönen blir negativ")
	}

	spec := models.Lonespec{
		UserID:            userID,
		AnstalldID:        a.ID,
		Period:            in.Period,
		Utbetalningsdatum: in.Utbetalningsdatum,
		Grundlon:          l.Grundlon,
		Bruttolon:         l.Bruttolon,
		Formaner:          l.Formaner,
		Skatt:             l.Skatt,
		Nettolon:          l.Nettolon,
		SocialaAvgifter:   l.SocialaAvgifter,
	}
	for _, r := range in.Extrarader {
		r.ID = 0
		if r.Antal.IsZero() {
			r.Antal = decimal.NewFromInt(1)
		}
		spec.Extrarader = append(spec.Extrarader, r)
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Lonespec{}).Where("anstalld_id = ? AND period = ?", a.ID, in.Period).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return services.Conflict("%s har redan en lönespecifikation för %s", a.Namn(), in.Period)
		}
		return tx.Create(&spec).Error
	})
	if err != nil {
		return nil, err
	}
	spec.Anstalld = a
	return &spec, nil
}

func (s *Service) ListLonespecar(ctx context.Context, userID int64, period string) ([]models.Lonespec, error) {
	q := s.db.WithContext(ctx).Preload("Anstalld").Preload("Extrarader").Where("user_id = ?", userID)
	if period != "" {
		q = q.Where("period = ?", period)
	}
	var out []models.Lonespec
	if err := q.Order("period desc, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list lönespecar: %w", err)
	}
	return out, nil
}

func (s *Service) GetLonespec(ctx context.Context, userID, id int64) (*models.Lonespec, error) {
	return getLonespec(s.db.WithContext(ctx), userID, id)
}

func getLonespec(db *gorm.DB, userID, id int64) (*models.Lonespec, error) {
	var spec models.Lonespec
	err := db.Preload("Anstalld").
		Preload("Extrarader", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&spec).Error
	if err != nil {
		return nil, services.NotFound("get lönespec", err)
	}
	return &spec, nil
}

// DeleteLonespec removes an unbooked salary specification.
func (s *Service) DeleteLonespec(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		spec, err := getLonespec(tx, userID, id)
		if err != nil {
			return err
		}
		if spec.TransaktionID != nil {
			return services.Conflict("Lönespecifikationen är bokförd. Ta bort verifikationen först")
		}
		if err := tx.Where("lonespec_id = ?", id).Delete(&models.Extrarad{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Lonespec{}, id).Error
	})
}

// BookLonespec books the salary on its payout date. A specification is
// booked at most once.
func (s *Service) BookLonespec(ctx context.Context, userID, id int64) (*models.Lonespec, error) {
	var spec *models.Lonespec
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if spec, err = getLonespec(tx, userID, id); err != nil {
			return err
		}
		if spec.TransaktionID != nil {
			return services.Conflict("Lönespecifikationen är redan bokförd")
		}
		l := Lon{
			Bruttolon:       spec.Bruttolon,
			Skatt:           spec.Skatt,
			Nettolon:        spec.Nettolon,
			SocialaAvgifter: spec.SocialaAvgifter,
		}
		namn := ""
		if spec.Anstalld != nil {
			namn = ", " + spec.Anstalld.Namn()
		}
		tr, err := bokforing.Insert(tx, userID, bokforing.Entry{
			Datum:       spec.Utbetalningsdatum,
			Beskrivning: "Lön " + spec.Period + namn,
			Lines:       l.Lines(),
		})
		if err != nil {
			return err
		}
		spec.TransaktionID = &tr.ID
		return tx.Model(&models.Lonespec{}).Where("id = ?", spec.ID).Update("transaktion_id", tr.ID).Error
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("salary booked", "user_id", userID, "lonespec_id", spec.ID, "transaktion_id", *spec.TransaktionID)
	return spec, nil
}

// MarkLonespecSent stamps the specification as emailed.
func (s *Service) MarkLonespecSent(ctx context.Context, userID, id int64) error {
	res := s.db.WithContext(ctx).Model(&models.Lonespec{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("skickad", s.now().UTC())
	if res.Error != nil {
		return fmt.Errorf("mark lönespec sent: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return nil
}
