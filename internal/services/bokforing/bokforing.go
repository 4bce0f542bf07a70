// Package bokforing books transactions: from förval templates or custom
// lines, into transaktioner and transaktionsposter.
package bokforing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bokfor/internal/ledger"
	"bokfor/internal/models"
	"bokfor/internal/services"
)

// Entry is a transaction to be booked.
type Entry struct {
	Datum       time.Time
	Beskrivning string
	Kommentar   string
	Fil         string
	Lines       []ledger.Line
}

type Service struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func New(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, lg: lg}
}

// Seed inserts the kontoplan and the förval catalogue. Existing rows are
// left untouched.
func Seed(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true})
	if err := tx.CreateInBatches(Kontoplan, 100).Error; err != nil {
		return fmt.Errorf("seed konton: %w", err)
	}
	if err := tx.CreateInBatches(DefaultForval, 100).Error; err != nil {
		return fmt.Errorf("seed förval: %w", err)
	}
	return nil
}

func validate(e Entry) error {
	if strings.TrimSpace(e.Beskrivning) == "" {
		return services.Invalid("Beskrivning saknas")
	}
	if e.Datum.IsZero() {
		return services.Invalid("Datum saknas")
	}
	if err := ledger.CheckBalanced(e.Lines); err != nil {
		return services.Invalid("%s", err.Error())
	}
	return nil
}

// Insert writes e inside tx. Callers own the transaction so that a
// booking can be combined with other writes (invoice or expense rows).
func Insert(tx *gorm.DB, userID int64, e Entry) (*models.Transaktion, error) {
	if err := validate(e); err != nil {
		return nil, err
	}
	nums := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		nums = append(nums, l.Konto)
	}
	var konton []models.Konto
	if err := tx.Where("kontonummer IN ?", nums).Find(&konton).Error; err != nil {
		return nil, fmt.Errorf("lookup konton: %w", err)
	}
	ids := make(map[string]int64, len(konton))
	for _, k := range konton {
		ids[k.Kontonummer] = k.ID
	}

	t := models.Transaktion{
		UserID:      userID,
		Datum:       e.Datum,
		Beskrivning: strings.TrimSpace(e.Beskrivning),
		Kommentar:   e.Kommentar,
		Fil:         e.Fil,
	}
	for _, l := range e.Lines {
		id, ok := ids[l.Konto]
		if !ok {
			return nil, services.Invalid("Okänt konto %s", l.Konto)
		}
		t.Poster = append(t.Poster, models.Transaktionspost{KontoID: id, Debet: l.Debet, Kredit: l.Kredit})
	}
	if err := tx.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("insert transaktion: %w", err)
	}
	return &t, nil
}

func (s *Service) Book(ctx context.Context, userID int64, e Entry) (*models.Transaktion, error) {
	var t *models.Transaktion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		t, err = Insert(tx, userID, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("transaction booked", "user_id", userID, "transaktion_id", t.ID, "lines", len(t.Poster))
	return t, nil
}

// BookForval expands a förval and books it.
func (s *Service) BookForval(ctx context.Context, userID, forvalID int64, amount decimal.Decimal, rate *decimal.Decimal, e Entry) (*models.Transaktion, error) {
	lines, err := s.Preview(ctx, forvalID, amount, rate)
	if err != nil {
		return nil, err
	}
	e.Lines = lines
	return s.Book(ctx, userID, e)
}

func (s *Service) Preview(ctx context.Context, forvalID int64, amount decimal.Decimal, rate *decimal.Decimal) ([]ledger.Line, error) {
	var f models.Forval
	if err := s.db.WithContext(ctx).First(&f, forvalID).Error; err != nil {
		return nil, services.NotFound("load förval", err)
	}
	return BuildLines(f, amount, rate)
}

func withPoster(db *gorm.DB) *gorm.DB {
	return db.Preload("Poster", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).Preload("Poster.Konto")
}

// List returns the user's transactions, optionally limited to one year,
// newest first.
func (s *Service) List(ctx context.Context, userID int64, year int) ([]models.Transaktion, error) {
	q := withPoster(s.db.WithContext(ctx)).Where("user_id = ?", userID)
	if year > 0 {
		q = q.Where("datum >= ? AND datum < ?",
			time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC))
	}
	var out []models.Transaktion
	if err := q.Order("datum desc, id desc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list transaktioner: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, userID, id int64) (*models.Transaktion, error) {
	var t models.Transaktion
	err := withPoster(s.db.WithContext(ctx)).Where("id = ? AND user_id = ?", id, userID).First(&t).Error
	if err != nil {
		return nil, services.NotFound("get transaktion", err)
	}
	return &t, nil
}

// Delete removes the user's transaction, its postings and any references
// to it in one database transaction.
func (s *Service) Delete(ctx context.Context, userID, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return Remove(tx, tx.Where("user_id = ?", userID), id)
	})
}

// DeleteAny removes a transaction regardless of owner.
func (s *Service) DeleteAny(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return Remove(tx, tx, id)
	})
}

// Remove deletes transaction id inside tx. scope narrows the lookup, e.g.
// to one owner.
func Remove(tx, scope *gorm.DB, id int64) error {
	var t models.Transaktion
	if err := scope.Select("id").Where("id = ?", id).First(&t).Error; err != nil {
		return services.NotFound("find transaktion", err)
	}
	if err := tx.Model(&models.Faktura{}).Where("transaktion_id = ?", id).Update("transaktion_id", nil).Error; err != nil {
		return fmt.Errorf("unlink faktura: %w", err)
	}
	if err := tx.Model(&models.Lonespec{}).Where("transaktion_id = ?", id).Update("transaktion_id", nil).Error; err != nil {
		return fmt.Errorf("unlink lönespec: %w", err)
	}
	if err := tx.Model(&models.Utlagg{}).Where("transaktion_id = ?", id).Update("transaktion_id", nil).Error; err != nil {
		return fmt.Errorf("unlink utlägg: %w", err)
	}
	if err := tx.Where("transaktion_id = ?", id).Delete(&models.Transaktionspost{}).Error; err != nil {
		return fmt.Errorf("delete poster: %w", err)
	}
	if err := tx.Delete(&models.Transaktion{}, id).Error; err != nil {
		return fmt.Errorf("delete transaktion: %w", err)
	}
	return nil
}

// SearchAccounts matches q against number, description and keywords.
// An empty query lists the whole plan.
func (s *Service) SearchAccounts(ctx context.Context, q string) ([]models.Konto, error) {
	db := s.db.WithContext(ctx)
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("kontonummer LIKE ? OR LOWER(beskrivning) LIKE ? OR LOWER(sokord) LIKE ?", q+"%", like, like)
	}
	var out []models.Konto
	if err := db.Order("kontonummer").Limit(200).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search konton: %w", err)
	}
	return out, nil
}

// SearchForval matches q against name, category and keywords.
func (s *Service) SearchForval(ctx context.Context, q string) ([]models.Forval, error) {
	db := s.db.WithContext(ctx)
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		db = db.Where("LOWER(namn) LIKE ? OR LOWER(kategori) LIKE ? OR LOWER(sokord) LIKE ?", like, like, like)
	}
	var out []models.Forval
	if err := db.Order("kategori, namn").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("search förval: %w", err)
	}
	return out, nil
}
