package faktura

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bokfor/internal/auth"
	"bokfor/internal/models"
	"bokfor/internal/services"
)

// Profile returns the user's company profile. A user without one gets an
// empty profile.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.Foretagsprofil, error) {
	var p models.Foretagsprofil
	err := s.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Foretagsprofil{UserID: userID, FSkatt: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get företagsprofil: %w", err)
	}
	return &p, nil
}

// SaveProfile creates or replaces the user's company profile.
func (s *Service) SaveProfile(ctx context.Context, userID int64, p models.Foretagsprofil) (*models.Foretagsprofil, error) {
	p.UserID = userID
	p.Foretagsnamn = strings.TrimSpace(p.Foretagsnamn)
	p.Email = strings.TrimSpace(p.Email)
	if p.Foretagsnamn == "" {
		return nil, services.Invalid("Företagsnamn saknas")
	}
	if p.Email != "" && !auth.ValidEmail(p.Email) {
		return nil, services.Invalid("Ogiltig e-postadress")
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, UpdateAll: true}).
		Create(&p).Error
	if err != nil {
		return nil, fmt.Errorf("save företagsprofil: %w", err)
	}
	return &p, nil
}
