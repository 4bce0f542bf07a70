// Package analytics stores product usage events and summarizes them for
// the admin panel.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bokfor/internal/models"
	"bokfor/internal/services"
)

var eventRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_.:-]{0,99}$`)

const maxPropertiesBytes = 8 << 10

type Service struct {
	db *gorm.DB
	lg *zap.SugaredLogger
}

func New(db *gorm.DB, lg *zap.SugaredLogger) *Service {
	return &Service{db: db, lg: lg}
}

// Track appends one event. userID is nil for anonymous visitors.
func (s *Service) Track(ctx context.Context, userID *int64, event string, props map[string]any) error {
	if !eventRe.MatchString(event) {
		return services.Invalid("Ogiltigt händelsenamn")
	}
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return services.Invalid("Ogiltiga egenskaper")
	}
	if len(raw) > maxPropertiesBytes {
		return services.Invalid("Egenskaperna är för stora")
	}
	ev := models.UserEvent{UserID: userID, Event: event, Properties: datatypes.JSON(raw)}
	if err := s.db.WithContext(ctx).Create(&ev).Error; err != nil {
		return fmt.Errorf("track event: %w", err)
	}
	return nil
}

// Filter narrows the event viewer.
type Filter struct {
	Event  string
	UserID *int64
	Since  time.Time
	Limit  int
}

type DayCount struct {
	Dag   string `json:"dag"`
	Antal int64  `json:"antal"`
}

type UserCount struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Antal  int64  `json:"antal"`
}

type EventCount struct {
	Event string `json:"event"`
	Antal int64  `json:"antal"`
}

// Overview is what the admin event viewer shows.
type Overview struct {
	Events   []models.UserEvent `json:"events"`
	PerDag   []DayCount         `json:"per_dag"`
	PerUser  []UserCount        `json:"per_anvandare"`
	PerEvent []EventCount       `json:"per_handelse"`
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.Event != "" {
		q = q.Where("e.event = ?", f.Event)
	}
	if f.UserID != nil {
		q = q.Where("e.user_id = ?", *f.UserID)
	}
	if !f.Since.IsZero() {
		q = q.Where("e.created_at >= ?", f.Since)
	}
	return q
}

// Query returns recent events with per-day, per-user and per-event counts.
func (s *Service) Query(ctx context.Context, f Filter) (*Overview, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 200
	}
	if f.Since.IsZero() {
		f.Since = time.Now().AddDate(0, 0, -30)
	}
	db := s.db.WithContext(ctx)
	events := func() *gorm.DB { return f.apply(db.Table("user_events AS e")) }

	out := &Overview{}
	if err := events().Select("e.*").Order("e.created_at desc, e.id desc").Limit(f.Limit).Find(&out.Events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if err := events().
		Select("to_char(date_trunc('day', e.created_at), 'YYYY-MM-DD') AS dag, COUNT(*) AS antal").
		Group("dag").Order("dag").
		Scan(&out.PerDag).Error; err != nil {
		return nil, fmt.Errorf("count per day: %w", err)
	}
	if err := events().
		Select(`e.user_id, u.email, COUNT(*) AS antal`).
		Joins(`JOIN "user" u ON u.id = e.user_id`).
		Group("e.user_id, u.email").Order("antal desc").Limit(50).
		Scan(&out.PerUser).Error; err != nil {
		return nil, fmt.Errorf("count per user: %w", err)
	}
	if err := events().
		Select("e.event, COUNT(*) AS antal").
		Group("e.event").Order("antal desc").
		Scan(&out.PerEvent).Error; err != nil {
		return nil, fmt.Errorf("count per event: %w", err)
	}
	if out.Events == nil {
		out.Events = []models.UserEvent{}
	}
	return out, nil
}
