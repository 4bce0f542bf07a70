// Package admin backs the admin panel: SQL console, user overview,
// transaction removal and impersonation.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bokfor/internal/models"
	"bokfor/internal/services"
	"bokfor/internal/services/bokforing"
)

// MaxRows caps the rows the SQL console returns.
const MaxRows = 1000

type Service struct {
	db        *gorm.DB
	lg        *zap.SugaredLogger
	bokforing *bokforing.Service
	now       func() time.Time
}

func New(db *gorm.DB, lg *zap.SugaredLogger, bf *bokforing.Service) *Service {
	return &Service{db: db, lg: lg, bokforing: bf, now: time.Now}
}

// Actor is the admin performing an action.
type Actor struct {
	UserID int64
	IP     string
}

func (s *Service) record(ctx context.Context, a Actor, action string, success bool, meta map[string]any) {
	ev := services.SecurityEvent{UserID: &a.UserID, Action: action, IP: a.IP, Success: success, Metadata: meta}
	if err := services.RecordSecurity(ctx, s.db, ev); err != nil {
		s.lg.Warnw("security log failed", "action", action, "error", err)
	}
}

// QueryResult is the output of one console statement.
type QueryResult struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
	Duration  string   `json:"duration"`
}

// singleStatement trims a trailing semicolon and rejects scripts.
func singleStatement(stmt string) (string, error) {
	stmt = strings.TrimSpace(stmt)
	stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
	if stmt == "" {
		return "", services.Invalid("SQL-satsen är tom")
	}
	if strings.Contains(stmt, ";") {
		return "", services.Invalid("Endast en SQL-sats åt gången")
	}
	return stmt, nil
}

// ExecSQL runs one statement and returns at most MaxRows rows. Every
// statement is written to the security log, failed ones included.
func (s *Service) ExecSQL(ctx context.Context, a Actor, stmt string) (*QueryResult, error) {
	stmt, err := singleStatement(stmt)
	if err != nil {
		return nil, err
	}
	start := s.now()
	res, err := s.query(ctx, stmt)
	meta := map[string]any{"sql": stmt}
	if err != nil {
		meta["error"] = err.Error()
		s.record(ctx, a, services.ActionAdminSQL, false, meta)
		return nil, services.Invalid("SQL-fel: %s", err.Error())
	}
	res.Duration = s.now().Sub(start).String()
	meta["rows"] = res.RowCount
	s.record(ctx, a, services.ActionAdminSQL, true, meta)
	s.lg.Infow("admin sql executed", "admin_id", a.UserID, "rows", res.RowCount)
	return res, nil
}

func (s *Service) query(ctx context.Context, stmt string) (*QueryResult, error) {
	rows, err := s.db.WithContext(ctx).Raw(stmt).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	res := &QueryResult{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		if len(res.Rows) == MaxRows {
			res.Truncated = true
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	res.RowCount = len(res.Rows)
	return res, nil
}

// UserSummary is one row of the user overview.
type UserSummary struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Verified      bool       `json:"verified"`
	CreatedAt     time.Time  `json:"created_at"`
	Transaktioner int64      `json:"transaktioner"`
	Fakturor      int64      `json:"fakturor"`
	Anstallda     int64      `json:"anstallda"`
	SenastInloggn *time.Time `json:"senast_inloggad,omitempty"`
}

const usersQuery = `
SELECT u.id, u.email, u.name, u.verified, u.created_at,
       (SELECT COUNT(*) FROM transaktioner t WHERE t.user_id = u.id) AS transaktioner,
       (SELECT COUNT(*) FROM fakturor f WHERE f.user_id = u.id) AS fakturor,
       (SELECT COUNT(*) FROM "anställda" a WHERE a.user_id = u.id) AS anstallda,
       (SELECT MAX(l.created_at) FROM security_logs l
         WHERE l.user_id = u.id AND l.action = ? AND l.success) AS senast_inloggn
FROM "user" u
ORDER BY u.created_at DESC`

func (s *Service) Users(ctx context.Context) ([]UserSummary, error) {
	var out []UserSummary
	if err := s.db.WithContext(ctx).Raw(usersQuery, services.ActionLogin).Scan(&out).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// DeleteTransaction removes any user's transaction with its postings.
func (s *Service) DeleteTransaction(ctx context.Context, a Actor, id int64) error {
	if err := s.bokforing.DeleteAny(ctx, id); err != nil {
		return err
	}
	s.record(ctx, a, services.ActionAdminDeleteTx, true, map[string]any{"transaktion_id": id})
	return nil
}

// ImpersonationStatus describes the admin's current impersonation.
type ImpersonationStatus struct {
	Active      bool       `json:"active"`
	TargetID    int64      `json:"target_user_id,omitempty"`
	TargetEmail string     `json:"target_email,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// StartImpersonation makes the admin act as target until stopped. Any
// earlier impersonation of the admin ends.
func (s *Service) StartImpersonation(ctx context.Context, a Actor, targetID int64) (*ImpersonationStatus, error) {
	if targetID == a.UserID {
		return nil, services.Invalid("Du kan inte imitera dig själv")
	}
	var target models.User
	if err := s.db.WithContext(ctx).First(&target, targetID).Error; err != nil {
		return nil, services.NotFound("get target user", err)
	}
	now := s.now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := endOpen(tx, a.UserID, now); err != nil {
			return err
		}
		return tx.Create(&models.ImpersonationSession{
			AdminUserID:  a.UserID,
			TargetUserID: targetID,
			StartedAt:    now,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("start impersonation: %w", err)
	}
	s.record(ctx, a, services.ActionImpersonateStart, true, map[string]any{"target_user_id": targetID, "target_email": target.Email})
	return &ImpersonationStatus{Active: true, TargetID: targetID, TargetEmail: target.Email, StartedAt: &now}, nil
}

func endOpen(tx *gorm.DB, adminID int64, now time.Time) error {
	return tx.Model(&models.ImpersonationSession{}).
		Where("admin_user_id = ? AND ended_at IS NULL", adminID).
		Update("ended_at", now).Error
}

// StopImpersonation ends the admin's impersonation. Stopping when none is
// active is not an error.
func (s *Service) StopImpersonation(ctx context.Context, a Actor) error {
	if err := endOpen(s.db.WithContext(ctx), a.UserID, s.now()); err != nil {
		return fmt.Errorf("stop impersonation: %w", err)
	}
	s.record(ctx, a, services.ActionImpersonateStop, true, nil)
	return nil
}

func (s *Service) ImpersonationStatus(ctx context.Context, adminID int64) (*ImpersonationStatus, error) {
	var imp models.ImpersonationSession
	err := s.db.WithContext(ctx).
		Where("admin_user_id = ? AND ended_at IS NULL", adminID).
		Order("started_at desc").
		First(&imp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &ImpersonationStatus{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("impersonation status: %w", err)
	}
	st := &ImpersonationStatus{Active: true, TargetID: imp.TargetUserID, StartedAt: &imp.StartedAt}
	var target models.User
	if err := s.db.WithContext(ctx).Select("email").First(&target, imp.TargetUserID).Error; err == nil {
		st.TargetEmail = target.Email
	}
	return st, nil
}

// SecurityLogs lists the newest security log rows across all users.
func (s *Service) SecurityLogs(ctx context.Context, limit int) ([]models.SecurityLog, error) {
	return services.SecurityLogs(ctx, s.db, nil, limit)
}
