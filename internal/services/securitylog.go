package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"bokfor/internal/models"
)

// Security log actions.
const (
	ActionSignup               = "signup"
	ActionVerifyEmail          = "verify_email"
	ActionLogin                = "login"
	ActionLogout               = "logout"
	ActionPasswordChange       = "password_change"
	ActionPasswordResetRequest = "password_reset_request"
	ActionPasswordReset        = "password_reset"
	ActionAdminSQL             = "admin_sql"
	ActionAdminDeleteTx        = "admin_delete_transaction"
	ActionImpersonateStart     = "impersonate_start"
	ActionImpersonateStop      = "impersonate_stop"
)

// SecurityEvent is one row for security_logs.
type SecurityEvent struct {
	UserID   *int64
	Action   string
	IP       string
	Success  bool
	Metadata map[string]any
}

// RecordSecurity appends to security_logs.
func RecordSecurity(ctx context.Context, db *gorm.DB, ev SecurityEvent) error {
	meta := ev.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	row := models.SecurityLog{
		UserID:    ev.UserID,
		Action:    ev.Action,
		IPAddress: ev.IP,
		Success:   ev.Success,
		Metadata:  models.NewJSONB(meta),
	}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record security log: %w", err)
	}
	return nil
}

// SecurityLogs returns the newest rows, optionally for one user only.
func SecurityLogs(ctx context.Context, db *gorm.DB, userID *int64, limit int) ([]models.SecurityLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	q := db.WithContext(ctx).Order("created_at desc, id desc").Limit(limit)
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var out []models.SecurityLog
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list security logs: %w", err)
	}
	return out, nil
}
