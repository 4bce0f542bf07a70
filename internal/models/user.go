package models

import (
	"time"

	"gorm.io/datatypes"
)

// User is the identity record; every other user-scoped row references it.
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"not null;default:''" json:"name"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Verified     bool       `gorm:"not null" json:"verified"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string { return "user" }

// Session backs an issued token; the token's jti is the primary key.
type Session struct {
	JTI       string     `gorm:"primaryKey;size:64" json:"jti"`
	UserID    int64      `gorm:"index;not null" json:"user_id"`
	IPAddress string     `gorm:"size:64" json:"ip_address"`
	UserAgent string     `json:"user_agent"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (Session) TableName() string { return "sessions" }

// Active reports whether the session can still authenticate requests.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

const (
	TokenEmailVerification = "email_verification"
	TokenPasswordReset     = "password_reset"
)

// UserToken is a single-use token sent by email. Only the SHA-256 of the
// token is stored.
type UserToken struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64      `gorm:"index;not null" json:"user_id"`
	Purpose    string     `gorm:"size:32;not null" json:"purpose"`
	TokenHash  string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (UserToken) TableName() string { return "user_tokens" }

// ImpersonationSession maps an admin to the user they currently act as.
// EndedAt is nil while the impersonation is active.
type ImpersonationSession struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	AdminUserID  int64      `gorm:"index;not null" json:"admin_user_id"`
	TargetUserID int64      `gorm:"not null" json:"target_user_id"`
	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

func (ImpersonationSession) TableName() string { return "impersonation_sessions" }

// SecurityLog records security relevant actions: logins, password changes,
// admin SQL statements and impersonation.
type SecurityLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64    `gorm:"index" json:"user_id,omitempty"`
	Action    string    `gorm:"not null" json:"action"`
	IPAddress string    `gorm:"size:64" json:"ip_address,omitempty"`
	Success   bool      `gorm:"not null" json:"success"`
	Metadata  JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

func (SecurityLog) TableName() string { return "security_logs" }

// UserEvent is an append-only analytics row.
type UserEvent struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *int64         `gorm:"index" json:"user_id,omitempty"`
	Event      string         `gorm:"index;not null" json:"event"`
	Properties datatypes.JSON `gorm:"type:jsonb" json:"properties"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (UserEvent) TableName() string { return "user_events" }
