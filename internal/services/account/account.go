// Package account covers registration, e-mail verification, login and
// password management.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bokfor/internal/auth"
	"bokfor/internal/email"
	"bokfor/internal/models"
	"bokfor/internal/services"
)

const (
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

var (
	ErrInvalidCredentials = errors.New("fel e-postadress eller lösenord")
	ErrNotVerified        = errors.New("e-postadressen är inte verifierad")
	ErrInvalidLink        = errors.New("länken är ogiltig eller har gått ut")
)

var checkPassword = auth.CheckPassword

// dummyHash is compared against when the e-mail is unknown so that both
// paths pay for one bcrypt comparison.
var dummyHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword("inte-ett-riktigt-losenord")
	if err != nil {
		panic(err)
	}
	return h
})

// passwordMatches always runs one bcrypt comparison. u is nil for an
// unknown e-mail.
func passwordMatches(u *models.User, password string) bool {
	hash := dummyHash()
	if u != nil {
		hash = u.PasswordHash
	}
	ok := checkPassword(hash, password) == nil
	return ok && u != nil
}

type Service struct {
	db      *gorm.DB
	lg      *zap.SugaredLogger
	issuer  *auth.Issuer
	mail    email.Sender
	baseURL string
	now     func() time.Time
}

func New(db *gorm.DB, lg *zap.SugaredLogger, issuer *auth.Issuer, mail email.Sender, baseURL string) *Service {
	return &Service{db: db, lg: lg, issuer: issuer, mail: mail, baseURL: baseURL, now: time.Now}
}

// Client describes where a request came from for the security log.
type Client struct {
	IP        string
	UserAgent string
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *Service) record(ctx context.Context, ev services.SecurityEvent) {
	if err := services.RecordSecurity(ctx, s.db, ev); err != nil {
		s.lg.Warnw("security log failed", "action", ev.Action, "error", err)
	}
}

// issueToken stores a single-use token for purpose and returns the raw
// value that goes into the e-mailed link.
func (s *Service) issueToken(tx *gorm.DB, userID int64, purpose string, ttl time.Duration) (string, error) {
	raw, err := auth.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	tok := models.UserToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: auth.HashToken(raw),
		ExpiresAt: s.now().Add(ttl),
	}
	if err := tx.Create(&tok).Error; err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return raw, nil
}

// consumeToken marks a valid token used and returns it.
func (s *Service) consumeToken(tx *gorm.DB, raw, purpose string) (*models.UserToken, error) {
	var tok models.UserToken
	err := tx.Where("token_hash = ? AND purpose = ?", auth.HashToken(raw), purpose).First(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidLink
	}
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	now := s.now()
	if tok.ConsumedAt != nil || !now.Before(tok.ExpiresAt) {
		return nil, ErrInvalidLink
	}
	res := tx.Model(&models.UserToken{}).
		Where("id = ? AND consumed_at IS NULL", tok.ID).
		Update("consumed_at", now)
	if res.Error != nil {
		return nil, fmt.Errorf("consume token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidLink
	}
	return &tok, nil
}

func (s *Service) link(path, token string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(token)
}

// Signup registers an unverified user and mails a verification link.
// Every failed password rule is reported.
func (s *Service) Signup(ctx context.Context, emailAddr, password, name string, c Client) (*models.User, error) {
	emailAddr = normalizeEmail(emailAddr)
	if !auth.ValidEmail(emailAddr) {
		return nil, services.Invalid("Ogiltig e-postadress")
	}
	if problems := auth.ValidatePassword(password); len(problems) > 0 {
		return nil, &services.ValidationError{Message: "Lösenordet uppfyller inte kraven", Details: problems}
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{Email: emailAddr, Name: strings.TrimSpace(name), PasswordHash: hash}
	var raw string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			return err
		}
		raw, err = s.issueToken(tx, u.ID, models.TokenEmailVerification, verificationTTL)
		return err
	})
	if services.IsUniqueViolation(err) {
		return nil, services.Conflict("E-postadressen är redan registrerad")
	}
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	s.record(ctx, services.SecurityEvent{UserID: &u.ID, Action: services.ActionSignup, IP: c.IP, Success: true})

	if err := s.mail.Send(ctx, email.Verification(u.Email, s.link("/verifiera", raw))); err != nil {
		s.lg.Errorw("verification email failed", "user_id", u.ID, "error", err)
	}
	return &u, nil
}

// Verify consumes a verification token and marks the user verified.
func (s *Service) Verify(ctx context.Context, token string, c Client) error {
	var userID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tok, err := s.consumeToken(tx, token, models.TokenEmailVerification)
		if err != nil {
			return err
		}
		userID = tok.UserID
		return tx.Model(&models.User{}).Where("id = ?", tok.UserID).
			Updates(map[string]any{"verified": true, "verified_at": s.now()}).Error
	})
	if err != nil {
		return err
	}
	s.record(ctx, services.SecurityEvent{UserID: &userID, Action: services.ActionVerifyEmail, IP: c.IP, Success: true})
	return nil
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login checks the credentials and opens a session. Unknown e-mail and
// wrong password fail the same way.
func (s *Service) Login(ctx context.Context, emailAddr, password string, c Client) (*LoginResult, error) {
	emailAddr = normalizeEmail(emailAddr)
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", emailAddr).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	found := &u
	if err != nil {
		found = nil
	}
	if !passwordMatches(found, password) {
		ev := services.SecurityEvent{Action: services.ActionLogin, IP: c.IP, Metadata: map[string]any{"email": emailAddr}}
		if u.ID != 0 {
			ev.UserID = &u.ID
		}
		s.record(ctx, ev)
		return nil, ErrInvalidCredentials
	}
	if !u.Verified {
		return nil, ErrNotVerified
	}

	token, jti, exp, err := s.issuer.Sign(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	sess := models.Session{JTI: jti, UserID: u.ID, IPAddress: c.IP, UserAgent: c.UserAgent, ExpiresAt: exp}
	if err := s.db.WithContext(ctx).Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.record(ctx, services.SecurityEvent{UserID: &u.ID, Action: services.ActionLogin, IP: c.IP, Success: true})
	return &LoginResult{Token: token, ExpiresAt: exp, User: &u}, nil
}

// Logout revokes the session behind jti.
func (s *Service) Logout(ctx context.Context, userID int64, jti string, c Client) error {
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("jti = ? AND revoked_at IS NULL", jti).
		Update("revoked_at", s.now()).Error
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.record(ctx, services.SecurityEvent{UserID: &userID, Action: services.ActionLogout, IP: c.IP, Success: true})
	return nil
}

// RequestPasswordReset mails a reset link when the address belongs to a
// user. The caller learns nothing about whether it does.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string, c Client) error {
	emailAddr = normalizeEmail(emailAddr)
	if !auth.ValidEmail(emailAddr) {
		return services.Invalid("Ogiltig e-postadress")
	}
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "email = ?", emailAddr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.record(ctx, services.SecurityEvent{Action: services.ActionPasswordResetRequest, IP: c.IP, Metadata: map[string]any{"email": emailAddr}})
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	raw, err := s.issueToken(s.db.WithContext(ctx), u.ID, models.TokenPasswordReset, resetTTL)
	if err != nil {
		return err
	}
	s.record(ctx, services.SecurityEvent{UserID: &u.ID, Action: services.ActionPasswordResetRequest, IP: c.IP, Success: true})
	if err := s.mail.Send(ctx, email.PasswordReset(u.Email, s.link("/aterstall-losenord", raw))); err != nil {
		s.lg.Errorw("password reset email failed", "user_id", u.ID, "error", err)
	}
	return nil
}

func (s *Service) setPassword(tx *gorm.DB, userID int64, password, keepJTI string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	q := tx.Model(&models.Session{}).Where("user_id = ? AND revoked_at IS NULL", userID)
	if keepJTI != "" {
		q = q.Where("jti <> ?", keepJTI)
	}
	if err := q.Update("revoked_at", s.now()).Error; err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password from a reset link and ends
// every open session of the user.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password string, c Client) error {
	if problems := auth.ValidatePassword(password); len(problems) > 0 {
		return &services.ValidationError{Message: "Lösenordet uppfyller inte kraven", Details: problems}
	}
	var userID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tok, err := s.consumeToken(tx, token, models.TokenPasswordReset)
		if err != nil {
			return err
		}
		userID = tok.UserID
		return s.setPassword(tx, tok.UserID, password, "")
	})
	if err != nil {
		return err
	}
	s.record(ctx, services.SecurityEvent{UserID: &userID, Action: services.ActionPasswordReset, IP: c.IP, Success: true})
	return nil
}

// ChangePassword replaces the password after checking the current one.
// Sessions other than the caller's are revoked.
func (s *Service) ChangePassword(ctx context.Context, userID int64, jti, current, next string, c Client) error {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return services.NotFound("get user", err)
	}
	if auth.CheckPassword(u.PasswordHash, current) != nil {
		s.record(ctx, services.SecurityEvent{UserID: &userID, Action: services.ActionPasswordChange, IP: c.IP})
		return services.Invalid("Nuvarande lösenord är fel")
	}
	if problems := auth.ValidatePassword(next); len(problems) > 0 {
		return &services.ValidationError{Message: "Lösenordet uppfyller inte kraven", Details: problems}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.setPassword(tx, userID, next, jti)
	})
	if err != nil {
		return err
	}
	s.record(ctx, services.SecurityEvent{UserID: &userID, Action: services.ActionPasswordChange, IP: c.IP, Success: true})
	return nil
}

func (s *Service) Me(ctx context.Context, userID int64) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		return nil, services.NotFound("get user", err)
	}
	return &u, nil
}
