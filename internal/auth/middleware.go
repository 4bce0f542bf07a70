package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"bokfor/internal/models"
)

// SessionCookie carries the token for browser form posts.
const SessionCookie = "session"

const MsgAccessDenied = "Åtkomst nekad"

// SessionStore resolves the server-side state behind a token.
type SessionStore interface {
	Session(ctx context.Context, jti string) (*models.Session, error)
	ActiveImpersonation(ctx context.Context, adminID int64) (*models.ImpersonationSession, error)
}

// GormSessions is the SessionStore over the sessions and
// impersonation_sessions tables.
type GormSessions struct {
	DB *gorm.DB
}

func (s GormSessions) Session(ctx context.Context, jti string) (*models.Session, error) {
	var sess models.Session
	if err := s.DB.WithContext(ctx).First(&sess, "jti = ?", jti).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

// ActiveImpersonation returns the open impersonation of adminID, or
// gorm.ErrRecordNotFound.
func (s GormSessions) ActiveImpersonation(ctx context.Context, adminID int64) (*models.ImpersonationSession, error) {
	var imp models.ImpersonationSession
	err := s.DB.WithContext(ctx).
		Where("admin_user_id = ? AND ended_at IS NULL", adminID).
		Order("started_at desc").
		First(&imp).Error
	if err != nil {
		return nil, err
	}
	return &imp, nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// JWTAuth authenticates the request and stores the Identity in its context.
// isAdmin gates impersonation: only allowlisted users are switched to the
// impersonated target.
func JWTAuth(store SessionStore, issuer *Issuer, isAdmin func(email string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				deny(w, http.StatusUnauthorized, "Du måste vara inloggad")
				return
			}
			claims, err := issuer.Verify(raw)
			if err != nil {
				deny(w, http.StatusUnauthorized, "Ogiltig session")
				return
			}
			sess, err := store.Session(r.Context(), claims.ID)
			if err != nil || !sess.Active(time.Now()) {
				deny(w, http.StatusUnauthorized, "Sessionen har gått ut")
				return
			}
			uid, _ := claims.UserID()
			id := Identity{UserID: uid, RealUserID: uid, Email: claims.Email, SessionID: claims.ID}
			if isAdmin != nil && isAdmin(claims.Email) {
				imp, err := store.ActiveImpersonation(r.Context(), uid)
				switch {
				case err == nil:
					id.UserID = imp.TargetUserID
					id.Impersonating = true
				case !errors.Is(err, gorm.ErrRecordNotFound):
					deny(w, http.StatusInternalServerError, "Något gick fel")
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin admits only callers whose own email is on the allowlist.
func RequireAdmin(isAdmin func(email string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok || !isAdmin(id.Email) {
				deny(w, http.StatusForbidden, MsgAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
