package account

import (
	"context"
	"errors"
	"html"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"

	"bokfor/internal/auth"
	"bokfor/internal/database/dbtest"
	"bokfor/internal/email"
	"bokfor/internal/models"
	"bokfor/internal/services"
)

type outbox struct {
	mu   sync.Mutex
	sent []email.Message
}

func (o *outbox) Send(_ context.Context, m email.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
	return nil
}

// token pulls the token query parameter out of the last mailed link.
func (o *outbox) token(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		t.Fatal("no email sent")
	}
	body := o.sent[len(o.sent)-1].HTML
	i := strings.Index(body, `href="`)
	if i < 0 {
		t.Fatalf("no link in %q", body)
	}
	link := body[i+len(`href="`):]
	link = html.UnescapeString(link[:strings.Index(link, `"`)])
	u, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	return u.Query().Get("token")
}

func newService(t *testing.T) (*Service, *outbox) {
	t.Helper()
	db := dbtest.New(t)
	box := &outbox{}
	s := New(db, zap.NewNop().Sugar(), auth.NewIssuer("test-secret", time.Hour), box, "https://app.bokfor.test")
	return s, box
}

const goodPassword = "Sommar2024xyz"

func TestSignupVerifyLogin(t *testing.T) {
	c := qt.New(t)
	s, box := newService(t)
	ctx := context.Background()
	cl := Client{IP: "10.0.0.1", UserAgent: "test"}

	u, err := s.Signup(ctx, " Anna@Example.se ", goodPassword, "Anna", cl)
	c.Assert(err, qt.IsNil)
	c.Assert(u.Email, qt.Equals, "anna@example.se")

	_, err = s.Signup(ctx, "anna@example.se", goodPassword, "Anna", cl)
	c.Assert(errors.Is(err, services.ErrConflict), qt.IsTrue)

	_, err = s.Login(ctx, "anna@example.se", goodPassword, cl)
	c.Assert(err, qt.Equals, ErrNotVerified)

	tok := box.token(t)
	c.Assert(s.Verify(ctx, tok, cl), qt.IsNil)
	c.Assert(s.Verify(ctx, tok, cl), qt.Equals, ErrInvalidLink)

	_, err = s.Login(ctx, "anna@example.se", "wrong", cl)
	c.Assert(err, qt.Equals, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody@example.se", "wrong", cl)
	c.Assert(err, qt.Equals, ErrInvalidCredentials)

	res, err := s.Login(ctx, "ANNA@example.se", goodPassword, cl)
	c.Assert(err, qt.IsNil)
	claims, err := s.issuer.Verify(res.Token)
	c.Assert(err, qt.IsNil)

	var sess models.Session
	c.Assert(s.db.First(&sess, "jti = ?", claims.ID).Error, qt.IsNil)
	c.Assert(sess.Active(time.Now()), qt.IsTrue)

	c.Assert(s.Logout(ctx, u.ID, claims.ID, cl), qt.IsNil)
	c.Assert(s.db.First(&sess, "jti = ?", claims.ID).Error, qt.IsNil)
	c.Assert(sess.Active(time.Now()), qt.IsFalse)

	var failed int64
	s.db.Model(&models.SecurityLog{}).Where("action = ? AND success = false", services.ActionLogin).Count(&failed)
	c.Assert(failed, qt.Equals, int64(2))
}

func TestSignupReportsEveryPasswordRule(t *testing.T) {
	c := qt.New(t)
	s := New(nil, zap.NewNop().Sugar(), nil, &outbox{}, "")
	_, err := s.Signup(context.Background(), "a@b.se", "abc", "", Client{})
	ve, ok := services.AsValidation(err)
	c.Assert(ok, qt.IsTrue)
	c.Assert(ve.Details, qt.DeepEquals, []string{auth.RuleMinLength, auth.RuleUpper, auth.RuleDigit})
}

func TestPasswordResetRevokesSessions(t *testing.T) {
	c := qt.New(t)
	s, box := newService(t)
	ctx := context.Background()

	u, err := s.Signup(ctx, "per@example.se", goodPassword, "", Client{})
	c.Assert(err, qt.IsNil)
	c.Assert(s.Verify(ctx, box.token(t), Client{}), qt.IsNil)
	res, err := s.Login(ctx, "per@example.se", goodPassword, Client{})
	c.Assert(err, qt.IsNil)

	// Unknown addresses succeed silently.
	c.Assert(s.RequestPasswordReset(ctx, "ingen@example.se", Client{}), qt.IsNil)
	c.Assert(s.RequestPasswordReset(ctx, "per@example.se", Client{}), qt.IsNil)
	tok := box.token(t)

	c.Assert(s.ConfirmPasswordReset(ctx, tok, "kort", Client{}), qt.Not(qt.IsNil))
	c.Assert(s.ConfirmPasswordReset(ctx, tok, "Vinter2025abc", Client{}), qt.IsNil)

	claims, _ := s.issuer.Verify(res.Token)
	var sess models.Session
	c.Assert(s.db.First(&sess, "jti = ?", claims.ID).Error, qt.IsNil)
	c.Assert(sess.RevokedAt, qt.Not(qt.IsNil))

	_, err = s.Login(ctx, "per@example.se", goodPassword, Client{})
	c.Assert(err, qt.Equals, ErrInvalidCredentials)
	_, err = s.Login(ctx, "per@example.se", "Vinter2025abc", Client{})
	c.Assert(err, qt.IsNil)

	c.Assert(s.ChangePassword(ctx, u.ID, "", "fel", "Host2026abcd", Client{}), qt.Not(qt.IsNil))
	c.Assert(s.ChangePassword(ctx, u.ID, "", "Vinter2025abc", "Host2026abcd", Client{}), qt.IsNil)
}
