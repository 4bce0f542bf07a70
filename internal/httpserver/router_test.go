package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bokfor/internal/auth"
	"bokfor/internal/config"
	"bokfor/internal/database/dbtest"
	"bokfor/internal/email"
	"bokfor/internal/models"
	"bokfor/internal/services/bokforing"
)

type discard struct{}

func (discard) Send(context.Context, email.Message) error { return nil }

func newTestRouter(db *gorm.DB, limit int) http.Handler {
	cfg := &config.Config{
		BaseURL:           "http://localhost:3000",
		AdminEmails:       []string{"admin@bokfor.test"},
		RateLimitRequests: limit,
		RateLimitWindow:   time.Minute,
	}
	return NewRouter(Deps{
		Config: cfg,
		DB:     db,
		Log:    zap.NewNop().Sugar(),
		Issuer: auth.NewIssuer("test-secret", time.Hour),
		Mail:   discard{},
	})
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndMetrics(t *testing.T) {
	c := qt.New(t)
	h := newTestRouter(nil, 5)

	c.Assert(do(h, http.MethodGet, "/healthz", "", "").Code, qt.Equals, http.StatusOK)

	rec := do(h, http.MethodGet, "/metrics", "", "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Body.String(), qt.Contains, `bokfor_http_requests_total{method="GET",route="/healthz",status="200"}`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	c := qt.New(t)
	h := newTestRouter(nil, 5)
	for _, path := range []string{"/v1/me", "/v1/transaktioner", "/v1/rapporter/balans", "/v1/admin/users"} {
		rec := do(h, http.MethodGet, path, "", "")
		c.Assert(rec.Code, qt.Equals, http.StatusUnauthorized, qt.Commentf("path %s", path))
	}
	rec := do(h, http.MethodGet, "/v1/me", "not-a-jwt", "")
	c.Assert(rec.Code, qt.Equals, http.StatusUnauthorized)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	c := qt.New(t)
	h := newTestRouter(nil, 3)
	for i := 0; i < 3; i++ {
		rec := do(h, http.MethodPost, "/v1/auth/login", "", "{")
		c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	}
	rec := do(h, http.MethodPost, "/v1/auth/login", "", "{")
	c.Assert(rec.Code, qt.Equals, http.StatusTooManyRequests)
	c.Assert(rec.Header().Get("Retry-After"), qt.Not(qt.Equals), "")
}

func login(c *qt.C, h http.Handler, emailAddr, password string) string {
	rec := do(h, http.MethodPost, "/v1/auth/login", "", `{"email":"`+emailAddr+`","password":"`+password+`"}`)
	c.Assert(rec.Code, qt.Equals, http.StatusOK, qt.Commentf("%s", rec.Body.String()))
	var res struct {
		Token string `json:"token"`
	}
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &res), qt.IsNil)
	return res.Token
}

func createUser(c *qt.C, db *gorm.DB, emailAddr, password string) models.User {
	hash, err := auth.HashPassword(password)
	c.Assert(err, qt.IsNil)
	u := models.User{Email: emailAddr, Name: "Test", PasswordHash: hash, Verified: true}
	c.Assert(db.Create(&u).Error, qt.IsNil)
	return u
}

func TestBookAndReportOverHTTP(t *testing.T) {
	c := qt.New(t)
	db := dbtest.New(t)
	c.Assert(bokforing.Seed(context.Background(), db), qt.IsNil)
	h := newTestRouter(db, 100)

	const pw = "Sommar2024xyz"
	createUser(c, db, "anna@example.se", pw)
	token := login(c, h, "anna@example.se", pw)

	rec := do(h, http.MethodPost, "/v1/transaktioner", token, `{
		"datum": "2024-05-02",
		"beskrivning": "Försäljning",
		"poster": [
			{"konto": "1930", "debet": "1250"},
			{"konto": "3001", "kredit": "1000"},
			{"konto": "2611", "kredit": "250"}
		]
	}`)
	c.Assert(rec.Code, qt.Equals, http.StatusCreated, qt.Commentf("%s", rec.Body.String()))

	rec = do(h, http.MethodPost, "/v1/transaktioner", token, `{
		"datum": "2024-05-02",
		"beskrivning": "Obalanserad",
		"poster": [{"konto": "1930", "debet": "10"}, {"konto": "3001", "kredit": "9"}]
	}`)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)

	rec = do(h, http.MethodGet, "/v1/rapporter/resultat?year=2024", token, "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	var rs struct {
		Intakter struct {
			Summa string `json:"summa"`
		} `json:"rorelseintakter"`
	}
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &rs), qt.IsNil)
	c.Assert(rs.Intakter.Summa, qt.Equals, "1000")

	rec = do(h, http.MethodGet, "/v1/rapporter/balans?year=20x4", token, "")
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)

	rec = do(h, http.MethodGet, "/v1/admin/users", token, "")
	c.Assert(rec.Code, qt.Equals, http.StatusForbidden)
}

func TestAdminImpersonation(t *testing.T) {
	c := qt.New(t)
	db := dbtest.New(t)
	c.Assert(bokforing.Seed(context.Background(), db), qt.IsNil)
	h := newTestRouter(db, 100)

	const pw = "Sommar2024xyz"
	createUser(c, db, "admin@bokfor.test", pw)
	target := createUser(c, db, "kund@example.se", pw)
	token := login(c, h, "admin@bokfor.test", pw)

	rec := do(h, http.MethodGet, "/v1/admin/users", token, "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)

	rec = do(h, http.MethodPost, "/v1/admin/impersonate", token, `{"user_id": `+jsonInt(target.ID)+`}`)
	c.Assert(rec.Code, qt.Equals, http.StatusOK, qt.Commentf("%s", rec.Body.String()))

	var me struct {
		ID            int64 `json:"id"`
		Impersonating bool  `json:"impersonating"`
	}
	rec = do(h, http.MethodGet, "/v1/me", token, "")
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &me), qt.IsNil)
	c.Assert(me.ID, qt.Equals, target.ID)
	c.Assert(me.Impersonating, qt.IsTrue)

	// The admin panel stays reachable while impersonating.
	rec = do(h, http.MethodDelete, "/v1/admin/impersonate", token, "")
	c.Assert(rec.Code, qt.Equals, http.StatusNoContent)

	rec = do(h, http.MethodGet, "/v1/me", token, "")
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &me), qt.IsNil)
	c.Assert(me.Impersonating, qt.IsFalse)
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
