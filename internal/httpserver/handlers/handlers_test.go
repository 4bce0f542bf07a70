package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"bokfor/internal/auth"
	"bokfor/internal/email"
	"bokfor/internal/services"
	"bokfor/internal/services/account"
	"bokfor/internal/services/rapporter"
)

var nop = zap.NewNop().Sugar()

type failingSender struct{ calls int }

func (f *failingSender) Send(context.Context, email.Message) error {
	f.calls++
	return errors.New("unexpected send")
}

func decodeBody(c *qt.C, rec *httptest.ResponseRecorder) errorBody {
	var body errorBody
	c.Assert(json.Unmarshal(rec.Body.Bytes(), &body), qt.IsNil)
	return body
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", services.Invalid("Beskrivning saknas"), http.StatusBadRequest, "Beskrivning saknas"},
		{"not found", services.NotFound("get faktura", gorm.ErrRecordNotFound), http.StatusNotFound, msgNotFound},
		{"conflict", services.Conflict("Fakturan är redan bokförd"), http.StatusConflict, "Fakturan är redan bokförd"},
		{"forbidden", fmt.Errorf("x: %w", services.ErrForbidden), http.StatusForbidden, auth.MsgAccessDenied},
		{"credentials", account.ErrInvalidCredentials, http.StatusUnauthorized, "Fel e-postadress eller lösenord"},
		{"not verified", account.ErrNotVerified, http.StatusForbidden, "E-postadressen är inte verifierad"},
		{"link", account.ErrInvalidLink, http.StatusBadRequest, "Länken är ogiltig eller har gått ut"},
		{"report", fmt.Errorf("%w: balans", rapporter.ErrReportFailed), http.StatusInternalServerError, "Kunde inte skapa rapporten"},
		{"unexpected", errors.New("connection refused"), http.StatusInternalServerError, msgInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			rec := httptest.NewRecorder()
			respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nop, tt.err)
			c.Assert(rec.Code, qt.Equals, tt.status)
			c.Assert(decodeBody(c, rec).Error, qt.Equals, tt.message)
		})
	}
}

func TestRespondErrorDetails(t *testing.T) {
	c := qt.New(t)
	rec := httptest.NewRecorder()
	err := &services.ValidationError{Message: "Lösenordet uppfyller inte kraven", Details: []string{"a", "b"}}
	respondError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nop, err)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(decodeBody(c, rec).Details, qt.DeepEquals, []string{"a", "b"})
}

func TestDateUnmarshal(t *testing.T) {
	c := qt.New(t)
	var v struct {
		A date `json:"a"`
		B date `json:"b"`
		C date `json:"c"`
	}
	err := json.Unmarshal([]byte(`{"a":"2024-03-15","b":"2024-03-15T10:00:00Z","c":""}`), &v)
	c.Assert(err, qt.IsNil)
	c.Assert(v.A.Time, qt.Equals, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	c.Assert(v.B.Time, qt.Equals, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	c.Assert(v.C.IsZero(), qt.IsTrue)

	c.Assert(json.Unmarshal([]byte(`{"a":"15/3 2024"}`), &v), qt.IsNotNil)
}

func TestSendFakturaRejectsMalformedRecipient(t *testing.T) {
	bodies := []string{
		`{"email":"inte-en-adress"}`,
		`{"email":"anna@","kundnamn":"Anna AB","rader":[{"beskrivning":"x"}]}`,
		`{"email":"a b@example.se","fakturanummer":"1001"}`,
	}
	for _, b := range bodies {
		c := qt.New(t)
		mail := &failingSender{}
		h := SendFaktura(nil, mail, nop)
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/v1/fakturor/1/skicka", strings.NewReader(b)))
		c.Assert(rec.Code, qt.Equals, http.StatusBadRequest, qt.Commentf("body %s", b))
		c.Assert(decodeBody(c, rec).Error, qt.Equals, msgInvalidRecipient)
		c.Assert(mail.calls, qt.Equals, 0)
	}
}

func TestIDParamRejectsNonNumeric(t *testing.T) {
	c := qt.New(t)
	rec := httptest.NewRecorder()
	GetTransaktion(nil, nop)(rec, httptest.NewRequest(http.MethodGet, "/v1/transaktioner/abc", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	c := qt.New(t)
	rec := httptest.NewRecorder()
	Login(nil, false, nop)(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader("{")))
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(decodeBody(c, rec).Error, qt.Equals, msgBadRequest)
}

func TestFeedbackValidatesMessage(t *testing.T) {
	c := qt.New(t)
	mail := &failingSender{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(`{"message":"   "}`))
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: 1, RealUserID: 1, Email: "a@b.se"}))
	Feedback(mail, []string{"admin@bokfor.test"}, nop)(rec, req)
	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(mail.calls, qt.Equals, 0)
}

func TestSentence(t *testing.T) {
	c := qt.New(t)
	c.Assert(sentence("ogiltigt år"), qt.Equals, "Ogiltigt år")
	c.Assert(sentence("åtkomst"), qt.Equals, "Åtkomst")
	c.Assert(sentence(""), qt.Equals, "")
}

func TestDecodeAcceptsFormPosts(t *testing.T) {
	c := qt.New(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader("email=anna%40example.se&password=Hemligt1x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var got loginReq
	c.Assert(decodeJSON(httptest.NewRecorder(), req, &got), qt.IsTrue)
	c.Assert(got, qt.Equals, loginReq{Email: "anna@example.se", Password: "Hemligt1x"})
}
