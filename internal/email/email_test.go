package email

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"
)

type sentRequest struct {
	From        string   `json:"from"`
	To          []string `json:"to"`
	ReplyTo     any      `json:"reply_to"`
	Subject     string   `json:"subject"`
	HTML        string   `json:"html"`
	Attachments []struct {
		Filename string          `json:"filename"`
		Content  json.RawMessage `json:"content"`
	} `json:"attachments"`
}

// attachmentBytes accepts both encodings the API takes for content: a
// base64 string or an array of byte values.
func attachmentBytes(c *qt.C, raw json.RawMessage) []byte {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		b, err := base64.StdEncoding.DecodeString(s)
		c.Assert(err, qt.IsNil)
		return b
	}
	var ints []int
	c.Assert(json.Unmarshal(raw, &ints), qt.IsNil)
	out := make([]byte, len(ints))
	for i, v := range ints {
		out[i] = byte(v)
	}
	return out
}

func TestClientSend(t *testing.T) {
	c := qt.New(t)

	var got sentRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.URL.Path, qt.Equals, "/emails")
		auth = r.Header.Get("Authorization")
		c.Check(json.NewDecoder(r.Body).Decode(&got), qt.IsNil)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"abc"}`))
	}))
	defer srv.Close()

	cl := NewClient(srv.URL, "key-123", "Bokför.com <noreply@bokfor.com>", zap.NewNop().Sugar())
	err := cl.Send(context.Background(), Invoice("kund@firma.se", "ag@foretag.se", "Företaget AB", "1001", []byte("%PDF-1.3")))
	c.Assert(err, qt.IsNil)

	c.Assert(auth, qt.Equals, "Bearer key-123")
	c.Assert(got.From, qt.Equals, "Bokför.com <noreply@bokfor.com>")
	c.Assert(got.To, qt.DeepEquals, []string{"kund@firma.se"})
	c.Assert(fmt.Sprint(got.ReplyTo), qt.Contains, "ag@foretag.se")
	c.Assert(got.Subject, qt.Equals, "Faktura 1001 från Företaget AB")
	c.Assert(got.Attachments, qt.HasLen, 1)
	c.Assert(got.Attachments[0].Filename, qt.Equals, "Faktura-1001.pdf")
	c.Assert(string(attachmentBytes(c, got.Attachments[0].Content)), qt.Equals, "%PDF-1.3")
}

func TestClientSendProviderError(t *testing.T) {
	c := qt.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid from"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	cl := NewClient(srv.URL, "key", "x@y.se", zap.NewNop().Sugar())
	err := cl.Send(context.Background(), Verification("a@b.se", "https://bokfor.com/verify?token=t"))
	c.Assert(err, qt.ErrorMatches, "send email: .*")
}

func TestClientNotConfigured(t *testing.T) {
	c := qt.New(t)
	cl := NewClient("http://unused", "", "x@y.se", zap.NewNop().Sugar())
	err := cl.Send(context.Background(), Feedback("admin@bokfor.com", "anna@firma.se", "Bra tjänst"))
	c.Assert(err, qt.Equals, ErrNotConfigured)
}

func TestTemplatesEscapeInput(t *testing.T) {
	c := qt.New(t)
	msg := Feedback("admin@bokfor.com", "anna@firma.se", "<script>alert(1)</script>")
	c.Assert(msg.HTML, qt.Not(qt.Contains), "<script>")
	c.Assert(msg.HTML, qt.Contains, "&lt;script&gt;")
	c.Assert(msg.Text, qt.Equals, "<script>alert(1)</script>")

	v := Verification("a@b.se", "https://bokfor.com/verifiera?token=abc")
	c.Assert(v.HTML, qt.Contains, "https://bokfor.com/verifiera?token=abc")
}
