// Package email sends transactional email through the Resend API.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

var sentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "bokfor_emails_total",
		Help: "Outbound emails by kind and outcome.",
	},
	[]string{"kind", "outcome"},
)

var ErrNotConfigured = errors.New("email provider is not configured")

type Attachment struct {
	Filename string
	Content  []byte
}

type Message struct {
	// Kind labels the message in metrics and logs (verification, invoice, ...).
	Kind        string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Client struct {
	api  *resend.Client
	key  string
	from string
	lg   *zap.SugaredLogger
}

// NewClient talks to the Resend API at baseURL. An unparsable baseURL keeps
// the SDK default.
func NewClient(baseURL, apiKey, from string, lg *zap.SugaredLogger) *Client {
	api := resend.NewCustomClient(&http.Client{Timeout: 15 * time.Second}, apiKey)
	if baseURL != "" {
		if u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/"); err == nil {
			api.BaseURL = u
		} else {
			lg.Warnw("ignoring invalid email api url", "url", baseURL, "error", err)
		}
	}
	return &Client{api: api, key: apiKey, from: from, lg: lg}
}

// Send posts the message. Failures are not retried.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.key == "" {
		sentTotal.WithLabelValues(msg.Kind, "skipped").Inc()
		return ErrNotConfigured
	}
	req := &resend.SendEmailRequest{
		From:    c.from,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{Filename: a.Filename, Content: a.Content})
	}

	sent, err := c.api.Emails.SendWithContext(ctx, req)
	if err != nil {
		sentTotal.WithLabelValues(msg.Kind, "error").Inc()
		c.lg.Warnw("email provider rejected message", "kind", msg.Kind, "error", err)
		return fmt.Errorf("send email: %w", err)
	}
	sentTotal.WithLabelValues(msg.Kind, "sent").Inc()
	c.lg.Infow("email sent", "kind", msg.Kind, "to_count", len(msg.To), "id", sent.Id)
	return nil
}
