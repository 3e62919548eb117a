package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.sendgrid.com"

// Config is injected at construction; business logic never reads the
// environment for mail settings.
type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
	BaseURL   string
	Timeout   time.Duration
}

// Message is a rendered notification ready for delivery.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Client talks to the SendGrid v3 mail API. A client with no API key or
// sender address is disabled: Enabled() reports false and Send refuses to
// run, which callers treat as "skip, log only".
type Client struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger
}

func New(cfg Config, logger *zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	var mailLogger zerolog.Logger
	if logger != nil {
		mailLogger = logger.With().Str("component", "mailer").Logger()
	}

	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: mailLogger,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.cfg.APIKey != "" && c.cfg.FromEmail != ""
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

func (c *Client) Send(ctx context.Context, msg Message) error {
	if !c.Enabled() {
		return fmt.Errorf("mailer is not configured")
	}
	if msg.To == "" {
		return fmt.Errorf("message has no recipient")
	}

	payload := sendRequest{
		Personalizations: []personalization{
			{To: []emailAddress{{Email: msg.To, Name: msg.ToName}}},
		},
		From:    emailAddress{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		Subject: msg.Subject,
		Content: []mailContent{{Type: "text/html", Value: msg.HTML}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail API returned %d: %s", resp.StatusCode, string(snippet))
	}

	c.logger.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail accepted by transport")
	return nil
}
