// Package notification delivers password reset mails through the EmailJS REST API.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spec-kit/testimonial-service/internal/config"
)

// ErrNotConfigured is returned when EmailJS credentials are missing.
var ErrNotConfigured = errors.New("emailjs credentials not configured")

// EmailJSSender posts template sends to EmailJS.
type EmailJSSender struct {
	cfg    config.NotificationConfig
	client *http.Client
}

// NewEmailJSSender builds a sender. A nil client gets a 10 second timeout.
func NewEmailJSSender(cfg config.NotificationConfig, client *http.Client) *EmailJSSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &EmailJSSender{cfg: cfg, client: client}
}

type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams templateParams `json:"template_params"`
}

type templateParams struct {
	Email string `json:"email"`
	Link  string `json:"link"`
}

// Configured reports whether all EmailJS credentials are present.
func (s *EmailJSSender) Configured() bool {
	return s.cfg.ServiceID != "" && s.cfg.TemplateID != "" && s.cfg.UserID != ""
}

// SendPasswordReset mails the reset link to email. Any non-2xx answer is an error.
func (s *EmailJSSender) SendPasswordReset(ctx context.Context, email, link string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:      s.cfg.ServiceID,
		TemplateID:     s.cfg.TemplateID,
		UserID:         s.cfg.UserID,
		TemplateParams: templateParams{Email: email, Link: link},
	})
	if err != nil {
		return fmt.Errorf("encode emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("emailjs send: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
