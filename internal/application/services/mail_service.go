package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/taskloop/core/internal/infrastructure/config"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

// MailService relays outbound email to the configured provider. The relay
// exists so the provider key never reaches clients; the service attaches it
// server-side and forwards the message as-is.
type MailService struct {
	cfg    config.MailConfig
	client *http.Client
	logger *logger.Logger
}

// NewMailService creates a new mail relay service
func NewMailService(cfg config.MailConfig, logger *logger.Logger) *MailService {
	return &MailService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type providerPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Send forwards one message to the provider.
func (s *MailService) Send(ctx context.Context, req ports.SendMailRequest) error {
	if s.cfg.ProviderURL == "" {
		return fmt.Errorf("mail provider is not configured")
	}

	payload, err := json.Marshal(providerPayload{
		From:    s.cfg.FromAddress,
		To:      req.To,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ProviderURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.cfg.ProviderKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.cfg.ProviderKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail provider returned %d: %s", resp.StatusCode, string(body))
	}

	s.logger.Infow("Mail relayed", "to", req.To, "subject", req.Subject)

	return nil
}
