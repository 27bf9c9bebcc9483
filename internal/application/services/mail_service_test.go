package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/core/internal/infrastructure/config"
	"github.com/taskloop/core/internal/infrastructure/logger"
	"github.com/taskloop/core/internal/ports"
)

func TestMailSend_RelaysWithProviderKey(t *testing.T) {
	var got providerPayload
	var auth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	svc := NewMailService(config.MailConfig{
		ProviderURL: server.URL,
		ProviderKey: "secret-key",
		FromAddress: "tasks@taskloop.dev",
		Timeout:     5 * time.Second,
	}, logger.NewNop())

	err := svc.Send(context.Background(), ports.SendMailRequest{
		To:      "user@example.com",
		Subject: "Weekly digest",
		Body:    "You have 3 open tasks.",
	})
	require.NoError(t, err)

	// The key is attached server-side, never taken from the request.
	assert.Equal(t, "Bearer secret-key", auth)
	assert.Equal(t, "tasks@taskloop.dev", got.From)
	assert.Equal(t, "user@example.com", got.To)
	assert.Equal(t, "Weekly digest", got.Subject)
	assert.Equal(t, "You have 3 open tasks.", got.Body)
}

func TestMailSend_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	svc := NewMailService(config.MailConfig{
		ProviderURL: server.URL,
		FromAddress: "tasks@taskloop.dev",
		Timeout:     5 * time.Second,
	}, logger.NewNop())

	err := svc.Send(context.Background(), ports.SendMailRequest{
		To:      "user@example.com",
		Subject: "Weekly digest",
		Body:    "body",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestMailSend_Unconfigured(t *testing.T) {
	svc := NewMailService(config.MailConfig{}, logger.NewNop())

	err := svc.Send(context.Background(), ports.SendMailRequest{
		To:      "user@example.com",
		Subject: "subject",
		Body:    "body",
	})
	assert.Error(t, err)
}
