package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"relampago-bridge/internal/entities"
)

// BackendClient issues HTTP calls against the order-management backend.
// Every call carries the caller's context plus the configured client
// timeout, so a hung backend can never suspend a handler indefinitely.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zerolog.Logger
}

func NewBackendClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) *BackendClient {
	clientLog := logger.With().Str("component", "BackendClient").Logger()
	return &BackendClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        &clientLog,
	}
}

// NotifyChat forwards free-text chat content. The backend may return an
// answer to surface to the user.
func (c *BackendClient) NotifyChat(ctx context.Context, message, chatID string) (*entities.BackendReply, error) {
	body := map[string]any{
		"message":      message,
		"phone_number": phoneFromChatID(chatID),
	}
	var reply entities.BackendReply
	if err := c.postJSON(ctx, "chat", "/chat", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// NotifyLocation forwards a shared location.
func (c *BackendClient) NotifyLocation(ctx context.Context, chatID string, lat, lon float64) (*entities.BackendReply, error) {
	body := map[string]any{
		"phone_number": phoneFromChatID(chatID),
		"latitude":     lat,
		"longitude":    lon,
	}
	var reply entities.BackendReply
	if err := c.postJSON(ctx, "location", "/location", body, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ResolveOrderAction relays a restaurant operator's confirm/reject decision.
func (c *BackendClient) ResolveOrderAction(ctx context.Context, orderID, action string) (*entities.OrderActionResult, error) {
	body := map[string]any{"action": action}
	var result entities.OrderActionResult
	if err := c.postJSON(ctx, "restaurant-response", "/restaurant-response/"+orderID, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// postJSON sends a JSON POST and decodes the JSON response. Network errors
// and non-2xx statuses come back as BackendUnavailableError.
func (c *BackendClient) postJSON(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &entities.BackendUnavailableError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &entities.BackendUnavailableError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("op", op).Msg("backend request failed")
		return &entities.BackendUnavailableError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Error().Str("op", op).Int("status", resp.StatusCode).Msg("backend returned error status")
		return &entities.BackendUnavailableError{
			Op:  op,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &entities.BackendUnavailableError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// phoneFromChatID strips the transport suffix from a chat identifier; the
// backend works with bare phone numbers.
func phoneFromChatID(chatID string) string {
	if i := strings.IndexByte(chatID, '@'); i >= 0 {
		return chatID[:i]
	}
	return chatID
}
