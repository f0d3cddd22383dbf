// ABOUTME: HTTP client for the remote set-logging endpoint.
// ABOUTME: The entry's local ID is sent as the Idempotency-Key header.
package syncqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/harperreed/readiness/internal/models"
)

// Header names shared with the server.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderDeviceID       = "X-Device-ID"
)

// SetsPath is the endpoint path for set submission.
const SetsPath = "/v1/sets"

const maxAckBytes = 64 << 10

// Endpoint accepts sets for the authoritative store.
type Endpoint interface {
	Submit(ctx context.Context, idempotencyKey string, e models.PendingSetEntry) (models.SetAck, error)
}

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("set endpoint returned %d: %s", e.Code, e.Body)
}

// OAuthConfig holds client-credentials settings for the endpoint.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// HTTPEndpoint submits sets over HTTP.
type HTTPEndpoint struct {
	baseURL    string
	deviceID   string
	httpClient *http.Client
}

// NewHTTPEndpoint builds an endpoint client. When oauth is non-nil the
// client authenticates with the client-credentials grant.
func NewHTTPEndpoint(baseURL, deviceID string, oauth *OAuthConfig) *HTTPEndpoint {
	client := &http.Client{Timeout: 15 * time.Second}
	if oauth != nil && oauth.ClientID != "" {
		cc := &clientcredentials.Config{
			ClientID:     oauth.ClientID,
			ClientSecret: oauth.ClientSecret,
			TokenURL:     oauth.TokenURL,
		}
		client = cc.Client(context.Background())
		client.Timeout = 15 * time.Second
	}
	return &HTTPEndpoint{
		baseURL:    strings.TrimRight(baseURL, "/"),
		deviceID:   deviceID,
		httpClient: client,
	}
}

// Submit posts the entry. Replays of a key the server has already seen are
// acknowledged with Duplicate set. A 2xx with an empty or unparseable body
// still counts as acknowledged.
func (h *HTTPEndpoint) Submit(ctx context.Context, idempotencyKey string, e models.PendingSetEntry) (models.SetAck, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return models.SetAck{}, fmt.Errorf("encode set: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+SetsPath, bytes.NewReader(body))
	if err != nil {
		return models.SetAck{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderIdempotencyKey, idempotencyKey)
	if h.deviceID != "" {
		req.Header.Set(HeaderDeviceID, h.deviceID)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return models.SetAck{}, fmt.Errorf("submit set: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return models.SetAck{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	// Any 2xx is an ack. The body only adds detail such as Duplicate.
	ack := models.SetAck{IdempotencyKey: idempotencyKey}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAckBytes))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return ack, nil
	}
	var decoded models.SetAck
	if err := json.Unmarshal(data, &decoded); err != nil {
		return ack, nil
	}
	if decoded.IdempotencyKey == "" {
		decoded.IdempotencyKey = idempotencyKey
	}
	return decoded, nil
}
