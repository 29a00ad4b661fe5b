package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatrelay/internal/models"
)

const maxResponseBytes = 1 << 20

// RelayError is a non-2xx answer from the relay, or a body that does not
// follow the relay contract.
type RelayError struct {
	Status  int
	Code    string
	Message string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.Status, e.Message)
}

// HTTPRelay posts messages to a relay's /chat endpoint.
type HTTPRelay struct {
	baseURL   string
	client    *http.Client
	sessionID string
}

func NewHTTPRelay(baseURL string, timeout time.Duration) *HTTPRelay {
	return &HTTPRelay{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: timeout},
		sessionID: uuid.NewString(),
	}
}

func (r *HTTPRelay) SessionID() string { return r.sessionID }

func (r *HTTPRelay) Send(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(struct {
		Message string `json:"message"`
	}{Message: message})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Chat-Session", r.sessionID)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	var out models.RelayResponse
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("Server error: %d", resp.StatusCode)
		}
		return "", &RelayError{Status: resp.StatusCode, Code: out.Code, Message: msg}
	}
	if decodeErr != nil {
		return "", &RelayError{Status: resp.StatusCode, Message: "Malformed response from server"}
	}

	return out.Reply, nil
}
