package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatrelay/internal/models"
	"chatrelay/internal/services"
)

type stubProvider struct {
	reply string
	err   error
	calls int
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }
func (s *stubProvider) Close() error  { return nil }

func (s *stubProvider) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func newTestHandler(p *stubProvider) *ChatHandler {
	return NewChatHandler(services.NewRelay(p, time.Second), 5050)
}

func postChat(h *ChatHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

func TestChatHandler_Success(t *testing.T) {
	req := require.New(t)
	p := &stubProvider{reply: "Hi there!"}
	h := newTestHandler(p)

	rr := postChat(h, `{"message":"hello"}`)

	req.Equal(http.StatusOK, rr.Code)
	req.Equal("application/json", rr.Header().Get("Content-Type"))
	req.Equal(models.ContractVersion, rr.Header().Get("X-Relay-Contract"))
	req.Equal(map[string]any{"reply": "Hi there!"}, decodeBody(t, rr))
	req.Equal(1, p.calls)
}

func TestChatHandler_InvalidRequests(t *testing.T) {
	bodies := []string{
		`{"message":""}`,
		`{"message":"   "}`,
		`{}`,
		`{"message":7}`,
		`not json`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			p := &stubProvider{reply: "unused"}
			rr := postChat(newTestHandler(p), body)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			resp := decodeBody(t, rr)
			require.NotEmpty(t, resp["error"])
			require.NotContains(t, resp, "reply")
			require.Zero(t, p.calls, "provider must not be called")
		})
	}
}

func TestChatHandler_ProviderFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		contains string
	}{
		{"auth", &services.ProviderError{Kind: services.KindAuth}, http.StatusUnauthorized, "API key"},
		{"quota", &services.ProviderError{Kind: services.KindQuota}, http.StatusTooManyRequests, "quota"},
		{"blocked", &services.ProviderError{Kind: services.KindContentBlocked}, http.StatusBadRequest, "blocked"},
		{"unknown", &services.ProviderError{Kind: services.KindUnknown, Detail: "upstream 502"}, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postChat(newTestHandler(&stubProvider{err: tc.err}), `{"message":"hello"}`)

			require.Equal(t, tc.status, rr.Code)
			resp := decodeBody(t, rr)
			require.Contains(t, resp["error"], tc.contains)
			require.NotContains(t, resp, "reply")
		})
	}
}

func TestChatHandler_InternalErrorCarriesDetails(t *testing.T) {
	p := &stubProvider{err: &services.ProviderError{Kind: services.KindUnknown, Detail: "upstream 502"}}
	rr := postChat(newTestHandler(p), `{"message":"hello"}`)

	resp := decodeBody(t, rr)
	require.Equal(t, "upstream 502", resp["details"])
	require.Equal(t, models.CodeInternalError, resp["code"])
}

func TestChatHandler_BodyTooLarge(t *testing.T) {
	p := &stubProvider{reply: "unused"}
	big := `{"message":"` + strings.Repeat("a", maxBodyBytes) + `"}`

	rr := postChat(newTestHandler(p), big)

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Zero(t, p.calls)
}

func TestChatHandler_RepeatedRequestsAreIndependent(t *testing.T) {
	h := newTestHandler(&stubProvider{reply: "deterministic"})

	first := decodeBody(t, postChat(h, `{"message":"same"}`))
	second := decodeBody(t, postChat(h, `{"message":"same"}`))

	require.Equal(t, first, second)
}

func TestChatHandler_Health(t *testing.T) {
	req := require.New(t)
	h := newTestHandler(&stubProvider{})

	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	req.Equal(http.StatusOK, rr.Code)
	var body models.HealthResponse
	req.NoError(json.NewDecoder(rr.Body).Decode(&body))
	req.NotEmpty(body.Status)
	req.Equal(5050, body.Port)
	req.Equal("stub", body.Provider)
}
