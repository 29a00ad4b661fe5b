package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"chatrelay/internal/models"
	"chatrelay/internal/services"
)

const maxBodyBytes = 64 << 10

type relayService interface {
	Reply(ctx context.Context, message string) (string, error)
	ProviderName() string
	Model() string
}

type ChatHandler struct {
	relay relayService
	port  int
}

func NewChatHandler(relay relayService, port int) *ChatHandler {
	return &ChatHandler{
		relay: relay,
		port:  port,
	}
}

// Chat is the relay endpoint: one message in, one reply or error out.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Relay-Contract", models.ContractVersion)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp(models.CodeInvalidRequest, "Message is too large", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp(models.CodeInvalidRequest, "Invalid request body", r))
		return
	}

	message, err := services.ParseChatRequest(body)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("Rejected chat request")
		handleRelayError(w, r, err)
		return
	}

	reply, err := h.relay.Reply(r.Context(), message)
	if err != nil {
		handleRelayError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.ReplyResponse{Reply: reply})
}

// Health is used for liveness probing only.
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:   "ok",
		Port:     h.port,
		Provider: h.relay.ProviderName(),
		Model:    h.relay.Model(),
	})
}
