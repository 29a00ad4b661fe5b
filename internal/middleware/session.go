package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"chatrelay/internal/inflight"
	"chatrelay/internal/models"
)

const SessionHeader = "X-Chat-Session"

// SessionGuard allows one in-flight request per X-Chat-Session value.
// Requests without the header pass through unguarded.
func SessionGuard(guard inflight.Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := r.Header.Get(SessionHeader)
			if session == "" {
				next.ServeHTTP(w, r)
				return
			}

			release, err := guard.Acquire(r.Context(), session)
			if err != nil {
				if errors.Is(err, inflight.ErrBusy) {
					writeError(w, http.StatusConflict, models.CodeBusy, "A message is already being processed", r)
					return
				}
				zerolog.Ctx(r.Context()).Error().Err(err).Str("session", session).Msg("In-flight guard unavailable")
				writeError(w, http.StatusInternalServerError, models.CodeInternalError, "Internal Server Error", r)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: r.Header.Get(RequestIDHeader),
	})
}
