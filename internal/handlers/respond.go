package handlers

import (
	"encoding/json"
	"net/http"

	"chatrelay/internal/middleware"
	"chatrelay/internal/models"
	"chatrelay/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: r.Header.Get(middleware.RequestIDHeader),
	}
}

func handleRelayError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := services.ErrorResponseFor(err)
	resp.RequestID = r.Header.Get(middleware.RequestIDHeader)
	writeJSON(w, status, resp)
}
