package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"chatrelay/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// ParseChatRequest decodes a {"message": ...} body and returns the message.
// Missing, null, non-string and blank messages are all rejected.
func ParseChatRequest(data []byte) (string, error) {
	var req models.RelayRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return "", &ValidationError{Message: "Invalid request body"}
	}

	raw := bytes.TrimSpace(req.Message)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", &ValidationError{Message: "No message provided"}
	}

	var input models.ChatInput
	if err := json.Unmarshal(raw, &input.Message); err != nil {
		return "", &ValidationError{Message: "Message must be a string"}
	}

	if err := validate.Struct(input); err != nil {
		return "", &ValidationError{Message: "No message provided"}
	}

	return input.Message, nil
}

// ErrorResponseFor maps any relay failure onto its HTTP status and body.
func ErrorResponseFor(err error) (int, models.ErrorResponse) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, models.ErrorResponse{Error: verr.Message, Code: models.CodeInvalidRequest}
	}
	if errors.Is(err, ErrEmptyMessage) {
		return http.StatusBadRequest, models.ErrorResponse{Error: "No message provided", Code: models.CodeInvalidRequest}
	}

	var perr *ProviderError
	if !errors.As(err, &perr) {
		return http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal Server Error",
			Code:    models.CodeInternalError,
			Details: err.Error(),
		}
	}

	switch perr.Kind {
	case KindAuth:
		return http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid API key", Code: models.CodeAuthError}
	case KindQuota:
		return http.StatusTooManyRequests, models.ErrorResponse{Error: "API quota exceeded", Code: models.CodeQuotaExceeded}
	case KindContentBlocked:
		return http.StatusBadRequest, models.ErrorResponse{
			Error: "Message was blocked by the provider's safety filters",
			Code:  models.CodeContentBlocked,
		}
	default:
		return http.StatusInternalServerError, models.ErrorResponse{
			Error:   "Internal Server Error",
			Code:    models.CodeInternalError,
			Details: perr.Detail,
		}
	}
}
