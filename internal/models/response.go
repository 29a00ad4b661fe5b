package models

// Error codes returned alongside the human-readable error string.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeAuthError      = "AUTH_ERROR"
	CodeQuotaExceeded  = "QUOTA_EXCEEDED"
	CodeContentBlocked = "CONTENT_BLOCKED"
	CodeInternalError  = "INTERNAL_ERROR"
	CodeBusy           = "BUSY"
)

type ReplyResponse struct {
	Reply string `json:"reply"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Port     int    `json:"port"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// WebSocket frame types.
const (
	WSTypeTyping = "typing"
	WSTypeReply  = "reply"
	WSTypeError  = "error"
)

// WSMessage is an outbound WebSocket frame.
type WSMessage struct {
	Type    string `json:"type"`
	Reply   string `json:"reply,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
