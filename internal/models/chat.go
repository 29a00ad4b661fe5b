package models

import "encoding/json"

// ContractVersion is sent as X-Relay-Contract on every relay response.
const ContractVersion = "v1"

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one entry of the visible transcript.
type ChatMessage struct {
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
}

// RelayRequest is the payload sent to the chat endpoint. Message is kept
// raw so a non-string value can be told apart from a missing one.
type RelayRequest struct {
	Message json.RawMessage `json:"message"`
}

// ChatInput is the validated form of a RelayRequest.
type ChatInput struct {
	Message string `validate:"required,notblank"`
}

// RelayResponse carries exactly one of Reply or Error.
type RelayResponse struct {
	Reply   string `json:"reply,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
