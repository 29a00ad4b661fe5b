package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GenAIService talks to Gemini through the unified google.golang.org/genai SDK.
type GenAIService struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

func NewGenAIService(ctx context.Context, apiKey, modelName string, temperature float32) (*GenAIService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIService{
		client:      client,
		modelName:   modelName,
		temperature: temperature,
	}, nil
}

func (s *GenAIService) Name() string  { return "genai" }
func (s *GenAIService) Model() string { return s.modelName }
func (s *GenAIService) Close() error  { return nil }

func (s *GenAIService) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.modelName, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.temperature),
	})
	if err != nil {
		return "", classifyGenAIError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", &ProviderError{
			Kind:   KindContentBlocked,
			Detail: fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason),
		}
	}
	for _, cand := range resp.Candidates {
		switch cand.FinishReason {
		case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
			return "", &ProviderError{
				Kind:   KindContentBlocked,
				Detail: fmt.Sprintf("response stopped: %s", cand.FinishReason),
			}
		}
	}

	return resp.Text(), nil
}

func classifyGenAIError(err error) *ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newProviderError(kindFromGenAIStatus(apiErr.Code, apiErr.Status, apiErr.Message), err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return newProviderError(kindFromGenAIStatus(apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message), err)
	}
	return newProviderError(classifyMessage(err.Error()), err)
}

func kindFromGenAIStatus(code int, status, message string) ErrorKind {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return KindAuth
	case code == http.StatusTooManyRequests, status == "RESOURCE_EXHAUSTED":
		return KindQuota
	}
	// Invalid keys come back as 400 INVALID_ARGUMENT; only the message tells them apart.
	return classifyMessage(status + " " + message)
}
