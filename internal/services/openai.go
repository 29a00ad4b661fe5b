package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const finishReasonContentFilter = "content_filter"

// OpenAIService talks to any OpenAI-compatible chat completion endpoint.
type OpenAIService struct {
	client      *openai.Client
	modelName   string
	temperature float32
}

func NewOpenAIService(apiKey, baseURL, modelName string, temperature float32) *OpenAIService {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIService{
		client:      openai.NewClientWithConfig(clientConfig),
		modelName:   modelName,
		temperature: temperature,
	}
}

func (s *OpenAIService) Name() string  { return "openai" }
func (s *OpenAIService) Model() string { return s.modelName }
func (s *OpenAIService) Close() error  { return nil }

func (s *OpenAIService) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.modelName,
		Temperature: s.temperature,
		N:           1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	var text strings.Builder
	for _, choice := range resp.Choices {
		if string(choice.FinishReason) == finishReasonContentFilter {
			return "", &ProviderError{Kind: KindContentBlocked, Detail: "response stopped by content filter"}
		}
		text.WriteString(choice.Message.Content)
	}
	return text.String(), nil
}

func classifyOpenAIError(err error) *ProviderError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if kind := kindFromHTTPStatus(apiErr.HTTPStatusCode); kind != KindUnknown {
			return newProviderError(kind, err)
		}
		return newProviderError(classifyMessage(apiErr.Type+" "+apiErr.Message), err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if kind := kindFromHTTPStatus(reqErr.HTTPStatusCode); kind != KindUnknown {
			return newProviderError(kind, err)
		}
	}

	return newProviderError(classifyMessage(err.Error()), err)
}

func kindFromHTTPStatus(code int) ErrorKind {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindQuota
	default:
		return KindUnknown
	}
}
