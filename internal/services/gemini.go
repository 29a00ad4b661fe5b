package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
)

// GeminiService talks to Gemini through the generative-ai-go SDK.
type GeminiService struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
}

func NewGeminiService(ctx context.Context, apiKey, modelName string, temperature float32) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(0.95)

	return &GeminiService{
		client:    client,
		model:     model,
		modelName: modelName,
	}, nil
}

func (s *GeminiService) Name() string  { return "gemini" }
func (s *GeminiService) Model() string { return s.modelName }

func (s *GeminiService) Close() error {
	return s.client.Close()
}

func (s *GeminiService) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	for _, cand := range resp.Candidates {
		if cand.FinishReason == genai.FinishReasonSafety {
			return "", &ProviderError{Kind: KindContentBlocked, Detail: "response stopped by safety filters"}
		}
	}

	return extractText(resp), nil
}

func classifyGeminiError(err error) *ProviderError {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return newProviderError(KindContentBlocked, err)
	}

	if ae, ok := apierror.FromError(err); ok {
		if kind := kindFromAPIError(ae); kind != KindUnknown {
			return newProviderError(kind, err)
		}
	}

	return newProviderError(classifyMessage(err.Error()), err)
}

func kindFromAPIError(ae *apierror.APIError) ErrorKind {
	if ae.Reason() == "API_KEY_INVALID" {
		return KindAuth
	}

	switch ae.GRPCStatus().Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return KindAuth
	case codes.ResourceExhausted:
		return KindQuota
	}

	switch ae.HTTPCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindQuota
	}

	return KindUnknown
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
