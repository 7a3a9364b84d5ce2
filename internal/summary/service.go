// Package summary generates a post-session study summary from the full
// transcript via a single non-streaming completion call.
package summary

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mahakjain123456/feynman-mirror/internal/config"
)

var (
	// ErrSummaryUnavailable is returned when no summary backend is configured.
	ErrSummaryUnavailable = errors.New("summary: no API key configured")

	// ErrEmptyTranscript is returned for sessions with nothing to summarize.
	ErrEmptyTranscript = errors.New("summary: transcript is empty")
)

const systemPrompt = "You summarize a teaching session in which a student " +
	"explained a topic to an AI tutor. Produce a short plain-prose summary: " +
	"what was explained, which parts were clear, and which parts the student " +
	"should revisit. Use the same language as the transcript. No markdown, " +
	"no headings, at most five sentences."

// Service produces one summary per finished session.
type Service interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// chatCompleter is the slice of the OpenAI client the service uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// NewService creates a Service from the configuration. Without an API key it
// returns a disabled service that reports failure on every call, so a missing
// key degrades the feature instead of the whole application.
func NewService(logger *zap.Logger, cfg *config.Config) Service {
	if cfg.OpenAI.APIKey == "" {
		logger.Warn("Summary service disabled: no OpenAI API key configured")

		return &disabledService{}
	}

	return &openAIService{
		logger: logger.Named("summary"),
		client: openai.NewClient(cfg.OpenAI.APIKey),
		model:  cfg.OpenAI.SummaryModel,
	}
}

type disabledService struct{}

func (*disabledService) Summarize(context.Context, string) (string, error) {
	return "", ErrSummaryUnavailable
}

type openAIService struct {
	logger *zap.Logger
	client chatCompleter
	model  string
}

func (s *openAIService) Summarize(ctx context.Context, transcript string) (string, error) {
	if strings.TrimSpace(transcript) == "" {
		return "", ErrEmptyTranscript
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: transcript},
		},
		Temperature: 0.3,
		MaxTokens:   300,
	})
	if err != nil {
		s.logger.Warn("Failed to generate session summary", zap.Error(err))

		return "", err
	}

	if len(resp.Choices) == 0 {
		s.logger.Warn("Summary backend returned no choices")

		return "", errors.New("summary: no completion returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.logger.Debug("Generated session summary", zap.Int("length", len(text)))

	return text, nil
}
