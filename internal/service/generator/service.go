package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/metrics"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/openai"
)

// Per-million-token prices for gpt-4o class models (USD).
const (
	inputCostPerMTok  = 2.50
	outputCostPerMTok = 10.00
)

// Config carries the fixed sampling parameters for every generation call.
type Config struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// Service produces message content for a contact/occasion pair via the
// injected chat-completions client. Failures are returned as data, never as
// errors; the caller decides whether to substitute the fallback template.
type Service struct {
	client  openai.Client
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewService(client openai.Client, cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
	}
}

// Result is the outcome of a single generation attempt.
type Result struct {
	Success  bool
	Content  string
	Metadata model.MessageMetadata
	Error    string
}

// BatchResult pairs a Result with the contact it was produced for.
type BatchResult struct {
	ContactID   uuid.UUID
	ContactName string
	Result
}

// Generate builds localized prompts for the contact and calls the external
// API once. Unknown occasions are a hard error (they indicate a caller bug,
// not a degraded dependency).
func (s *Service) Generate(ctx context.Context, contact *model.Contact, occasion model.OccasionType, customContext *string, tone string) (Result, error) {
	if tone == "" {
		tone = DefaultTone
	}

	userPrompt, err := buildMessagePrompt(contact, occasion, customContext, tone)
	if err != nil {
		return Result{}, err
	}

	lang := normalizeLanguage(contact.Language)
	start := time.Now()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatMessage{
			{Role: "system", Content: systemPrompt(lang)},
			{Role: "user", Content: userPrompt},
		},
	})
	if s.metrics != nil {
		s.metrics.GenerationLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		s.logger.Warn().Err(err).
			Str("contact_id", contact.ID.String()).
			Str("occasion", string(occasion)).
			Msg("generation call failed")
		if s.metrics != nil {
			s.metrics.GenerationsTotal.With(prometheus.Labels{"occasion": string(occasion), "status": "error"}).Inc()
		}
		return Result{
			Success:  false,
			Metadata: model.MessageMetadata{ErrorType: "api_error"},
			Error:    fmt.Sprintf("generation API error: %v", err),
		}, nil
	}

	if len(resp.Choices) == 0 {
		s.logger.Warn().
			Str("contact_id", contact.ID.String()).
			Str("occasion", string(occasion)).
			Msg("generation returned no choices")
		if s.metrics != nil {
			s.metrics.GenerationsTotal.With(prometheus.Labels{"occasion": string(occasion), "status": "error"}).Inc()
		}
		return Result{
			Success:  false,
			Metadata: model.MessageMetadata{ErrorType: "api_error"},
			Error:    "generation API error: empty response",
		}, nil
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	inputTokens := resp.Usage.PromptTokens
	outputTokens := resp.Usage.CompletionTokens
	cost := float64(inputTokens)/1_000_000*inputCostPerMTok + float64(outputTokens)/1_000_000*outputCostPerMTok

	if s.metrics != nil {
		s.metrics.GenerationsTotal.With(prometheus.Labels{"occasion": string(occasion), "status": "success"}).Inc()
		s.metrics.GenerationTokens.With(prometheus.Labels{"kind": "input"}).Add(float64(inputTokens))
		s.metrics.GenerationTokens.With(prometheus.Labels{"kind": "output"}).Add(float64(outputTokens))
		s.metrics.GenerationCostUSD.Add(cost)
	}

	generatedAt := time.Now().UTC()
	return Result{
		Success: true,
		Content: content,
		Metadata: model.MessageMetadata{
			Model:        s.cfg.Model,
			InputTokens:  inputTokens,
			OutputTokens: outputTokens,
			TotalTokens:  inputTokens + outputTokens,
			CostUSD:      cost,
			Tone:         tone,
			Language:     string(lang),
			OccasionType: string(occasion),
			GeneratedAt:  &generatedAt,
		},
	}, nil
}

// Fallback returns the canned localized template for the contact.
func (s *Service) Fallback(contactName string, occasion model.OccasionType, lang model.Language) string {
	if s.metrics != nil {
		s.metrics.GenerationFallbacks.Inc()
	}
	return Fallback(contactName, occasion, lang)
}

// BatchGenerate applies Generate independently per contact; one contact's
// failure never aborts the batch.
func (s *Service) BatchGenerate(ctx context.Context, contacts []*model.Contact, occasion model.OccasionType, customContext *string, tone string) ([]BatchResult, error) {
	if !occasion.Valid() {
		return nil, fmt.Errorf("unknown occasion type: %s", occasion)
	}

	results := make([]BatchResult, 0, len(contacts))
	for _, contact := range contacts {
		result, err := s.Generate(ctx, contact, occasion, customContext, tone)
		if err != nil {
			result = Result{
				Success:  false,
				Metadata: model.MessageMetadata{ErrorType: "api_error"},
				Error:    err.Error(),
			}
		}
		results = append(results, BatchResult{
			ContactID:   contact.ID,
			ContactName: contact.Name,
			Result:      result,
		})
	}
	return results, nil
}
