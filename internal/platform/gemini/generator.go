package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/phrazzld/flashlearn-api/internal/config"
	"github.com/phrazzld/flashlearn-api/internal/generation"
)

// promptTemplateText asks the model for strict JSON so the response can be
// unmarshaled directly into the draft schema.
const promptTemplateText = `You are a flashcard author. Create exactly {{.Count}} flashcards
about the following topic:

{{.Topic}}

Respond with JSON only, no prose, matching this schema:
{"cards": [{"front": "question text", "back": "answer text"}]}

Each front must be a single clear question and each back a concise answer.`

// Retry policy for transient upstream failures.
const (
	maxRetries       = 2
	baseDelaySeconds = 1
)

// responseSchema mirrors the JSON document the prompt requests.
type responseSchema struct {
	Cards []generation.DraftCard `json:"cards"`
}

// promptData carries the template inputs.
type promptData struct {
	Topic string
	Count int
}

// Generator implements generation.Generator using the Gemini API.
type Generator struct {
	logger         *slog.Logger
	client         *genai.Client
	model          string
	promptTemplate *template.Template

	// sleep is injectable so tests can skip real backoff delays.
	sleep func(time.Duration)
}

// Compile-time check that Generator satisfies the interface.
var _ generation.Generator = (*Generator)(nil)

// NewGenerator creates a Gemini-backed draft generator.
// Returns generation.ErrInvalidConfig when the API key or model name is
// missing.
func NewGenerator(ctx context.Context, log *slog.Logger, cfg config.GenerationConfig) (*Generator, error) {
	if log == nil {
		log = slog.Default()
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	promptTemplate, err := template.New("drafts").Parse(promptTemplateText)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger:         log.With(slog.String("component", "gemini_generator")),
		client:         client,
		model:          cfg.ModelName,
		promptTemplate: promptTemplate,
		sleep:          time.Sleep,
	}, nil
}

// GenerateDrafts implements generation.Generator.GenerateDrafts.
func (g *Generator) GenerateDrafts(ctx context.Context, topic string, count int) ([]generation.DraftCard, error) {
	if topic == "" {
		return nil, generation.ErrEmptyTopic
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: draft count must be at least 1", generation.ErrGenerationFailed)
	}

	prompt, err := g.buildPrompt(topic, count)
	if err != nil {
		return nil, err
	}

	text, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	drafts, err := parseDrafts(text)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "draft cards generated",
		"topic_length", len(topic),
		"draft_count", len(drafts))
	return drafts, nil
}

// buildPrompt renders the prompt template.
func (g *Generator) buildPrompt(topic string, count int) (string, error) {
	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, promptData{Topic: topic, Count: count}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}

// callWithRetry calls the Gemini API with exponential backoff for transient
// failures. Permanent errors (safety blocks, malformed responses) return
// immediately.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})

		switch {
		case err != nil:
			// Upstream errors are assumed transient and retried.
			lastErr = fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
			g.logger.WarnContext(ctx, "Gemini API call failed",
				"error", err,
				"attempt", attempt+1)
		case resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil:
			return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
		case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
			return "", fmt.Errorf("%w: prompt rejected", generation.ErrContentBlocked)
		default:
			return resp.Text(), nil
		}

		if attempt == maxRetries {
			break
		}

		delay := time.Duration(float64(baseDelaySeconds)*math.Pow(2, float64(attempt))) * time.Second
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		default:
			g.sleep(delay)
		}
	}

	return "", lastErr
}

// parseDrafts unmarshals and validates the model's JSON document.
func parseDrafts(text string) ([]generation.DraftCard, error) {
	var parsed responseSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v", generation.ErrInvalidResponse, err)
	}

	if len(parsed.Cards) == 0 {
		return nil, fmt.Errorf("%w: no cards in response", generation.ErrInvalidResponse)
	}

	for i, draft := range parsed.Cards {
		if draft.Front == "" {
			return nil, fmt.Errorf("%w: card %d missing front side", generation.ErrInvalidResponse, i)
		}
		if draft.Back == "" {
			return nil, fmt.Errorf("%w: card %d missing back side", generation.ErrInvalidResponse, i)
		}
	}

	return parsed.Cards, nil
}

// IsPermanentError reports whether a generation error should not be retried
// by callers.
func IsPermanentError(err error) bool {
	return errors.Is(err, generation.ErrContentBlocked) ||
		errors.Is(err, generation.ErrInvalidResponse) ||
		errors.Is(err, generation.ErrEmptyTopic)
}
