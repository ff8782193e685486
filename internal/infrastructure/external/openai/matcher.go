// Package openai implements the semantic-matching collaborator on top of
// the OpenAI chat completion API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/restobooks/vendor-recon/internal/application/port"
)

// Config holds the collaborator tuning.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Matcher implements port.SemanticMatcher using OpenAI
type Matcher struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	logger      *zap.Logger
}

// NewMatcher creates a new OpenAI-backed semantic matcher
func NewMatcher(cfg Config, logger *zap.Logger) *Matcher {
	return &Matcher{
		client:      openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// matchResponse is the JSON contract the model is asked to honor.
type matchResponse struct {
	Matched    bool    `json:"matched"`
	InvoiceID  *int64  `json:"invoice_id"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// MatchLine asks the model to pick the invoice matching the statement
// line, if any. The call is bounded by the configured timeout.
func (m *Matcher) MatchLine(ctx context.Context, req *port.SemanticMatchRequest) (*port.SemanticMatchResult, error) {
	m.logger.Debug("Requesting semantic match",
		zap.String("line_description", req.LineDescription),
		zap.Int("candidates", len(req.Candidates)))

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	prompt, err := buildMatchPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("build match prompt: %w", err)
	}

	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       m.model,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		m.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("semantic matcher call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from semantic matcher")
	}

	content := resp.Choices[0].Message.Content

	var parsed matchResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		// Fallback: extract a JSON object from surrounding prose.
		if jsonStr := extractJSON(content); jsonStr != "" {
			err = json.Unmarshal([]byte(jsonStr), &parsed)
		}
		if err != nil {
			m.logger.Error("Failed to parse semantic matcher response",
				zap.Error(err),
				zap.String("content", content))
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}

	// A match claim without an invoice id is unusable as a suggestion.
	if parsed.Matched && parsed.InvoiceID == nil {
		parsed.Matched = false
	}

	m.logger.Info("Semantic match completed",
		zap.Bool("matched", parsed.Matched),
		zap.Float64("confidence", parsed.Confidence))

	return &port.SemanticMatchResult{
		Matched:    parsed.Matched,
		InvoiceID:  parsed.InvoiceID,
		Confidence: parsed.Confidence,
		Rationale:  parsed.Rationale,
	}, nil
}

// extractJSON pulls the first balanced JSON object out of a string.
func extractJSON(content string) string {
	start := -1
	for i := 0; i < len(content); i++ {
		if content[i] == '{' {
			start = i
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

var _ port.SemanticMatcher = (*Matcher)(nil)
