package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/applymate/applymate/internal/profile"
	"github.com/applymate/applymate/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Engine classifies a field description as one of the known profile
// attributes by asking Gemini. It is consulted only for fields the phrase
// matcher cannot place with confidence.
type Engine struct {
	generator  contentGenerator
	attributes []profile.Attribute
	logger     *zap.Logger
	maxLogLen  int
}

func NewEngine(generator contentGenerator, attributes []profile.Attribute, maxLogLength int, logger *zap.Logger) *Engine {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		generator:  generator,
		attributes: attributes,
		logger:     logger,
		maxLogLen:  maxLogLength,
	}
}

func (e *Engine) Name() string {
	return fmt.Sprintf("gemini/%s", e.generator.Model())
}

// Match asks the model to pick an attribute for the field text. An answer
// naming an unknown attribute counts as no match, not as an error.
func (e *Engine) Match(ctx context.Context, text string) (profile.Attribute, float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return profile.None, 0, nil
	}

	prompt := buildPrompt(text, e.attributes)

	e.logger.Debug("gemini classify request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return profile.None, 0, err
	}

	e.logger.Debug("gemini classify response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	attribute, score, err := parseResponse(raw)
	if err != nil {
		return profile.None, 0, err
	}

	if !e.known(attribute) {
		e.logger.Debug("gemini named an unknown attribute", zap.String("attribute", string(attribute)))
		return profile.None, 0, nil
	}

	return attribute, score, nil
}

func (e *Engine) known(attribute profile.Attribute) bool {
	for _, known := range e.attributes {
		if attribute == known {
			return true
		}
	}
	return false
}

func buildPrompt(fieldText string, attributes []profile.Attribute) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Field:\n{{FIELD_TEXT}}\n\nAttributes:\n{{ATTRIBUTES}}\n\nJSON Response:"
	}

	names := make([]string, 0, len(attributes))
	for _, attribute := range attributes {
		names = append(names, "- "+string(attribute))
	}

	prompt := strings.ReplaceAll(template, "{{FIELD_TEXT}}", fieldText)
	prompt = strings.ReplaceAll(prompt, "{{ATTRIBUTES}}", strings.Join(names, "\n"))
	return prompt
}

func parseResponse(raw string) (profile.Attribute, float64, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return profile.None, 0, fmt.Errorf("parse gemini response: %w", err)
	}

	attribute := profile.Attribute(coerceString(data["attribute"]))
	if strings.EqualFold(string(attribute), "none") {
		attribute = profile.None
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) || score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return attribute, score, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		return ""
	}
}
