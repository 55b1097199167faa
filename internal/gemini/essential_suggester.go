package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/budget-health/internal/logger"
	"google.golang.org/genai"
)

// MaxCategoryNameLength is the maximum category name length embedded in prompts.
const MaxCategoryNameLength = 50

// MinConfidence is the lowest confidence at which a suggestion is trusted.
const MinConfidence = 0.6

// suggestTimeout bounds a single Gemini call.
const suggestTimeout = 10 * time.Second

// ErrLowConfidence is returned when the model is unsure about a suggestion.
var ErrLowConfidence = errors.New("suggestion confidence too low")

// EssentialSuggestion is the model's verdict on whether a budget category covers needs.
type EssentialSuggestion struct {
	Essential  bool    `json:"essential"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// SuggestEssential asks Gemini whether a category name describes essential spending
// (housing, groceries, utilities) or a nice-to-have (dining out, hobbies).
func (c *Client) SuggestEssential(ctx context.Context, categoryName string) (bool, error) {
	suggestion, err := c.suggestEssential(ctx, categoryName)
	if err != nil {
		return false, err
	}
	return suggestion.Essential, nil
}

func (c *Client) suggestEssential(ctx context.Context, categoryName string) (*EssentialSuggestion, error) {
	if c.generator == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}

	name := SanitizeCategoryName(categoryName)
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}

	log := logger.Component("gemini")
	log.Debug().Str("category", logger.SanitizeText(name)).Msg("SuggestEssential called")

	timeoutCtx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildEssentialPrompt(name)}},
		},
	}

	temp := float32(0.2)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(300),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: "You are a JSON API. You MUST respond with ONLY valid JSON, no preamble or explanation. Output a single JSON object."},
			},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"essential": {
					Type:        genai.TypeBoolean,
					Description: "True when the category covers needs rather than wants",
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "Confidence score between 0 and 1",
				},
				"reasoning": {
					Type:        genai.TypeString,
					Description: "Brief explanation",
				},
			},
			Required: []string{"essential", "confidence", "reasoning"},
		},
	}

	resp, err := c.generator.GenerateContent(timeoutCtx, ModelName, contents, config)
	if err != nil {
		log.Error().Err(err).Msg("SuggestEssential: Gemini API call failed")
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	jsonText := extractJSON(resp.Text())
	if jsonText == "" {
		log.Warn().Msg("SuggestEssential: no JSON found in Gemini response")
		return nil, fmt.Errorf("no JSON found in response")
	}

	var suggestion EssentialSuggestion
	if err := json.Unmarshal([]byte(jsonText), &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if suggestion.Confidence < 0.0 || suggestion.Confidence > 1.0 {
		return nil, fmt.Errorf("confidence out of range: %f", suggestion.Confidence)
	}
	if suggestion.Confidence < MinConfidence {
		return nil, fmt.Errorf("%w: %.2f", ErrLowConfidence, suggestion.Confidence)
	}

	suggestion.Reasoning = sanitizeReasoning(suggestion.Reasoning)

	log.Debug().
		Bool("essential", suggestion.Essential).
		Float64("confidence", suggestion.Confidence).
		Msg("SuggestEssential: parsed Gemini suggestion")

	return &suggestion, nil
}

func buildEssentialPrompt(categoryName string) string {
	return fmt.Sprintf(`Classify this personal budget category: "%s"

Rules:
- "essential" is true for needs: rent, mortgage, groceries, utilities, insurance, healthcare, transport to work, debt payments
- "essential" is false for nice-to-haves: dining out, entertainment, hobbies, travel, subscriptions, shopping
- Higher confidence (0.8-1.0) for obvious categories, lower (0.5-0.7) for ambiguous ones

Return JSON only:
{"essential": true or false, "confidence": 0.0-1.0, "reasoning": "brief explanation"}`, categoryName)
}

// extractJSON extracts a JSON object from text that may contain preamble.
// Gemini sometimes returns "Here is the JSON:\n{...}" even when
// ResponseMIMEType is set to application/json.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(text, "}")
	if end == -1 || end <= start {
		return ""
	}

	return text[start : end+1]
}

// SanitizeForPrompt strips characters that could break prompt structure
// and truncates to maxLength.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.ReplaceAll(input, `"`, `'`)
	input = strings.ReplaceAll(input, "`", "'")
	input = strings.ReplaceAll(input, "\x00", "")

	// Collapses newlines and runs of whitespace.
	input = strings.Join(strings.Fields(input), " ")

	input = truncateRunes(input, maxLength)

	return input
}

// SanitizeCategoryName sanitizes a category name for safe embedding in prompts.
func SanitizeCategoryName(name string) string {
	return SanitizeForPrompt(name, MaxCategoryNameLength)
}

func sanitizeReasoning(reasoning string) string {
	reasoning = strings.Join(strings.Fields(reasoning), " ")

	const maxReasoningLength = 500
	return truncateRunes(reasoning, maxReasoningLength)
}

func truncateRunes(s string, n int) string {
	if runes := []rune(s); len(runes) > n {
		return strings.TrimSpace(string(runes[:n]))
	}
	return s
}
