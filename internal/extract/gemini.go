package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

// implements Extractor using Google Gemini
type GeminiExtractor struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiExtractor(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiExtractor{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (e *GeminiExtractor) Extract(
	ctx context.Context,
	transcript string,
) ([]Quote, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	prompt := BuildPrompt(e.options, transcript)

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	return e.parseResponse(result)
}

func (e *GeminiExtractor) parseResponse(
	result *genai.GenerateContentResponse,
) ([]Quote, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	responseText = cleanJSONResponse(responseText)

	quotes, err := extractQuoteList(responseText)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to parse JSON response: %w (response: %s)",
			err,
			truncateString(responseText, 200),
		)
	}

	return capQuotes(quotes, e.options.maxQuotes()), nil
}

func (e *GeminiExtractor) Close() error {
	return nil
}

// models sometimes return more quotes than asked for
func capQuotes(quotes []Quote, max int) []Quote {
	if len(quotes) > max {
		return quotes[:max]
	}
	return quotes
}

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)

	jsonBlockRegex := regexp.MustCompile("```(?:json)?\\s*")
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")

	s = strings.TrimSpace(s)

	return s
}

// fixes invalid JSON escape sequences like \N (SRT newline).
// It replaces \N with \\N so JSON can parse it, preserving the literal \N in the output.
func fixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if i < len(s)-1 && s[i] == '\\' {
			next := s[i+1]
			// Valid JSON escape sequences: ", \, /, b, f, n, r, t, u
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				// Valid escape, keep as-is
				result.WriteByte(s[i])
				result.WriteByte(s[i+1])
				i += 2
			default:
				// Invalid escape like \N - escape the backslash
				result.WriteString("\\\\")
				result.WriteByte(next)
				i += 2
			}
		} else {
			result.WriteByte(s[i])
			i++
		}
	}

	return result.String()
}

func extractQuoteList(text string) ([]Quote, error) {
	text = fixInvalidEscapes(text)

	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		if quotes, ok := tryExtractQuotes(raw); ok && len(quotes) > 0 {
			return quotes, nil
		}
	}
	return nil, fmt.Errorf("no valid quote JSON found in response")
}

func tryExtractQuotes(raw json.RawMessage) ([]Quote, bool) {
	var quotes []Quote
	if err := json.Unmarshal(
		raw,
		&quotes,
	); err == nil &&
		validateQuotes(quotes) {
		return quotes, true
	}

	wrapperKeys := []string{"quotes", "results", "data", "items"}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	for _, key := range wrapperKeys {
		if fieldRaw, exists := wrapper[key]; exists {
			var fieldQuotes []Quote
			if err := json.Unmarshal(
				fieldRaw,
				&fieldQuotes,
			); err == nil && validateQuotes(fieldQuotes) {
				return fieldQuotes, true
			}
		}
	}

	for _, fieldRaw := range wrapper {
		var fieldQuotes []Quote
		if err := json.Unmarshal(
			fieldRaw,
			&fieldQuotes,
		); err == nil && validateQuotes(fieldQuotes) {
			return fieldQuotes, true
		}
	}

	return nil, false
}

func validateQuotes(quotes []Quote) bool {
	for _, q := range quotes {
		if q.Text != "" {
			return true
		}
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
