// Package extract pulls memorable quotes out of a subtitle transcript
// using an LLM provider.
package extract

import (
	"context"
	"fmt"
	"strings"
)

// single extracted quote
type Quote struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Speaker string `json:"speaker,omitempty"`
}

// interface for quote extraction
type Extractor interface {
	Extract(ctx context.Context, transcript string) ([]Quote, error)
}

// extraction service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const DefaultMaxQuotes = 10

type Options struct {
	Model     string
	MaxQuotes int // quotes to request (default 10)
	Prompt    string
}

func (o Options) maxQuotes() int {
	if o.MaxQuotes > 0 {
		return o.MaxQuotes
	}
	return DefaultMaxQuotes
}

// creates Extractor based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Extractor, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiExtractor(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAIExtractor(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicExtractor(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported extraction provider: %s", provider)
	}
}

// BuildPrompt creates the quote extraction prompt for LLM providers.
// Quotes must come back verbatim so the aligner can locate them again.
func BuildPrompt(opts Options, transcript string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(
		"Find the %d most memorable, quotable lines in the following subtitle transcript.\n\n",
		opts.maxQuotes(),
	))

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString(
		"1. Copy each quote EXACTLY as it appears in the transcript, word for word.\n",
	)
	sb.WriteString(
		"2. A quote may span consecutive lines, but never merge lines from different scenes.\n",
	)
	sb.WriteString("3. Return ONLY a JSON array of objects.\n")
	sb.WriteString(
		"4. Each object must have 'index' and 'text' fields; add 'speaker' when the transcript names one.\n",
	)
	sb.WriteString("5. Number 'index' from 1 in order of appearance.\n")
	sb.WriteString("6. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		sb.WriteString(
			fmt.Sprintf("Additional instructions: %s\n\n", opts.Prompt),
		)
	}

	sb.WriteString("Transcript:\n")
	sb.WriteString(transcript)
	sb.WriteString("\n\nOutput the JSON array only:")

	return sb.String()
}
