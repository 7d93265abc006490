package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Extractor using Anthropic Claude
type AnthropicExtractor struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicExtractor(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicExtractor{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (e *AnthropicExtractor) Extract(
	ctx context.Context,
	transcript string,
) ([]Quote, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	prompt := BuildPrompt(e.options, transcript)

	message, err := e.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:     e.model,
			MaxTokens: 4096,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(
					anthropic.NewTextBlock(prompt),
				),
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	return e.parseResponse(message)
}

func (e *AnthropicExtractor) parseResponse(
	message *anthropic.Message,
) ([]Quote, error) {
	if message == nil || len(message.Content) == 0 {
		return nil, fmt.Errorf("empty response from Anthropic")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	if responseText == "" {
		return nil, fmt.Errorf("no text in Anthropic response")
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

func (e *AnthropicExtractor) Close() error {
	return nil
}
