package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Extractor using OpenAI Chat Completions
type OpenAIExtractor struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIExtractor(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIExtractor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}

	return &OpenAIExtractor{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (e *OpenAIExtractor) Extract(
	ctx context.Context,
	transcript string,
) ([]Quote, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}

	prompt := BuildPrompt(e.options, transcript)

	completion, err := e.client.Chat.Completions.New(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: e.model,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	return e.parseResponse(completion)
}

func (e *OpenAIExtractor) parseResponse(
	completion *openai.ChatCompletion,
) ([]Quote, error) {
	if completion == nil || len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	responseText := completion.Choices[0].Message.Content

	if responseText == "" {
		return nil, fmt.Errorf("no text in OpenAI response")
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

func (e *OpenAIExtractor) Close() error {
	return nil
}
