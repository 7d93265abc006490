package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quoteclip/internal/extract"
	"quoteclip/internal/fetch"
	"quoteclip/internal/subtitle"
)

var extractCmd = &cobra.Command{
	Use:   "extract [transcript_source]",
	Short: "Extract notable quotes from a transcript using AI",
	Long: `Extract the most memorable quotes from a subtitle track or plain
script using an AI provider.

Subtitle sources are reduced to their dialogue lines before being sent
to the model; plain text passes through as is. The model is instructed
to copy quotes verbatim, so the results can be fed straight back into
align, play, or clip.

Examples:
  quoteclip extract movie.srt
  quoteclip extract movie.srt --max-quotes 5 --json
  quoteclip extract script.txt --provider anthropic -k YOUR_KEY
  quoteclip extract movie.srt --prompt "prefer one-liners"`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY env var)")
	extractCmd.Flags().
		String("provider", "", "Extraction provider: gemini, openai, anthropic (default from config)")
	extractCmd.Flags().
		String("model", "", "Model to use (provider-specific default)")
	extractCmd.Flags().
		IntP("max-quotes", "n", 0, "Number of quotes to request (default from config)")
	extractCmd.Flags().
		String("prompt", "", "Additional instructions for the model")
	extractCmd.Flags().
		Bool("json", false, "Print quotes as JSON")
}

func runExtract(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx := context.Background()

	apiKey, _ := cmd.Flags().GetString("api-key")
	providerStr, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	maxQuotes, _ := cmd.Flags().GetInt("max-quotes")
	prompt, _ := cmd.Flags().GetString("prompt")
	jsonOut, _ := cmd.Flags().GetBool("json")

	if providerStr == "" {
		providerStr = cfg.Extract.Provider
	}
	if model == "" {
		model = cfg.Extract.Model
	}
	if maxQuotes <= 0 {
		maxQuotes = cfg.Extract.MaxQuotes
	}

	provider := extract.Provider(strings.ToLower(providerStr))

	if apiKey == "" {
		apiKey = os.Getenv(providerEnvVar(provider))
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			providerEnvVar(provider),
		)
	}

	fetcher := fetch.New(logger)
	text, err := fetcher.Text(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	transcript, err := transcriptFor(text)
	if err != nil {
		return err
	}

	opts := extract.Options{
		Model:     model,
		MaxQuotes: maxQuotes,
		Prompt:    prompt,
	}
	extractor, err := extract.Factory(ctx, provider, apiKey, opts)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}

	logger.Infow("Extracting quotes",
		"source", source,
		"provider", string(provider),
		"max_quotes", maxQuotes,
	)

	quotes, err := extractor.Extract(ctx, transcript)
	if err != nil {
		return err
	}

	if jsonOut {
		printJSON(quotes)
		return nil
	}

	rows := make([][]string, 0, len(quotes))
	for _, q := range quotes {
		rows = append(rows, []string{
			strconv.Itoa(q.Index),
			excerpt(q.Text, 70),
			q.Speaker,
		})
	}
	printTable(
		[]string{"#", "QUOTE", "SPEAKER"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)

	fmt.Printf("Extracted %d quotes\n", len(quotes))
	return nil
}

// providerEnvVar names the environment variable holding the API key
// for a provider.
func providerEnvVar(p extract.Provider) string {
	switch p {
	case extract.ProviderGemini:
		return "GEMINI_API_KEY"
	case extract.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case extract.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "API_KEY"
	}
}

// transcriptFor reduces subtitle text to its dialogue lines so the
// model never sees indexes or timestamps. Plain scripts pass through
// verbatim; binary data is rejected.
func transcriptFor(text string) (string, error) {
	track, err := subtitle.Parse(text)
	if err != nil {
		if errors.Is(err, subtitle.ErrWrongFileType) || errors.Is(err, subtitle.ErrEmptyInput) {
			return "", err
		}
		return text, nil
	}
	lines := make([]string, len(track))
	for i, entry := range track {
		lines[i] = entry.Text
	}
	return strings.Join(lines, "\n"), nil
}
