package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quoteclip/internal/fetch"
	"quoteclip/internal/playback"
	"quoteclip/internal/subtitle"
)

var alignCmd = &cobra.Command{
	Use:   "align [subtitle_source]",
	Short: "Locate a quote's time window in a subtitle track",
	Long: `Align a quote against a subtitle source and print the time window
where it is spoken.

The raw window carries the matched entries' own timestamps; the padded
window adds the guard interval and the sync offset, which is what play
and clip operate on.

Examples:
  quoteclip align movie.srt --quote "I'll be back"
  quoteclip align movie.srt -q "May the Force be with you" --json
  quoteclip align https://example.com/movie.srt -q "Here's Johnny" --offset -200ms`,
	Args: cobra.ExactArgs(1),
	RunE: runAlign,
}

func init() {
	rootCmd.AddCommand(alignCmd)

	alignCmd.Flags().
		StringP("quote", "q", "", "Quote to locate (required)")
	alignCmd.Flags().
		Duration("guard", 0, "Padding added around the matched window (default from config)")
	alignCmd.Flags().
		Duration("offset", 0, "Signed timing correction, e.g. -200ms (default from config)")
	alignCmd.Flags().
		Bool("json", false, "Print the result as JSON")

	_ = alignCmd.MarkFlagRequired("quote")
}

// alignReport mirrors the serve endpoint's response fields.
type alignReport struct {
	Matched       bool    `json:"matched"`
	Score         float64 `json:"score,omitempty"`
	StartMs       int64   `json:"startMs,omitempty"`
	EndMs         int64   `json:"endMs,omitempty"`
	PaddedStartMs int64   `json:"paddedStartMs,omitempty"`
	PaddedEndMs   int64   `json:"paddedEndMs,omitempty"`
}

func runAlign(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx := context.Background()

	quote, _ := cmd.Flags().GetString("quote")
	jsonOut, _ := cmd.Flags().GetBool("json")
	guard := cfg.Guard()
	if cmd.Flags().Changed("guard") {
		guard, _ = cmd.Flags().GetDuration("guard")
	}
	offset := cfg.Offset()
	if cmd.Flags().Changed("offset") {
		offset, _ = cmd.Flags().GetDuration("offset")
	}

	orch := playback.NewOrchestrator(nil, nil, fetch.New(logger), logger, guard)

	win, score, err := orch.Align(ctx, quote, source)
	if err != nil {
		if jsonOut && errors.Is(err, playback.ErrAlignmentFailed) {
			printJSON(alignReport{Matched: false})
		}
		return err
	}
	padded := orch.PadWindow(win, offset)

	if jsonOut {
		printJSON(alignReport{
			Matched:       true,
			Score:         score,
			StartMs:       win.Start.Milliseconds(),
			EndMs:         win.End.Milliseconds(),
			PaddedStartMs: padded.Start.Milliseconds(),
			PaddedEndMs:   padded.End.Milliseconds(),
		})
		return nil
	}

	fmt.Printf("Quote aligned successfully\n")
	fmt.Printf("  Score: %.2f\n", score)
	fmt.Printf("  Window: %s --> %s\n",
		subtitle.FormatTimestamp(win.Start), subtitle.FormatTimestamp(win.End))
	fmt.Printf("  Padded: %s --> %s (guard %s, offset %s)\n",
		subtitle.FormatTimestamp(padded.Start), subtitle.FormatTimestamp(padded.End),
		guard, offset)
	return nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(data))
}
