package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"quoteclip/internal/fetch"
	"quoteclip/internal/subtitle"
)

var parseCmd = &cobra.Command{
	Use:   "parse [subtitle_source]",
	Short: "Parse a subtitle track and list its entries",
	Long: `Parse a subtitle source and print the timed entries it contains.

The source can be a local file, an http(s) URL, or inline text prefixed
with "inline:". Parsing tolerates missing blank lines between entries
and strips markup tags from the text.

Examples:
  quoteclip parse movie.srt
  quoteclip parse https://example.com/movie.srt
  quoteclip parse movie.srt --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().
		IntP("limit", "n", 0, "Maximum number of entries to print (0 = all)")
}

func runParse(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx := context.Background()

	limit, _ := cmd.Flags().GetInt("limit")

	fetcher := fetch.New(logger)
	text, err := fetcher.Text(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to read subtitles: %w", err)
	}

	track, err := subtitle.Parse(text)
	if err != nil {
		return err
	}

	shown := track
	if limit > 0 && limit < len(track) {
		shown = track[:limit]
	}

	rows := make([][]string, 0, len(shown))
	for _, entry := range shown {
		rows = append(rows, []string{
			strconv.Itoa(entry.Index),
			subtitle.FormatTimestamp(entry.StartTime),
			subtitle.FormatTimestamp(entry.EndTime),
			excerpt(entry.Text, 60),
		})
	}
	printTable(
		[]string{"#", "START", "END", "TEXT"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	)

	if len(shown) < len(track) {
		fmt.Printf("Parsed %d entries (showing first %d)\n", len(track), len(shown))
	} else {
		fmt.Printf("Parsed %d entries\n", len(track))
	}
	return nil
}
