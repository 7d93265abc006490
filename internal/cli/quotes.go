package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quoteclip/internal/store"
	"quoteclip/internal/subtitle"
)

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "List and manage cached quote windows",
	Long: `List the resolved quote windows in the cache database.

Every successful alignment is cached keyed by media and normalized
quote text, so repeat playback of the same quote skips alignment.
Windows are stored unpadded; guard and offset apply at playback time.

Examples:
  quoteclip quotes
  quoteclip quotes --media movie.mp4
  quoteclip quotes --media movie.mp4 --forget "I'll be back"
  quoteclip quotes --clear`,
	Args: cobra.NoArgs,
	RunE: runQuotes,
}

func init() {
	rootCmd.AddCommand(quotesCmd)

	quotesCmd.Flags().
		StringP("media", "m", "", "Only windows for this media key")
	quotesCmd.Flags().
		String("forget", "", "Delete the cached window for this quote (requires --media)")
	quotesCmd.Flags().
		Bool("clear", false, "Delete every cached window")
}

func runQuotes(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	mediaKey, _ := cmd.Flags().GetString("media")
	forget, _ := cmd.Flags().GetString("forget")
	clear, _ := cmd.Flags().GetBool("clear")

	cache, err := store.Open(cfg.Paths.CacheDB)
	if err != nil {
		return fmt.Errorf("failed to open window cache: %w", err)
	}
	defer cache.Close()

	if clear {
		n, err := cache.Clear(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Printf("Cleared %d cached windows\n", n)
		return nil
	}

	if forget != "" {
		if mediaKey == "" {
			return fmt.Errorf("--forget requires --media")
		}
		removed, err := cache.Delete(ctx, mediaKey, forget)
		if err != nil {
			return fmt.Errorf("failed to delete window: %w", err)
		}
		if !removed {
			return fmt.Errorf("no cached window for %q", forget)
		}
		fmt.Printf("Forgot cached window for %q\n", forget)
		return nil
	}

	windows, err := cache.List(ctx, mediaKey)
	if err != nil {
		return fmt.Errorf("failed to list windows: %w", err)
	}

	rows := make([][]string, 0, len(windows))
	for _, w := range windows {
		rows = append(rows, []string{
			excerpt(w.MediaKey, 40),
			excerpt(w.Quote, 50),
			subtitle.FormatTimestamp(w.Start),
			subtitle.FormatTimestamp(w.End),
			fmt.Sprintf("%.2f", w.Score),
		})
	}
	printTable(
		[]string{"MEDIA", "QUOTE", "START", "END", "SCORE"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	)

	fmt.Printf("%d cached windows (%s)\n", len(windows), cache.Path())
	return nil
}
