package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"quoteclip/internal/fetch"
	"quoteclip/internal/media"
	"quoteclip/internal/playback"
	"quoteclip/internal/player"
	"quoteclip/internal/store"
)

var playlistCmd = &cobra.Command{
	Use:   "playlist [quotes_file]",
	Short: "Play a list of quotes back to back",
	Long: `Play every quote from a file in order, waiting for each segment to
finish before starting the next. A quote that cannot be located or
played is skipped and reported; the playlist always runs to the end.

The quotes file holds one quote per line. Blank lines and lines
starting with # are ignored.

Examples:
  quoteclip playlist best-of.txt --media movie.mp4
  quoteclip playlist best-of.txt -m movie.mp4 -s movie.en.srt --no-cache`,
	Args: cobra.ExactArgs(1),
	RunE: runPlaylist,
}

func init() {
	rootCmd.AddCommand(playlistCmd)

	playlistCmd.Flags().
		StringP("media", "m", "", "Media file the quotes are from (required)")
	playlistCmd.Flags().
		StringP("subs", "s", "", "Subtitle source: file, URL, or inline text (default: sidecar file)")
	playlistCmd.Flags().
		Duration("guard", 0, "Padding added around matched windows (default from config)")
	playlistCmd.Flags().
		Duration("offset", 0, "Signed timing correction, e.g. -200ms (default from config)")
	playlistCmd.Flags().
		Bool("video", false, "Force video playback for sources not recognized by extension")
	playlistCmd.Flags().
		Bool("no-cache", false, "Bypass the resolved-window cache")

	_ = playlistCmd.MarkFlagRequired("media")
}

func runPlaylist(cmd *cobra.Command, args []string) error {
	quotesPath := args[0]

	mediaPath, _ := cmd.Flags().GetString("media")
	subsSource, _ := cmd.Flags().GetString("subs")
	forceVideo, _ := cmd.Flags().GetBool("video")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	guard := cfg.Guard()
	if cmd.Flags().Changed("guard") {
		guard, _ = cmd.Flags().GetDuration("guard")
	}
	offset := cfg.Offset()
	if cmd.Flags().Changed("offset") {
		offset, _ = cmd.Flags().GetDuration("offset")
	}

	quotes, err := parseQuotesFile(quotesPath)
	if err != nil {
		return err
	}
	if len(quotes) == 0 {
		return fmt.Errorf("no quotes found in %s", quotesPath)
	}

	if !strings.Contains(mediaPath, "://") {
		if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
			return fmt.Errorf("media file not found: %s", mediaPath)
		}
	}
	if subsSource == "" {
		subsSource = sidecarSubtitlePath(mediaPath)
	}
	if subsSource == "" {
		return fmt.Errorf("subtitle source is required: use --subs or place a .srt next to the media file")
	}

	opts := playback.Options{Offset: offset, SkipCache: noCache, Kind: media.KindOf(mediaPath)}
	if forceVideo {
		opts.Kind = player.KindVideo
	}

	items := make([]playback.QueueItem, len(quotes))
	for i, quote := range quotes {
		items[i] = playback.QueueItem{
			Quote:          quote,
			MediaSource:    mediaPath,
			SubtitleSource: subsSource,
			Options:        opts,
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var windows playback.WindowStore
	if !noCache {
		cache, err := store.Open(cfg.Paths.CacheDB)
		if err != nil {
			logger.Warnw("Window cache unavailable, aligning every time",
				"path", cfg.Paths.CacheDB,
				"error", err,
			)
		} else {
			defer cache.Close()
			windows = cache
		}
	}

	p := player.New(func(kind player.Kind) (player.Element, error) {
		return player.NewProcessElement(kind, logger), nil
	}, logger)
	orch := playback.NewOrchestrator(p, windows, fetch.New(logger), logger, guard)

	logger.Infow("Playing playlist",
		"quotes", len(items),
		"media", mediaPath,
	)

	outcomes := orch.PlayQueue(ctx, items)

	played := 0
	rows := make([][]string, 0, len(outcomes))
	for i, outcome := range outcomes {
		result := "ok"
		if outcome.Err != nil {
			result = outcome.Err.Error()
		} else {
			played++
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			excerpt(outcome.Quote, 50),
			excerpt(result, 60),
		})
	}
	printTable(
		[]string{"#", "QUOTE", "RESULT"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)

	fmt.Printf("Played %d of %d quotes\n", played, len(outcomes))
	if played == 0 {
		return fmt.Errorf("no quotes could be played")
	}
	return nil
}

func parseQuotesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quotes file: %w", err)
	}
	defer f.Close()
	return parseQuotes(f)
}

// parseQuotes reads one quote per line, skipping blank lines and
// #-comments.
func parseQuotes(r io.Reader) ([]string, error) {
	var quotes []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		quotes = append(quotes, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read quotes file: %w", err)
	}
	return quotes, nil
}
