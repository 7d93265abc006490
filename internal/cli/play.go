package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quoteclip/internal/fetch"
	"quoteclip/internal/media"
	"quoteclip/internal/playback"
	"quoteclip/internal/player"
	"quoteclip/internal/store"
	"quoteclip/internal/subtitle"
)

var playCmd = &cobra.Command{
	Use:   "play [media_file]",
	Short: "Play the segment of a media file where a quote is spoken",
	Long: `Play exactly the segment of a media file where a quote is spoken.

The quote is located in the subtitle track, the matched window is padded
by the guard interval and shifted by the sync offset, and playback runs
through ffplay for just that window. Resolved windows are cached, so
playing the same quote again skips alignment.

An explicit --start/--end window skips alignment entirely and needs no
subtitles. Without --subs, a sidecar .srt or .vtt next to the media file
is used.

Examples:
  quoteclip play movie.mp4 --quote "I'll be back"
  quoteclip play movie.mp4 -q "I'll be back" --subs movie.en.srt
  quoteclip play movie.mp4 --start 00:12:03,500 --end 00:12:09,000
  quoteclip play soundtrack.mp3 -q "Here's Johnny" -s movie.srt --offset -150ms`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().
		StringP("quote", "q", "", "Quote to locate and play")
	playCmd.Flags().
		StringP("subs", "s", "", "Subtitle source: file, URL, or inline text (default: sidecar file)")
	playCmd.Flags().
		String("start", "", "Explicit window start (timestamp or duration); skips alignment")
	playCmd.Flags().
		String("end", "", "Explicit window end (timestamp or duration); skips alignment")
	playCmd.Flags().
		Duration("guard", 0, "Padding added around the matched window (default from config)")
	playCmd.Flags().
		Duration("offset", 0, "Signed timing correction, e.g. -200ms (default from config)")
	playCmd.Flags().
		Bool("video", false, "Force video playback for sources not recognized by extension")
	playCmd.Flags().
		Bool("no-cache", false, "Bypass the resolved-window cache")
}

func runPlay(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]

	quote, _ := cmd.Flags().GetString("quote")
	subsSource, _ := cmd.Flags().GetString("subs")
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")
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

	// local files must exist up front; URLs are left to the player
	if !strings.Contains(mediaPath, "://") {
		if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
			return fmt.Errorf("media file not found: %s", mediaPath)
		}
	}

	opts := playback.Options{Offset: offset, SkipCache: noCache, Kind: media.KindOf(mediaPath)}
	if forceVideo {
		opts.Kind = player.KindVideo
	}

	if (startStr == "") != (endStr == "") {
		return fmt.Errorf("--start and --end must be given together")
	}
	if startStr != "" {
		win, err := parseWindow(startStr, endStr)
		if err != nil {
			return err
		}
		opts.Window = &win
	} else {
		if quote == "" {
			return fmt.Errorf("a --quote or an explicit --start/--end window is required")
		}
		if subsSource == "" {
			subsSource = sidecarSubtitlePath(mediaPath)
		}
		if subsSource == "" {
			return fmt.Errorf("subtitle source is required: use --subs or place a .srt next to the media file")
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

	win, err := orch.ResolveWindow(ctx, quote, mediaPath, subsSource, opts)
	if err != nil {
		return err
	}
	opts.Window = &win
	padded := orch.PadWindow(win, offset)

	logger.Infow("Playing segment",
		"media", mediaPath,
		"start", subtitle.FormatTimestamp(padded.Start),
		"end", subtitle.FormatTimestamp(padded.End),
		"kind", opts.Kind.String(),
	)

	result := make(chan error, 1)
	handle, err := orch.PlayQuote(ctx, quote, mediaPath, subsSource, opts, player.Callbacks{
		OnEnd:   func() { result <- nil },
		OnError: func(err error) { result <- err },
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		if err != nil {
			return fmt.Errorf("playback failed: %w", err)
		}
	case <-ctx.Done():
		handle.Stop()
		fmt.Println("Playback interrupted")
		return nil
	}

	absMedia, _ := filepath.Abs(mediaPath)
	fmt.Printf("Segment played successfully: %s\n", absMedia)
	fmt.Printf("  Window: %s --> %s\n",
		subtitle.FormatTimestamp(padded.Start), subtitle.FormatTimestamp(padded.End))
	fmt.Printf("  Length: %s\n", (padded.End - padded.Start).Round(time.Millisecond))
	return nil
}

// parseTimePoint reads a point in time as either a subtitle timestamp
// ("00:01:05,500") or a Go duration ("1m5.5s").
func parseTimePoint(s string) (time.Duration, error) {
	if d, err := subtitle.ParseTimestamp(s); err == nil {
		return d, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: use 00:01:05,500 or 1m5.5s", s)
	}
	return d, nil
}

func parseWindow(startStr, endStr string) (playback.Window, error) {
	start, err := parseTimePoint(startStr)
	if err != nil {
		return playback.Window{}, err
	}
	end, err := parseTimePoint(endStr)
	if err != nil {
		return playback.Window{}, err
	}
	if start < 0 {
		return playback.Window{}, fmt.Errorf("window start must not be negative, got %v", start)
	}
	if end <= start {
		return playback.Window{}, fmt.Errorf("window must be positive, got %v..%v", start, end)
	}
	return playback.Window{Start: start, End: end}, nil
}

// sidecarSubtitlePath looks for a subtitle file next to the media file,
// trying the media's base name with .srt and .vtt extensions.
func sidecarSubtitlePath(mediaPath string) string {
	base := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	for _, ext := range []string{".srt", ".vtt"} {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
