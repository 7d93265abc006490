package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quoteclip/internal/fetch"
	"quoteclip/internal/media"
	"quoteclip/internal/playback"
	"quoteclip/internal/store"
	"quoteclip/internal/subtitle"
)

var clipCmd = &cobra.Command{
	Use:   "clip [media_file]",
	Short: "Cut quote segments out of a media file",
	Long: `Cut the segment where a quote is spoken into its own media file.

The quote is located in the subtitle track and the matched window,
padded by the guard interval and shifted by the sync offset, is cut
with ffmpeg. An explicit --start/--end window skips alignment. With
--quotes-file, every quote in the file is cut in parallel.

--subs-out writes each clip's subtitle entries alongside it, rebased
so they start at the beginning of the clip.

Examples:
  quoteclip clip movie.mp4 --quote "I'll be back"
  quoteclip clip movie.mp4 -q "I'll be back" -o terminator.mp4 --copy
  quoteclip clip movie.mp4 --start 00:12:03,500 --end 00:12:09,000
  quoteclip clip movie.mp4 --quotes-file best-of.txt --out-dir clips --subs-out`,
	Args: cobra.ExactArgs(1),
	RunE: runClip,
}

func init() {
	rootCmd.AddCommand(clipCmd)

	clipCmd.Flags().
		StringP("quote", "q", "", "Quote to locate and cut")
	clipCmd.Flags().
		StringP("subs", "s", "", "Subtitle source: file, URL, or inline text (default: sidecar file)")
	clipCmd.Flags().
		String("start", "", "Explicit window start (timestamp or duration); skips alignment")
	clipCmd.Flags().
		String("end", "", "Explicit window end (timestamp or duration); skips alignment")
	clipCmd.Flags().
		String("quotes-file", "", "Cut every quote listed in this file (one per line)")
	clipCmd.Flags().
		Duration("guard", 0, "Padding added around matched windows (default from config)")
	clipCmd.Flags().
		Duration("offset", 0, "Signed timing correction, e.g. -200ms (default from config)")
	clipCmd.Flags().
		Bool("copy", false, "Copy streams instead of re-encoding (fast, cuts on keyframes)")
	clipCmd.Flags().
		Int("concurrency", 4, "Number of parallel ffmpeg workers in batch mode")
	clipCmd.Flags().
		String("out-dir", "clips", "Directory for cut clips")
	clipCmd.Flags().
		Bool("subs-out", false, "Write each clip's rebased subtitles next to it")
	clipCmd.Flags().
		Bool("no-cache", false, "Bypass the resolved-window cache")
}

func runClip(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]

	quote, _ := cmd.Flags().GetString("quote")
	subsSource, _ := cmd.Flags().GetString("subs")
	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")
	quotesFile, _ := cmd.Flags().GetString("quotes-file")
	copyStreams, _ := cmd.Flags().GetBool("copy")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	outDir, _ := cmd.Flags().GetString("out-dir")
	subsOut, _ := cmd.Flags().GetBool("subs-out")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	outputPath, _ := cmd.Flags().GetString("output")
	guard := cfg.Guard()
	if cmd.Flags().Changed("guard") {
		guard, _ = cmd.Flags().GetDuration("guard")
	}
	offset := cfg.Offset()
	if cmd.Flags().Changed("offset") {
		offset, _ = cmd.Flags().GetDuration("offset")
	}

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("media file not found: %s", mediaPath)
	}
	if !media.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}
	if (startStr == "") != (endStr == "") {
		return fmt.Errorf("--start and --end must be given together")
	}

	explicit := startStr != ""
	modes := 0
	for _, set := range []bool{quote != "", quotesFile != "", explicit} {
		if set {
			modes++
		}
	}
	if modes != 1 {
		return fmt.Errorf("use exactly one of --quote, --quotes-file, or --start/--end")
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
	fetcher := fetch.New(logger)
	orch := playback.NewOrchestrator(nil, windows, fetcher, logger, guard)

	// quote modes and --subs-out both need the subtitle text; fetch it
	// once and hand it around as an inline source.
	var track subtitle.Track
	inlineSubs := ""
	if !explicit || subsOut {
		if subsSource == "" {
			subsSource = sidecarSubtitlePath(mediaPath)
		}
		if subsSource == "" {
			return fmt.Errorf("subtitle source is required: use --subs or place a .srt next to the media file")
		}
		text, err := fetcher.Text(ctx, subsSource)
		if err != nil {
			return fmt.Errorf("failed to read subtitles: %w", err)
		}
		track, err = subtitle.Parse(text)
		if err != nil {
			return err
		}
		inlineSubs = fetch.InlinePrefix + text
	}

	ext := filepath.Ext(mediaPath)
	opts := playback.Options{Offset: offset, SkipCache: noCache, MediaKey: mediaPath}

	var jobs []media.ClipJob
	switch {
	case explicit:
		win, err := parseWindow(startStr, endStr)
		if err != nil {
			return err
		}
		padded := orch.PadWindow(win, offset)
		jobs = append(jobs, media.ClipJob{
			Index:      1,
			Start:      padded.Start,
			End:        padded.End,
			OutputPath: filepath.Join(outDir, clipFileName(1, "", ext)),
		})

	case quote != "":
		win, err := orch.ResolveWindow(ctx, quote, mediaPath, inlineSubs, opts)
		if err != nil {
			return err
		}
		padded := orch.PadWindow(win, offset)
		jobs = append(jobs, media.ClipJob{
			Index:      1,
			Quote:      quote,
			Start:      padded.Start,
			End:        padded.End,
			OutputPath: filepath.Join(outDir, clipFileName(1, quote, ext)),
		})

	default:
		quotes, err := parseQuotesFile(quotesFile)
		if err != nil {
			return err
		}
		if len(quotes) == 0 {
			return fmt.Errorf("no quotes found in %s", quotesFile)
		}
		for i, q := range quotes {
			win, err := orch.ResolveWindow(ctx, q, mediaPath, inlineSubs, opts)
			if err != nil {
				logger.Warnw("Skipping quote",
					"quote", excerpt(q, 40),
					"error", err,
				)
				continue
			}
			padded := orch.PadWindow(win, offset)
			jobs = append(jobs, media.ClipJob{
				Index:      i + 1,
				Quote:      q,
				Start:      padded.Start,
				End:        padded.End,
				OutputPath: filepath.Join(outDir, clipFileName(i+1, q, ext)),
			})
		}
		if len(jobs) == 0 {
			return fmt.Errorf("none of the quotes could be located")
		}
	}

	if outputPath != "" {
		if len(jobs) > 1 {
			return fmt.Errorf("--output applies to single clips: use --out-dir in batch mode")
		}
		jobs[0].OutputPath = outputPath
	}

	// guard padding can push a window past the end of the file; clamp
	// so summaries and rebased subtitles report the real clip length.
	if mediaLen, err := media.Duration(mediaPath); err == nil {
		clamped := jobs[:0]
		for _, job := range jobs {
			if job.Start >= mediaLen {
				logger.Warnw("Skipping clip beyond end of media",
					"clip", job.Index,
					"start", subtitle.FormatTimestamp(job.Start),
					"media_length", mediaLen.Round(time.Millisecond),
				)
				continue
			}
			if job.End > mediaLen {
				job.End = mediaLen
			}
			clamped = append(clamped, job)
		}
		jobs = clamped
		if len(jobs) == 0 {
			return fmt.Errorf("no clip window falls inside the media")
		}
	} else {
		logger.Debugw("Could not probe media length", "error", err)
	}

	logger.Infow("Cutting clips",
		"input", mediaPath,
		"clips", len(jobs),
		"copy", copyStreams,
	)

	clips, err := media.ExtractClips(ctx, mediaPath, jobs, media.ClipOptions{Copy: copyStreams}, concurrency)
	if err != nil {
		return err
	}

	if subsOut {
		for _, clip := range clips {
			subsPath := strings.TrimSuffix(clip.Path, filepath.Ext(clip.Path)) + ".srt"
			entries := track.Overlapping(clip.Start, clip.End).Rebase(clip.Start)
			if err := subtitle.SaveSRT(subsPath, entries); err != nil {
				return fmt.Errorf("failed to write clip subtitles: %w", err)
			}
		}
	}

	if len(clips) == 1 {
		absOutput, _ := filepath.Abs(clips[0].Path)
		fmt.Printf("Clip extracted successfully: %s\n", absOutput)
		fmt.Printf("  Window: %s --> %s\n",
			subtitle.FormatTimestamp(clips[0].Start), subtitle.FormatTimestamp(clips[0].End))
		fmt.Printf("  Length: %s\n", (clips[0].End - clips[0].Start).Round(time.Millisecond))
		if subsOut {
			fmt.Printf("  Subtitles: %s\n",
				strings.TrimSuffix(clips[0].Path, filepath.Ext(clips[0].Path))+".srt")
		}
		return nil
	}

	rows := make([][]string, 0, len(clips))
	for _, clip := range clips {
		rows = append(rows, []string{
			strconv.Itoa(clip.Index),
			excerpt(clip.Quote, 40),
			subtitle.FormatTimestamp(clip.Start),
			subtitle.FormatTimestamp(clip.End),
			clip.Path,
		})
	}
	printTable(
		[]string{"#", "QUOTE", "START", "END", "FILE"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	)
	fmt.Printf("Extracted %d clips to %s\n", len(clips), outDir)
	return nil
}

// slugify turns a quote into a filesystem-friendly name fragment.
func slugify(s string) string {
	s = strings.ToLower(s)
	var sb strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				sb.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimRight(sb.String(), "-")
	if len(out) > 40 {
		out = strings.TrimRight(out[:40], "-")
	}
	return out
}

// clipFileName builds the "NN-slug.ext" name for a cut clip.
func clipFileName(index int, quote, ext string) string {
	slug := slugify(quote)
	if slug == "" {
		slug = "clip"
	}
	return fmt.Sprintf("%02d-%s%s", index, slug, ext)
}
