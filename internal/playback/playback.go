// Package playback wires subtitle fetching, parsing, quote alignment,
// window caching, and the segment player into one flow: give it a
// quote and a media source, it plays the matching moment.
package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quoteclip/internal/align"
	"quoteclip/internal/logging"
	"quoteclip/internal/player"
	"quoteclip/internal/subtitle"
)

// ErrAlignmentFailed indicates no subtitle span matched the quote.
var ErrAlignmentFailed = errors.New("quote alignment failed")

// Guard interval bounds. Subtitle timing trails or leads the actual
// dialogue slightly, so the aligned window is widened on both sides.
const (
	DefaultGuard = 400 * time.Millisecond
	MinGuard     = 300 * time.Millisecond
	MaxGuard     = 500 * time.Millisecond
)

// Window is a resolved playback time range within the media.
type Window struct {
	Start time.Duration
	End   time.Duration
}

// WindowStore caches resolved windows between runs. Implementations
// report ok=false when nothing is cached for the key.
type WindowStore interface {
	CachedWindow(ctx context.Context, mediaKey, quote string) (start, end time.Duration, ok bool, err error)
	SaveWindow(ctx context.Context, mediaKey, quote string, start, end time.Duration, score float64) error
}

// TextFetcher resolves a subtitle source to its contents.
type TextFetcher interface {
	Text(ctx context.Context, source string) (string, error)
}

// Options adjust how one quote is resolved and played.
type Options struct {
	// Window, when set, is played directly and alignment is skipped.
	Window *Window
	// Offset shifts the final window to correct subtitle drift. May be
	// negative.
	Offset time.Duration
	// Kind selects the shared element; audio by default.
	Kind player.Kind
	// MediaKey identifies the media in the window cache. Defaults to
	// the media source.
	MediaKey string
	// SkipCache bypasses the window cache for lookup and save.
	SkipCache bool
}

// Orchestrator resolves quotes to time windows and drives the player.
type Orchestrator struct {
	player  *player.Player
	store   WindowStore
	fetcher TextFetcher
	logger  *logging.Logger
	guard   time.Duration
}

// NewOrchestrator creates an Orchestrator. The store may be nil to
// disable caching, and the player may be nil when only window
// resolution is used. A guard of zero selects DefaultGuard; other
// values are clamped into [MinGuard, MaxGuard].
func NewOrchestrator(p *player.Player, store WindowStore, fetcher TextFetcher, logger *logging.Logger, guard time.Duration) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	switch {
	case guard <= 0:
		guard = DefaultGuard
	case guard < MinGuard:
		guard = MinGuard
	case guard > MaxGuard:
		guard = MaxGuard
	}
	return &Orchestrator{player: p, store: store, fetcher: fetcher, logger: logger, guard: guard}
}

// PlayQuote resolves the time window for quote within mediaSource and
// starts playback. Resolution order: explicit options window, cached
// window, fresh alignment. Resolution failures are returned
// synchronously; playback failures arrive through cb.OnError.
func (o *Orchestrator) PlayQuote(ctx context.Context, quote, mediaSource, subtitleSource string, opts Options, cb player.Callbacks) (*player.Handle, error) {
	win, err := o.ResolveWindow(ctx, quote, mediaSource, subtitleSource, opts)
	if err != nil {
		return nil, err
	}

	final := o.PadWindow(win, opts.Offset)
	o.logger.Debugw("playing quote segment",
		"quote", excerpt(quote, 40), "start", final.Start, "end", final.End)

	req := player.Request{Source: mediaSource, Kind: opts.Kind, Start: final.Start, End: final.End}
	return o.player.Play(ctx, req, cb), nil
}

// ResolveWindow resolves the raw playback window for quote without
// guard padding: explicit options window, then cached window, then
// fresh alignment (persisted best effort).
func (o *Orchestrator) ResolveWindow(ctx context.Context, quote, mediaSource, subtitleSource string, opts Options) (Window, error) {
	if opts.Window != nil {
		return *opts.Window, nil
	}

	key := opts.MediaKey
	if key == "" {
		key = mediaSource
	}

	if o.store != nil && !opts.SkipCache {
		start, end, ok, err := o.store.CachedWindow(ctx, key, quote)
		if err != nil {
			o.logger.Warnw("window cache lookup failed", "error", err)
		}
		if ok {
			o.logger.Debugw("window cache hit", "media", key, "start", start, "end", end)
			return Window{Start: start, End: end}, nil
		}
	}

	win, score, err := o.Align(ctx, quote, subtitleSource)
	if err != nil {
		return Window{}, err
	}

	if o.store != nil && !opts.SkipCache {
		if err := o.store.SaveWindow(ctx, key, quote, win.Start, win.End, score); err != nil {
			o.logger.Warnw("window cache save failed", "error", err)
		}
	}
	return win, nil
}

// Align fetches and parses subtitleSource, then locates quote in the
// track. The returned window carries raw entry times, without guard
// padding.
func (o *Orchestrator) Align(ctx context.Context, quote, subtitleSource string) (Window, float64, error) {
	text, err := o.fetcher.Text(ctx, subtitleSource)
	if err != nil {
		return Window{}, 0, fmt.Errorf("fetch subtitles: %w", err)
	}
	track, err := subtitle.Parse(text)
	if err != nil {
		return Window{}, 0, err
	}
	res := align.Locate(quote, track)
	if res.StartIndex < 0 {
		return Window{}, 0, fmt.Errorf("%w: could not locate %q in %d entries",
			ErrAlignmentFailed, excerpt(quote, 60), len(track))
	}
	o.logger.Debugw("aligned quote",
		"span", fmt.Sprintf("%d..%d", res.StartIndex, res.EndIndex), "score", res.Score)
	return Window{Start: track[res.StartIndex].StartTime, End: track[res.EndIndex].EndTime}, res.Score, nil
}

// PadWindow widens a raw aligned window by the guard interval, applies
// the drift offset, and clamps the start at zero.
func (o *Orchestrator) PadWindow(w Window, offset time.Duration) Window {
	start := w.Start - o.guard + offset
	end := w.End + o.guard + offset
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return Window{Start: start, End: end}
}

// QueueItem is one entry of a sequential playlist.
type QueueItem struct {
	Quote          string
	MediaSource    string
	SubtitleSource string
	Options        Options
}

// QueueOutcome reports how one playlist item finished.
type QueueOutcome struct {
	Quote string
	Err   error
}

// PlayQueue plays items strictly in order, waiting for each segment to
// finish before starting the next. A failed item is logged and
// skipped; the queue always advances.
func (o *Orchestrator) PlayQueue(ctx context.Context, items []QueueItem) []QueueOutcome {
	outcomes := make([]QueueOutcome, 0, len(items))
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, QueueOutcome{Quote: item.Quote, Err: err})
			continue
		}
		err := o.playItem(ctx, item)
		if err != nil {
			o.logger.Warnw("queue item failed, continuing",
				"quote", excerpt(item.Quote, 40), "error", err)
		}
		outcomes = append(outcomes, QueueOutcome{Quote: item.Quote, Err: err})
	}
	return outcomes
}

func (o *Orchestrator) playItem(ctx context.Context, item QueueItem) error {
	result := make(chan error, 1)
	handle, err := o.PlayQuote(ctx, item.Quote, item.MediaSource, item.SubtitleSource, item.Options, player.Callbacks{
		OnEnd:   func() { result <- nil },
		OnError: func(err error) { result <- err },
	})
	if err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		handle.Stop()
		return ctx.Err()
	}
}

func excerpt(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
