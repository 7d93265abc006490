package player

import (
	"context"
	"time"
)

// Element is the minimal control surface over an underlying media
// backend. The Player creates one element per Kind, lazily, and reuses
// it across attempts; the Player is its only mutator.
type Element interface {
	// Load prepares source for playback, surfacing resolution failures
	// before anything starts.
	Load(ctx context.Context, source string) error
	// Start begins playback at offset into the source.
	Start(ctx context.Context, offset time.Duration) error
	// Pause suspends playback; Resume continues it.
	Pause() error
	Resume() error
	// Stop halts playback and detaches the source. Must be safe to
	// call when nothing is playing.
	Stop() error
}

// ElementFactory builds the shared element for a kind on first use.
type ElementFactory func(Kind) (Element, error)
