package player

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quoteclip/internal/logging"
)

// MissingContentMarker prefixes sources whose media is known to be
// absent from storage. Attempts on such sources fail immediately
// without touching the shared element.
const MissingContentMarker = "missing://"

// MinSegment is the smallest playback window the stop-timer honors;
// shorter or inverted windows are widened to this.
const MinSegment = 100 * time.Millisecond

// Request describes one segment playback attempt.
type Request struct {
	Source string
	Kind   Kind
	Start  time.Duration
	End    time.Duration
}

// Callbacks receive attempt lifecycle notifications. All fields are
// optional. OnStart fires at most once, before any terminal callback.
// Exactly one of OnEnd/OnError fires per attempt, unless the attempt
// is stopped first, in which case nothing further fires.
type Callbacks struct {
	OnStart func()
	OnEnd   func()
	OnError func(error)
}

// Player schedules segment playback on one shared element per media
// kind. Elements are created lazily on first use and reused across
// attempts; starting a new attempt on a kind stops the previous one
// and takes the element over only once the previous attempt makes no
// further element calls.
type Player struct {
	mu       sync.Mutex
	factory  ElementFactory
	elements map[Kind]Element
	active   map[Kind]*Handle
	logger   *logging.Logger
}

// New creates a Player. A nil logger discards logs.
func New(factory ElementFactory, logger *logging.Logger) *Player {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Player{
		factory:  factory,
		elements: make(map[Kind]Element),
		active:   make(map[Kind]*Handle),
		logger:   logger,
	}
}

// Play starts a playback attempt for req and returns its handle. The
// context covers loading and starting only; once playing, the segment
// runs until its window elapses or the handle is stopped. Failures are
// delivered through cb.OnError, never returned.
func (p *Player) Play(ctx context.Context, req Request, cb Callbacks) *Handle {
	h := &Handle{
		id:       uuid.NewString(),
		player:   p,
		kind:     req.Kind,
		req:      req,
		cb:       cb,
		state:    StateIdle,
		done:     make(chan struct{}),
		runDone:  make(chan struct{}),
		released: make(chan struct{}),
	}

	if strings.HasPrefix(req.Source, MissingContentMarker) {
		go h.fail(&MediaError{Kind: ErrorMissing, Source: req.Source})
		return h
	}

	p.mu.Lock()
	prev := p.active[req.Kind]
	elem, err := p.elementLocked(req.Kind)
	if err == nil {
		p.active[req.Kind] = h
	}
	p.mu.Unlock()

	if err != nil {
		go h.fail(&MediaError{Kind: ErrorUnknown, Source: req.Source, Err: err})
		return h
	}
	if prev != nil {
		prev.Stop()
	}

	h.element = elem
	h.setState(StateLoading)
	go h.run(ctx, prev)
	return h
}

func (p *Player) elementLocked(kind Kind) (Element, error) {
	if elem, ok := p.elements[kind]; ok {
		return elem, nil
	}
	elem, err := p.factory(kind)
	if err != nil {
		return nil, fmt.Errorf("create %s element: %w", kind, err)
	}
	p.elements[kind] = elem
	return elem, nil
}

func (p *Player) clearActive(h *Handle) {
	p.mu.Lock()
	if p.active[h.kind] == h {
		delete(p.active, h.kind)
	}
	p.mu.Unlock()
}

// Handle is one in-flight playback attempt. All methods are safe for
// concurrent use.
type Handle struct {
	id      string
	player  *Player
	kind    Kind
	req     Request
	cb      Callbacks
	element Element

	mu        sync.Mutex
	state     State
	stopped   bool
	fired     bool
	timer     *time.Timer
	deadline  time.Time
	remaining time.Duration

	done chan struct{}

	// runDone closes when the run goroutine exits; released closes once
	// the attempt will make no further element calls. A successor on the
	// same kind waits for released before loading.
	runDone     chan struct{}
	released    chan struct{}
	releaseOnce sync.Once
}

// ID is the attempt's unique identifier, used in logs.
func (h *Handle) ID() string { return h.id }

// State reports the attempt's current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *Handle) canceled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

// release hands the shared element over to whichever attempt displaced
// this one.
func (h *Handle) release() {
	h.releaseOnce.Do(func() { close(h.released) })
}

func (h *Handle) run(ctx context.Context, prev *Handle) {
	playing := false
	defer func() {
		close(h.runDone)
		h.mu.Lock()
		owned := playing && !h.stopped && !h.fired
		h.mu.Unlock()
		if !owned {
			h.release()
		}
	}()

	// The displaced attempt may still be inside an element call; all of
	// its element calls must land before ours.
	if prev != nil {
		<-prev.released
	}

	if h.canceled() {
		return
	}
	if err := h.element.Load(ctx, h.req.Source); err != nil {
		h.fail(classify(err, h.req.Source))
		return
	}
	if h.canceled() {
		return
	}
	if err := h.element.Start(ctx, h.req.Start); err != nil {
		h.fail(classify(err, h.req.Source))
		return
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		_ = h.element.Stop()
		return
	}
	h.state = StatePlaying
	h.remaining = segmentLength(h.req)
	window := h.remaining
	onStart := h.cb.OnStart
	h.mu.Unlock()

	h.player.logger.Debugw("playback started",
		"attempt", h.id, "kind", h.kind.String(), "source", h.req.Source, "window", window)
	if onStart != nil {
		onStart()
	}

	// The stop-timer arms only once OnStart has returned. A stop or a
	// terminal that landed during the callback leaves it unarmed.
	h.mu.Lock()
	if h.stopped || h.fired {
		h.mu.Unlock()
		return
	}
	if h.timer == nil && h.state == StatePlaying {
		h.deadline = time.Now().Add(h.remaining)
		h.timer = time.AfterFunc(h.remaining, h.expire)
	}
	playing = true
	h.mu.Unlock()
}

// expire fires when the stop-timer elapses: the segment window is over.
func (h *Handle) expire() {
	h.mu.Lock()
	if h.stopped || h.fired {
		h.mu.Unlock()
		return
	}
	h.fired = true
	h.state = StateEnded
	onEnd := h.cb.OnEnd
	h.mu.Unlock()

	_ = h.element.Stop()
	h.player.clearActive(h)
	close(h.done)
	h.release()
	h.player.logger.Debugw("playback window elapsed", "attempt", h.id)
	if onEnd != nil {
		onEnd()
	}
}

// fail delivers the attempt's single terminal error. Later failures
// and failures after a stop are dropped.
func (h *Handle) fail(err error) {
	h.mu.Lock()
	if h.stopped || h.fired {
		h.mu.Unlock()
		return
	}
	h.fired = true
	h.state = StateErrored
	if h.timer != nil {
		h.timer.Stop()
	}
	onError := h.cb.OnError
	h.mu.Unlock()

	if h.element != nil {
		_ = h.element.Stop()
	}
	h.player.clearActive(h)
	close(h.done)
	h.release()
	h.player.logger.Debugw("playback failed", "attempt", h.id, "error", err)
	if onError != nil {
		onError(err)
	}
}

// Stop ends the attempt: the stop-timer is canceled, the element is
// halted, and no callback fires afterward, including errors caused by
// the interruption itself. Safe to call at any point in the attempt's
// life, any number of times.
func (h *Handle) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	already := h.fired
	h.fired = true
	if h.timer != nil {
		h.timer.Stop()
	}
	if h.state != StateErrored {
		h.state = StateEnded
	}
	h.mu.Unlock()

	if already {
		return
	}
	if h.element != nil {
		_ = h.element.Stop()
	}
	h.player.clearActive(h)
	close(h.done)
	select {
	case <-h.runDone:
		h.release()
	default:
		// The run goroutine is still using the element; it releases on
		// exit.
	}
}

// Pause suspends playback and freezes the stop-timer at the remaining
// window time.
func (h *Handle) Pause() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped || h.fired || h.state != StatePlaying {
		return fmt.Errorf("cannot pause: attempt is %s", h.state)
	}
	// A nil timer means OnStart has not returned yet; h.remaining still
	// holds the whole window.
	if h.timer != nil {
		h.timer.Stop()
		h.remaining = time.Until(h.deadline)
		if h.remaining < 0 {
			h.remaining = 0
		}
	}
	if err := h.element.Pause(); err != nil {
		if h.timer != nil {
			h.deadline = time.Now().Add(h.remaining)
			h.timer = time.AfterFunc(h.remaining, h.expire)
		}
		return err
	}
	h.state = StatePaused
	return nil
}

// Resume continues a paused attempt, re-arming the stop-timer with the
// remaining window time.
func (h *Handle) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped || h.fired || h.state != StatePaused {
		return fmt.Errorf("cannot resume: attempt is %s", h.state)
	}
	if err := h.element.Resume(); err != nil {
		return err
	}
	h.state = StatePlaying
	h.deadline = time.Now().Add(h.remaining)
	h.timer = time.AfterFunc(h.remaining, h.expire)
	return nil
}

// Wait blocks until the attempt reaches a terminal state or the
// context ends.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// segmentLength is the stop-timer duration: the window length, never
// below MinSegment.
func segmentLength(req Request) time.Duration {
	d := req.End - req.Start
	if d < MinSegment {
		d = MinSegment
	}
	return d
}
