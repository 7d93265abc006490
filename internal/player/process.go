package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	ffmpegbin "quoteclip/internal/ffmpeg"
	"quoteclip/internal/logging"
)

var _ Element = (*ProcessElement)(nil)

// ProcessElement plays media through a detached ffplay process. Pause
// and resume are delivered as process suspend/continue signals, so
// they are unavailable on Windows.
type ProcessElement struct {
	kind   Kind
	logger *logging.Logger

	mu     sync.Mutex
	source string
	cmd    *exec.Cmd
}

// NewProcessElement creates the ffplay-backed element for kind.
func NewProcessElement(kind Kind, logger *logging.Logger) *ProcessElement {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ProcessElement{kind: kind, logger: logger}
}

// Load verifies local sources exist so missing files surface before a
// player process starts. Remote sources are left to ffplay itself.
func (e *ProcessElement) Load(ctx context.Context, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.Contains(source, "://") {
		if _, err := os.Stat(source); err != nil {
			return fmt.Errorf("stat media: %w", err)
		}
	}
	e.mu.Lock()
	e.source = source
	e.mu.Unlock()
	return nil
}

// Start launches ffplay at offset into the loaded source. Any process
// left over from a previous attempt is killed first.
func (e *ProcessElement) Start(ctx context.Context, offset time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ffplay, err := ffmpegbin.FFplayPath()
	if err != nil {
		return err
	}

	e.mu.Lock()
	source := e.source
	prev := e.cmd
	e.cmd = nil
	e.mu.Unlock()
	if source == "" {
		return errors.New("no source loaded")
	}
	if prev != nil && prev.Process != nil {
		_ = prev.Process.Kill()
	}

	args := []string{"-loglevel", "error", "-autoexit"}
	if offset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", offset.Seconds()))
	}
	if e.kind == KindAudio {
		args = append(args, "-nodisp")
	}
	args = append(args, source)

	cmd := exec.Command(ffplay, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffplay: %w", err)
	}
	// reap so killed processes do not linger as zombies
	go func() { _ = cmd.Wait() }()

	e.mu.Lock()
	e.cmd = cmd
	e.mu.Unlock()
	e.logger.Debugw("ffplay started",
		"pid", cmd.Process.Pid, "offset", offset, "source", source)
	return nil
}

func (e *ProcessElement) Pause() error {
	cmd := e.current()
	if cmd == nil {
		return errors.New("nothing playing")
	}
	return suspendProcess(cmd.Process)
}

func (e *ProcessElement) Resume() error {
	cmd := e.current()
	if cmd == nil {
		return errors.New("nothing playing")
	}
	return continueProcess(cmd.Process)
}

// Stop kills the player process and detaches the source.
func (e *ProcessElement) Stop() error {
	e.mu.Lock()
	cmd := e.cmd
	e.cmd = nil
	e.source = ""
	e.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop ffplay: %w", err)
	}
	return nil
}

func (e *ProcessElement) current() *exec.Cmd {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cmd == nil || e.cmd.Process == nil {
		return nil
	}
	return e.cmd
}
