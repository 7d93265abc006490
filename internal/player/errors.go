package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a playback failure so callers can present an
// actionable message instead of a raw element error.
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorNetwork
	ErrorDecode
	ErrorFormat
	ErrorAborted
	ErrorMissing
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNetwork:
		return "network"
	case ErrorDecode:
		return "decode"
	case ErrorFormat:
		return "format"
	case ErrorAborted:
		return "aborted"
	case ErrorMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// MediaError describes a playback failure for one source.
type MediaError struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *MediaError) Error() string {
	switch e.Kind {
	case ErrorNetwork:
		return fmt.Sprintf("could not load %s: check that the address is reachable", e.Source)
	case ErrorDecode:
		return fmt.Sprintf("could not decode %s: the file may be corrupt", e.Source)
	case ErrorFormat:
		return fmt.Sprintf("unsupported media format: %s", e.Source)
	case ErrorAborted:
		return fmt.Sprintf("loading of %s was aborted", e.Source)
	case ErrorMissing:
		return fmt.Sprintf("media content for %s is missing", e.Source)
	default:
		if e.Err != nil {
			return fmt.Sprintf("playback of %s failed: %v", e.Source, e.Err)
		}
		return fmt.Sprintf("playback of %s failed", e.Source)
	}
}

func (e *MediaError) Unwrap() error { return e.Err }

// classify maps an element error onto an ErrorKind by inspecting the
// error chain and message. Element backends report failures as plain
// errors, so message matching is the common denominator.
func classify(err error, source string) *MediaError {
	kind := ErrorUnknown
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.Canceled):
		kind = ErrorAborted
	case strings.Contains(msg, "no such file"),
		strings.Contains(msg, "connection"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "unreachable"),
		strings.Contains(msg, "404"):
		kind = ErrorNetwork
	case strings.Contains(msg, "invalid data"),
		strings.Contains(msg, "decode"),
		strings.Contains(msg, "corrupt"):
		kind = ErrorDecode
	case strings.Contains(msg, "unknown format"),
		strings.Contains(msg, "invalid argument"),
		strings.Contains(msg, "unsupported"):
		kind = ErrorFormat
	}
	return &MediaError{Kind: kind, Source: source, Err: err}
}
