package subtitle

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrBadTimestamp indicates a timestamp that does not match HH:MM:SS,mmm.
var ErrBadTimestamp = errors.New("malformed subtitle timestamp")

// timestampRe matches one SubRip timestamp. WebVTT-style cues separate
// milliseconds with '.', so both separators are accepted.
var timestampRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})[,.](\d{3})$`)

// ParseTimestamp converts "HH:MM:SS,mmm" (or the '.' variant) to a
// duration using exact millisecond arithmetic.
func ParseTimestamp(s string) (time.Duration, error) {
	m := timestampRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadTimestamp, s)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	millis, _ := strconv.Atoi(m[4])
	total := int64(hours)*3600000 + int64(minutes)*60000 + int64(seconds)*1000 + int64(millis)
	return time.Duration(total) * time.Millisecond, nil
}

// FormatTimestamp renders a duration as an SRT timestamp. Values below
// 100 hours round-trip exactly through ParseTimestamp.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3600000
	minutes := (ms % 3600000) / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
