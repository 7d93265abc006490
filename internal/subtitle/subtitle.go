package subtitle

import (
	"time"
)

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// ordered entry sequence, preserving source order
type Track []Entry

// Overlapping returns the entries whose display time intersects the
// start..end window, in source order.
func (t Track) Overlapping(start, end time.Duration) Track {
	var out Track
	for _, entry := range t {
		if entry.EndTime > start && entry.StartTime < end {
			out = append(out, entry)
		}
	}
	return out
}

// Rebase shifts all entry times by -offset, clamping at zero. Used
// when exporting a clip so its subtitles start near the clip start.
func (t Track) Rebase(offset time.Duration) Track {
	out := make(Track, len(t))
	for i, entry := range t {
		entry.StartTime -= offset
		if entry.StartTime < 0 {
			entry.StartTime = 0
		}
		entry.EndTime -= offset
		if entry.EndTime < 0 {
			entry.EndTime = 0
		}
		out[i] = entry
	}
	return out
}
