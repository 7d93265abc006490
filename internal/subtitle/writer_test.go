package subtitle

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteSRTRoundTrip(t *testing.T) {
	track := Track{
		{Index: 1, StartTime: 1500 * time.Millisecond, EndTime: 3 * time.Second, Text: "First cue"},
		{Index: 2, StartTime: 4 * time.Second, EndTime: 6200 * time.Millisecond, Text: "Second cue"},
	}

	var buf bytes.Buffer
	if err := WriteSRT(&buf, track); err != nil {
		t.Fatalf("WriteSRT failed: %v", err)
	}

	parsed, err := Parse(buf.String())
	if err != nil {
		t.Fatalf("Parse of written output failed: %v", err)
	}
	if len(parsed) != len(track) {
		t.Fatalf("got %d entries, want %d", len(parsed), len(track))
	}
	for i := range track {
		if parsed[i].StartTime != track[i].StartTime || parsed[i].EndTime != track[i].EndTime {
			t.Errorf("entry %d times = %v..%v, want %v..%v",
				i, parsed[i].StartTime, parsed[i].EndTime, track[i].StartTime, track[i].EndTime)
		}
		if parsed[i].Text != track[i].Text {
			t.Errorf("entry %d text = %q, want %q", i, parsed[i].Text, track[i].Text)
		}
	}
}

func TestSaveSRTCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.srt")
	track := Track{{StartTime: time.Second, EndTime: 2 * time.Second, Text: "Hello"}}

	if err := SaveSRT(path, track); err != nil {
		t.Fatalf("SaveSRT failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "1\n00:00:01,000 --> 00:00:02,000\nHello\n") {
		t.Errorf("unexpected file content: %q", string(data))
	}
}

func TestOverlapping(t *testing.T) {
	track := Track{
		{StartTime: 1 * time.Second, EndTime: 3 * time.Second, Text: "before"},
		{StartTime: 4 * time.Second, EndTime: 6 * time.Second, Text: "straddles start"},
		{StartTime: 7 * time.Second, EndTime: 8 * time.Second, Text: "inside"},
		{StartTime: 9 * time.Second, EndTime: 12 * time.Second, Text: "straddles end"},
		{StartTime: 13 * time.Second, EndTime: 14 * time.Second, Text: "after"},
	}

	out := track.Overlapping(5*time.Second, 10*time.Second)

	if len(out) != 3 {
		t.Fatalf("got %d entries, want 3", len(out))
	}
	want := []string{"straddles start", "inside", "straddles end"}
	for i, text := range want {
		if out[i].Text != text {
			t.Errorf("entry %d = %q, want %q", i, out[i].Text, text)
		}
	}

	if got := track.Overlapping(20*time.Second, 30*time.Second); len(got) != 0 {
		t.Errorf("window past the track should match nothing, got %d entries", len(got))
	}
}

func TestRebase(t *testing.T) {
	track := Track{
		{StartTime: 5 * time.Second, EndTime: 7 * time.Second, Text: "first"},
		{StartTime: 8 * time.Second, EndTime: 9 * time.Second, Text: "second"},
	}

	out := track.Rebase(6 * time.Second)

	if out[0].StartTime != 0 {
		t.Errorf("start before the offset should clamp to zero, got %v", out[0].StartTime)
	}
	if out[0].EndTime != time.Second {
		t.Errorf("first end = %v, want 1s", out[0].EndTime)
	}
	if out[1].StartTime != 2*time.Second || out[1].EndTime != 3*time.Second {
		t.Errorf("second times = %v..%v, want 2s..3s", out[1].StartTime, out[1].EndTime)
	}
	if track[0].StartTime != 5*time.Second {
		t.Error("Rebase must not mutate the original track")
	}
}
