package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseTimePoint(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"00:01:05,500", 65500 * time.Millisecond, false},
		{"00:01:05.500", 65500 * time.Millisecond, false},
		{"01:00:00,000", time.Hour, false},
		{"1m5.5s", 65500 * time.Millisecond, false},
		{"90s", 90 * time.Second, false},
		{"150ms", 150 * time.Millisecond, false},
		{"0s", 0, false},
		{"", 0, true},
		{"abc", 0, true},
		{"90", 0, true},
		{"1:05", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseTimePoint(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseTimePoint(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseTimePoint(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseTimePoint(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	win, err := parseWindow("00:00:05,000", "10s")
	if err != nil {
		t.Fatalf("parseWindow failed: %v", err)
	}
	if win.Start != 5*time.Second || win.End != 10*time.Second {
		t.Errorf("got %v..%v, want 5s..10s", win.Start, win.End)
	}

	if _, err := parseWindow("10s", "5s"); err == nil {
		t.Error("expected error for inverted window")
	}
	if _, err := parseWindow("5s", "5s"); err == nil {
		t.Error("expected error for empty window")
	}
	if _, err := parseWindow("-1s", "5s"); err == nil {
		t.Error("expected error for negative start")
	}
	if _, err := parseWindow("nope", "5s"); err == nil {
		t.Error("expected error for malformed start")
	}
}

func TestSidecarSubtitlePath(t *testing.T) {
	dir := t.TempDir()
	mediaPath := filepath.Join(dir, "movie.mp4")

	if got := sidecarSubtitlePath(mediaPath); got != "" {
		t.Errorf("expected no sidecar, got %q", got)
	}

	vttPath := filepath.Join(dir, "movie.vtt")
	if err := os.WriteFile(vttPath, []byte("WEBVTT\n"), 0644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	if got := sidecarSubtitlePath(mediaPath); got != vttPath {
		t.Errorf("got %q, want %q", got, vttPath)
	}

	srtPath := filepath.Join(dir, "movie.srt")
	if err := os.WriteFile(srtPath, []byte("1\n"), 0644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
	if got := sidecarSubtitlePath(mediaPath); got != srtPath {
		t.Errorf("got %q, want .srt preferred over .vtt", got)
	}
}
