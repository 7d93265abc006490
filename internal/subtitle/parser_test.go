package subtitle

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseTwoEntries(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:03,000\nHello there.\n\n2\n00:00:04,500 --> 00:00:06,200\nGeneral Kenobi!"

	track, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(track) != 2 {
		t.Fatalf("got %d entries, want 2", len(track))
	}

	first := track[0]
	if first.Index != 1 {
		t.Errorf("first index = %d, want 1", first.Index)
	}
	if first.StartTime != 1*time.Second || first.EndTime != 3*time.Second {
		t.Errorf("first times = %v..%v, want 1s..3s", first.StartTime, first.EndTime)
	}
	if first.Text != "Hello there." {
		t.Errorf("first text = %q, want %q", first.Text, "Hello there.")
	}

	second := track[1]
	if second.StartTime != 4500*time.Millisecond || second.EndTime != 6200*time.Millisecond {
		t.Errorf("second times = %v..%v, want 4.5s..6.2s", second.StartTime, second.EndTime)
	}
	if second.Text != "General Kenobi!" {
		t.Errorf("second text = %q, want %q", second.Text, "General Kenobi!")
	}
}

func TestParseCRLFAndBOM(t *testing.T) {
	input := "\ufeff1\r\n00:00:01,000 --> 00:00:02,000\r\nFirst line\r\n\r\n\ufeff2\r\n00:00:03,000 --> 00:00:04,000\r\nSecond line\r\n"

	track, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(track) != 2 {
		t.Fatalf("got %d entries, want 2", len(track))
	}
	if track[0].Text != "First line" || track[1].Text != "Second line" {
		t.Errorf("texts = %q, %q", track[0].Text, track[1].Text)
	}
}

func TestParsePeriodSeparator(t *testing.T) {
	input := "1\n00:00:01.500 --> 00:00:02.750\nCue text\n"

	track, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if track[0].StartTime != 1500*time.Millisecond || track[0].EndTime != 2750*time.Millisecond {
		t.Errorf("times = %v..%v, want 1.5s..2.75s", track[0].StartTime, track[0].EndTime)
	}
}

func TestParseJoinsMultiLineText(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:02,000\nfirst line\nsecond line\n"

	track, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if track[0].Text != "first line second line" {
		t.Errorf("text = %q, want joined lines", track[0].Text)
	}
}

func TestParseStripsMarkup(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:02,000\n<i>Styled</i> {\\an8}text\n"

	track, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if track[0].Text != "Styled text" {
		t.Errorf("text = %q, want %q", track[0].Text, "Styled text")
	}
}

func TestParseMissingBlankLines(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:02,000\nFirst\n2\n00:00:03,000 --> 00:00:04,000\nSecond\n3\n00:00:05,000 --> 00:00:06,000\nThird\n"

	track, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(track) != 3 {
		t.Fatalf("got %d entries, want 3", len(track))
	}
	want := []string{"First", "Second", "Third"}
	for i, entry := range track {
		if entry.Text != want[i] {
			t.Errorf("entry %d text = %q, want %q", i, entry.Text, want[i])
		}
	}
}

func TestParseTimingLinesWithoutIndexes(t *testing.T) {
	input := "WEBVTT\n00:00:01.000 --> 00:00:02.000\nFirst cue\n00:00:03.000 --> 00:00:04.000\nSecond cue\n"

	track, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(track) != 2 {
		t.Fatalf("got %d entries, want 2", len(track))
	}
	if track[0].Text != "First cue" || track[1].Text != "Second cue" {
		t.Errorf("texts = %q, %q", track[0].Text, track[1].Text)
	}
	if track[0].Index != 1 || track[1].Index != 2 {
		t.Errorf("indices = %d, %d, want ordinals 1, 2", track[0].Index, track[1].Index)
	}
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	input := "1\n00:00:01,000 --> 00:00:02,000\nGood one\n\nnot a cue at all\njust text\n\n3\n00:00:05,000 --> 00:00:06,000\nGood two\n"

	track, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(track) != 2 {
		t.Fatalf("got %d entries, want 2", len(track))
	}
	if track[0].Text != "Good one" || track[1].Text != "Good two" {
		t.Errorf("texts = %q, %q", track[0].Text, track[1].Text)
	}
	if track[0].Index != 1 || track[1].Index != 3 {
		t.Errorf("indices = %d, %d, want source numbering 1, 3", track[0].Index, track[1].Index)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t\n  "} {
		_, err := Parse(input)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("Parse(%q) = %v, want ErrEmptyInput", input, err)
		}
	}
}

func TestParseBinarySignature(t *testing.T) {
	input := "ID3\x04\x00\x00\x00\x00\x00\x00not really subtitles"

	_, err := Parse(input)
	if !errors.Is(err, ErrWrongFileType) {
		t.Fatalf("expected ErrWrongFileType, got %v", err)
	}
	if errors.Is(err, ErrNoEntries) {
		t.Error("binary input must not be reported as no-entries")
	}
}

func TestParseRejectsUTF16(t *testing.T) {
	// "1\n0" encoded as UTF-16 with BOM, little then big endian.
	inputs := []string{
		"\xff\xfe1\x00\n\x000\x00",
		"\xfe\xff\x001\x00\n\x000",
	}

	for _, input := range inputs {
		_, err := Parse(input)
		if !errors.Is(err, ErrWrongFileType) {
			t.Errorf("Parse(BOM % x) = %v, want ErrWrongFileType", input[:2], err)
			continue
		}
		if !strings.Contains(err.Error(), "UTF-8") {
			t.Errorf("error should point at re-encoding: %v", err)
		}
	}
}

func TestParseNoEntries(t *testing.T) {
	input := "this is just prose\nwith no timing lines\n\nand another paragraph"

	_, err := Parse(input)
	if !errors.Is(err, ErrNoEntries) {
		t.Fatalf("expected ErrNoEntries, got %v", err)
	}
	if !strings.Contains(err.Error(), "this is just prose") {
		t.Errorf("error should carry an excerpt of the first block: %v", err)
	}
}
