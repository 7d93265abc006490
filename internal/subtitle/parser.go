package subtitle

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrEmptyInput indicates input with no content at all.
	ErrEmptyInput = errors.New("subtitle input is empty")
	// ErrWrongFileType indicates input that starts with a known binary
	// container signature instead of subtitle text.
	ErrWrongFileType = errors.New("input is not a subtitle file")
	// ErrNoEntries indicates input that had text blocks but produced no
	// usable entries.
	ErrNoEntries = errors.New("no subtitle entries found")
)

// arrowRe matches a cue timing line, capturing both timestamps.
var arrowRe = regexp.MustCompile(`(\d{2}:\d{2}:\d{2}[,.]\d{3})\s*-->\s*(\d{2}:\d{2}:\d{2}[,.]\d{3})`)

// blankLineRe separates cue blocks on one or more blank lines.
var blankLineRe = regexp.MustCompile(`\n[ \t]*\n+`)

// indexBoundaryRe finds block starts in files that omit blank lines: an
// index number line directly followed by a timing line.
var indexBoundaryRe = regexp.MustCompile(`(?m)^\d+[ \t]*\n\d{2}:\d{2}:\d{2}[,.]\d{3}[ \t]*-->`)

// arrowBoundaryRe finds block starts by timing line alone, for inputs
// without index numbers.
var arrowBoundaryRe = regexp.MustCompile(`(?m)^\d{2}:\d{2}:\d{2}[,.]\d{3}[ \t]*-->`)

// markupRe strips inline styling tags such as <i> and {\an8}.
var markupRe = regexp.MustCompile(`<[^>]*>|\{[^}]*\}`)

// binarySignatures are magic numbers of common media containers, plus
// the UTF-16 byte order marks. Audio uploaded in place of a subtitle
// file, or a subtitle export in the wrong encoding, is caught here
// instead of surfacing as a confusing no-entries error.
var binarySignatures = []struct {
	name  string
	magic []byte
}{
	{"ID3", []byte("ID3")},
	{"RIFF", []byte("RIFF")},
	{"Ogg", []byte("OggS")},
	{"FLAC", []byte("fLaC")},
	{"MPEG", []byte{0xff, 0xfb}},
	{"MPEG", []byte{0xff, 0xf3}},
	{"EBML", []byte{0x1a, 0x45, 0xdf, 0xa3}},
	{"UTF-16", []byte{0xff, 0xfe}},
	{"UTF-16", []byte{0xfe, 0xff}},
}

// Parse extracts timed entries from SubRip text. It tolerates CRLF line
// endings, UTF-8 BOMs, '.' millisecond separators, missing index
// numbers, and missing blank lines between blocks. Blocks that cannot
// be parsed are skipped; entry order follows block order.
func Parse(text string) (Track, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if sig := matchBinarySignature(text); sig != "" {
		if sig == "UTF-16" {
			return nil, fmt.Errorf("%w: content is UTF-16 encoded, re-encode it as UTF-8", ErrWrongFileType)
		}
		return nil, fmt.Errorf("%w: content starts with %s media signature", ErrWrongFileType, sig)
	}

	normalized := strings.TrimPrefix(text, "\ufeff")
	normalized = strings.ReplaceAll(normalized, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	blocks := splitBlocks(normalized)

	track := make(Track, 0, len(blocks))
	for _, block := range blocks {
		entry, ok := parseBlock(block, len(track)+1)
		if !ok {
			continue
		}
		track = append(track, entry)
	}
	if len(track) == 0 {
		first := ""
		if len(blocks) > 0 {
			first = excerpt(blocks[0], 60)
		}
		return nil, fmt.Errorf("%w: none of %d block(s) had a usable timing line, starting %q", ErrNoEntries, len(blocks), first)
	}
	return track, nil
}

func matchBinarySignature(text string) string {
	data := []byte(text)
	for _, sig := range binarySignatures {
		if bytes.HasPrefix(data, sig.magic) {
			return sig.name
		}
	}
	// mp4 family puts "ftyp" after a four byte box length
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		return "MP4"
	}
	return ""
}

// splitBlocks divides normalized text into cue blocks. Blank lines are
// the primary separator; single-block results are retried by index
// boundary and then by timing line alone.
func splitBlocks(text string) []string {
	blocks := nonEmptyBlocks(blankLineRe.Split(text, -1))
	if len(blocks) > 1 {
		return blocks
	}
	if split := splitBefore(text, indexBoundaryRe); len(split) > 1 {
		return split
	}
	if split := splitBefore(text, arrowBoundaryRe); len(split) > 1 {
		return split
	}
	return blocks
}

// splitBefore cuts text at the start of every match of re. Any prefix
// before the first match becomes its own block.
func splitBefore(text string, re *regexp.Regexp) []string {
	locs := re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	var blocks []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			blocks = append(blocks, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	blocks = append(blocks, text[prev:])
	return nonEmptyBlocks(blocks)
}

func nonEmptyBlocks(blocks []string) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			out = append(out, b)
		}
	}
	return out
}

// parseBlock extracts one entry from a cue block. ok is false for
// blocks without a timing line, with fewer than two usable lines, or
// with no text after markup stripping.
func parseBlock(block string, ordinal int) (Entry, bool) {
	rawLines := strings.Split(block, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 {
		return Entry{}, false
	}

	arrowAt := -1
	var m []string
	for i, line := range lines {
		if m = arrowRe.FindStringSubmatch(line); m != nil {
			arrowAt = i
			break
		}
	}
	if arrowAt == -1 || arrowAt == len(lines)-1 {
		return Entry{}, false
	}

	start, err := ParseTimestamp(m[1])
	if err != nil {
		return Entry{}, false
	}
	end, err := ParseTimestamp(m[2])
	if err != nil {
		return Entry{}, false
	}

	index := ordinal
	if arrowAt > 0 {
		if n, err := strconv.Atoi(lines[arrowAt-1]); err == nil {
			index = n
		}
	}

	textLines := lines[arrowAt+1:]
	// when blocks were split on timing lines alone, the next block's
	// index number trails the previous block's text
	if len(textLines) > 1 {
		if _, err := strconv.Atoi(textLines[len(textLines)-1]); err == nil {
			textLines = textLines[:len(textLines)-1]
		}
	}
	text := markupRe.ReplaceAllString(strings.Join(textLines, " "), "")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return Entry{}, false
	}

	return Entry{Index: index, StartTime: start, EndTime: end, Text: text}, true
}

func excerpt(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
