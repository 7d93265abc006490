package subtitle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// WriteSRT serializes a track in SubRip format. Entries are renumbered
// sequentially from 1.
func WriteSRT(w io.Writer, track Track) error {
	var sb strings.Builder
	for i, entry := range track {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			FormatTimestamp(entry.StartTime),
			FormatTimestamp(entry.EndTime)))

		// text
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// SaveSRT writes a track to a file, creating parent directories.
func SaveSRT(path string, track Track) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	var sb strings.Builder
	if err := WriteSRT(&sb, track); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
