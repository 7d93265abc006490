// Package fetch loads subtitle text from local files, HTTP URLs,
// or inline literals.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"quoteclip/internal/logging"
	"quoteclip/internal/playback"
)

// InlinePrefix marks a source whose remainder is the subtitle text
// itself, useful for scripting and tests.
const InlinePrefix = "inline:"

// maxBodySize caps remote subtitle downloads. Real subtitle files are
// well under a megabyte.
const maxBodySize = 10 << 20

// Fetcher resolves subtitle sources to their text content.
type Fetcher struct {
	client *http.Client
	logger *logging.Logger
}

var _ playback.TextFetcher = (*Fetcher)(nil)

// New returns a fetcher with a 30 second HTTP timeout.
func New(logger *logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Text loads the subtitle text behind source. An "inline:" prefix
// returns the remainder verbatim, "http://" and "https://" sources are
// downloaded, and anything else is read as a local file path.
func (f *Fetcher) Text(ctx context.Context, source string) (string, error) {
	switch {
	case strings.HasPrefix(source, InlinePrefix):
		return strings.TrimPrefix(source, InlinePrefix), nil
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return f.download(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("read subtitle file: %w", err)
		}
		return string(data), nil
	}
}

func (f *Fetcher) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download subtitles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("download subtitles: %s returned status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	f.logger.Debugw("downloaded subtitles", "url", url, "bytes", len(data))
	return string(data), nil
}
