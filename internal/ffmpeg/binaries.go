// Package ffmpeg locates the ffmpeg tool family used for probing,
// clipping, and playback.
package ffmpeg

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
)

// environment overrides, checked before PATH
const (
	envFFmpeg  = "QUOTECLIP_FFMPEG_PATH"
	envFFprobe = "QUOTECLIP_FFPROBE_PATH"
	envFFplay  = "QUOTECLIP_FFPLAY_PATH"
)

var (
	mu     sync.Mutex
	cached = map[string]string{}
)

func FFmpegPath() (string, error) {
	return lookup(envFFmpeg, "ffmpeg")
}

func FFprobePath() (string, error) {
	return lookup(envFFprobe, "ffprobe")
}

func FFplayPath() (string, error) {
	return lookup(envFFplay, "ffplay")
}

// lookup resolves one binary, preferring the env override over PATH.
// Successful resolutions are cached per binary name.
func lookup(envKey, name string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if path, ok := cached[name]; ok {
		return path, nil
	}

	if override := os.Getenv(envKey); override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("%s points to %s: %w", envKey, override, err)
		}
		cached[name] = override
		return override, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found: install ffmpeg or set %s", name, envKey)
	}
	cached[name] = path
	return path, nil
}
