// Package media cuts quote clips out of audio and video files with ffmpeg.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "quoteclip/internal/ffmpeg"
	"quoteclip/internal/player"
)

// one clip to cut
type ClipJob struct {
	Index      int
	Quote      string
	Start      time.Duration
	End        time.Duration
	OutputPath string
}

// one finished clip
type ClipInfo struct {
	Path  string
	Index int
	Quote string
	Start time.Duration
	End   time.Duration
}

// settings for clip extraction
type ClipOptions struct {
	Copy bool // copy streams instead of re-encoding; fast but cuts on keyframes
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// duration of an audio/video file
func Duration(filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", filePath)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out.Bytes(), &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}

// ExtractClip cuts the start..end window of inputPath into outputPath.
func ExtractClip(
	ctx context.Context,
	inputPath, outputPath string,
	start, end time.Duration,
	opts ClipOptions,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if end <= start {
		return fmt.Errorf("clip window must be positive, got %v..%v", start, end)
	}
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	outputDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	kwargs := ffmpeg.KwArgs{
		"ss": start.Seconds(),
		"t":  (end - start).Seconds(),
		"y":  "",
	}
	if opts.Copy {
		kwargs["c"] = "copy"
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	err = ffmpeg.Input(inputPath).
		Output(outputPath, kwargs).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()

	if err != nil {
		return fmt.Errorf("clip extraction failed: %w", err)
	}

	return nil
}

// ExtractClips cuts every job with configurable concurrency.
// If concurrency is 0 or negative, it defaults to 4 concurrent workers.
func ExtractClips(
	ctx context.Context,
	inputPath string,
	jobs []ClipJob,
	opts ClipOptions,
	concurrency int,
) ([]ClipInfo, error) {
	if concurrency <= 0 {
		concurrency = 4
	}

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file not found: %s", inputPath)
	}

	var (
		mu       sync.Mutex
		clips    []ClipInfo
		firstErr error
		wg       sync.WaitGroup
	)

	// semaphore to limit concurrent ffmpeg processes
	sem := make(chan struct{}, concurrency)

	for _, job := range jobs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		mu.Lock()
		hasErr := firstErr != nil
		mu.Unlock()
		if hasErr {
			break
		}

		wg.Add(1)
		go func(j ClipJob) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				return
			default:
			}

			mu.Lock()
			hasErr := firstErr != nil
			mu.Unlock()
			if hasErr {
				return
			}

			err := ExtractClip(ctx, inputPath, j.OutputPath, j.Start, j.End, opts)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf(
						"failed to cut clip %d: %w",
						j.Index,
						err,
					)
				}
				return
			}

			clips = append(clips, ClipInfo{
				Path:  j.OutputPath,
				Index: j.Index,
				Quote: j.Quote,
				Start: j.Start,
				End:   j.End,
			})
		}(job)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	// sort clips by index to maintain order
	sort.Slice(clips, func(i, j int) bool {
		return clips[i].Index < clips[j].Index
	})

	return clips, nil
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	videoExts := map[string]bool{
		".mp4":  true,
		".mkv":  true,
		".avi":  true,
		".mov":  true,
		".wmv":  true,
		".flv":  true,
		".webm": true,
		".m4v":  true,
		".mpeg": true,
		".mpg":  true,
		".ts":   true,
		".3gp":  true,
	}
	return videoExts[ext]
}

// checks if the file is an audio file based on extension
func IsAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	audioExts := map[string]bool{
		".mp3":  true,
		".wav":  true,
		".aac":  true,
		".flac": true,
		".ogg":  true,
		".opus": true,
		".m4a":  true,
		".wma":  true,
		".aiff": true,
	}
	return audioExts[ext]
}

// checks if the file is either audio or video
func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}

// KindOf picks the playback element kind for a media path. Unknown
// extensions and remote URLs default to audio.
func KindOf(path string) player.Kind {
	if IsVideoFile(path) {
		return player.KindVideo
	}
	return player.KindAudio
}
