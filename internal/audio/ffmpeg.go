// Package audio provides ffmpeg-based audio assembly: silence
// generation, concatenation, background-music overlay and duration
// probing.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// Processor defines the audio operations used by the generation pipeline.
type Processor interface {
	// CreateSilence writes a silent MP3 of the given length.
	CreateSilence(ctx context.Context, seconds int, outputPath string) error

	// Concatenate joins the input files into one MP3 in order.
	Concatenate(ctx context.Context, inputs []string, outputPath string) error

	// Overlay mixes background music under the voice track at reduced
	// volume, looping or trimming the music to the voice duration.
	Overlay(ctx context.Context, voicePath, musicPath, outputPath string) error

	// Duration returns the length of an audio file in seconds.
	Duration(ctx context.Context, path string) (float64, error)
}

// FFmpegProcessor implements Processor using the ffmpeg and ffprobe CLIs.
type FFmpegProcessor struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpegProcessor creates a new FFmpegProcessor. Empty paths default
// to "ffmpeg" and "ffprobe" found in PATH.
func NewFFmpegProcessor(ffmpegPath, ffprobePath string) *FFmpegProcessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegProcessor{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// CreateSilence writes a silent stereo MP3 using the anullsrc source.
func (p *FFmpegProcessor) CreateSilence(ctx context.Context, seconds int, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		"-t", strconv.Itoa(seconds),
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		outputPath,
	}
	return p.runFFmpeg(ctx, args)
}

// Concatenate joins input files using the concat demuxer. A file list
// is written next to the output and removed afterwards.
func (p *FFmpegProcessor) Concatenate(ctx context.Context, inputs []string, outputPath string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concatenate: no input files")
	}

	listPath := filepath.Join(filepath.Dir(outputPath), "filelist.txt")
	var list bytes.Buffer
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return fmt.Errorf("resolve input path: %w", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", abs)
	}
	if err := os.WriteFile(listPath, list.Bytes(), 0600); err != nil {
		return fmt.Errorf("write file list: %w", err)
	}
	defer func() { _ = os.Remove(listPath) }()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		outputPath,
	}
	return p.runFFmpeg(ctx, args)
}

// Overlay mixes the music track under the voice track at 0.3 volume.
// Music shorter than the voice is looped; longer music is trimmed.
func (p *FFmpegProcessor) Overlay(ctx context.Context, voicePath, musicPath, outputPath string) error {
	voiceDur, err := p.Duration(ctx, voicePath)
	if err != nil {
		return fmt.Errorf("probe voice duration: %w", err)
	}
	musicDur, err := p.Duration(ctx, musicPath)
	if err != nil {
		return fmt.Errorf("probe music duration: %w", err)
	}

	var args []string
	if musicDur < voiceDur {
		loops := int(math.Ceil(voiceDur/musicDur)) - 1
		args = []string{
			"-y",
			"-stream_loop", strconv.Itoa(loops),
			"-i", musicPath,
			"-i", voicePath,
			"-filter_complex",
			"[0:a]volume=0.3[music];[1:a][music]amix=inputs=2:duration=first:dropout_transition=2",
			"-c:a", "libmp3lame",
			"-b:a", "128k",
			outputPath,
		}
	} else {
		args = []string{
			"-y",
			"-i", voicePath,
			"-i", musicPath,
			"-filter_complex",
			fmt.Sprintf("[1:a]atrim=0:%.3f,volume=0.3[music];[0:a][music]amix=inputs=2:duration=first:dropout_transition=2", voiceDur),
			"-c:a", "libmp3lame",
			"-b:a", "128k",
			outputPath,
		}
	}
	return p.runFFmpeg(ctx, args)
}

// ffprobeFormat is the format section of ffprobe JSON output.
type ffprobeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the audio length in seconds using ffprobe.
func (p *FFmpegProcessor) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w, stderr: %s", err, stderr.String())
	}

	return ParseDuration(stdout.Bytes())
}

// ParseDuration extracts the duration from ffprobe -show_format JSON.
func ParseDuration(probeJSON []byte) (float64, error) {
	var out ffprobeFormat
	if err := json.Unmarshal(probeJSON, &out); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if out.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output missing duration")
	}
	dur, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}
	return dur, nil
}

// runFFmpeg executes ffmpeg with the given arguments.
func (p *FFmpegProcessor) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg: %w, stderr: %s", err, stderr.String())
	}
	return nil
}

// Verify interface implementation at compile time.
var _ Processor = (*FFmpegProcessor)(nil)
