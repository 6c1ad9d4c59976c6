package audio

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"time"
)

// ToolStatus reports ffmpeg/ffprobe availability for diagnostics.
type ToolStatus struct {
	FFmpegInstalled  bool   `json:"ffmpeg_installed"`
	FFmpegVersion    string `json:"ffmpeg_version,omitempty"`
	FFprobeInstalled bool   `json:"ffprobe_installed"`
	FFprobeVersion   string `json:"ffprobe_version,omitempty"`
	Status           string `json:"status"` // "healthy", "partial" or "error"
	Message          string `json:"message,omitempty"`
}

var versionRe = regexp.MustCompile(`version (\S+)`)

// Probe checks whether ffmpeg and ffprobe are installed and extracts
// their versions.
func (p *FFmpegProcessor) Probe(ctx context.Context) ToolStatus {
	status := ToolStatus{}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status.FFmpegInstalled, status.FFmpegVersion = toolVersion(probeCtx, p.ffmpegPath)
	status.FFprobeInstalled, status.FFprobeVersion = toolVersion(probeCtx, p.ffprobePath)

	switch {
	case status.FFmpegInstalled && status.FFprobeInstalled:
		status.Status = "healthy"
		status.Message = "FFmpeg and FFprobe are properly installed"
	case status.FFmpegInstalled || status.FFprobeInstalled:
		status.Status = "partial"
		status.Message = "Only one of FFmpeg/FFprobe is installed"
	default:
		status.Status = "error"
		status.Message = "FFmpeg and FFprobe are not installed"
	}
	return status
}

func toolVersion(ctx context.Context, path string) (bool, string) {
	cmd := exec.CommandContext(ctx, path, "-version")

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return false, ""
	}
	if m := versionRe.FindSubmatch(stdout.Bytes()); len(m) > 1 {
		return true, string(m[1])
	}
	return true, ""
}
