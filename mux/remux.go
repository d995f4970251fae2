package mux

import (
	"context"
	"os/exec"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// RemuxVideo replaces the audio track of the source video with the
// rendered dub. The video stream is copied untouched and the output is
// trimmed to the shorter of the two streams.
func RemuxVideo(ctx context.Context, videoPath string, audioPath string, outputPath string) *log.Status {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outputPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return log.Error(ctx, 500, err, "Error remuxing video", string(output))
	}
	return nil
}
