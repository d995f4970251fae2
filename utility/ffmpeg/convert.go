package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// ExtractAudio pulls the audio track out of a video file as 16-bit PCM
// stereo at 44.1 kHz, the working format for the rest of the pipeline.
func ExtractAudio(ctx context.Context, videoPath string, outputDir string) (string, *log.Status) {
	outputPath := filepath.Join(outputDir, "extracted_audio.wav")
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y",
		"-loglevel", "error",
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		outputPath)
	err := cmd.Run()
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error extracting audio from", videoPath)
	}
	return outputPath, nil
}

// ConvertToWav re-encodes any audio file to PCM wav at the given sample
// rate and channel count so that clips can be mixed sample for sample.
func ConvertToWav(ctx context.Context, tempDir string, inputFile string, sampleRate int, channels int) (string, *log.Status) {
	outputFile := filepath.Join(tempDir, fmt.Sprintf("conv_%d.wav", time.Now().UnixNano()))
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputFile,
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-ac", fmt.Sprintf("%d", channels),
		"-y",
		outputFile)
	err := cmd.Run()
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error converting to wav", inputFile)
	}
	return outputFile, nil
}

// ChopOneSegment extracts [startTS, endTS) from an audio file into a
// new wav file in tempDir.
func ChopOneSegment(ctx context.Context, tempDir string, audioFile string, startTS float64, endTS float64) (string, *log.Status) {
	outputFile := filepath.Join(tempDir, fmt.Sprintf("chop_%d.wav", time.Now().UnixNano()))
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", audioFile,
		"-ss", fmt.Sprintf("%.6f", startTS),
		"-to", fmt.Sprintf("%.6f", endTS),
		"-acodec", "pcm_s16le",
		"-y",
		outputFile)
	err := cmd.Run()
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error chopping segment", audioFile)
	}
	return outputFile, nil
}

// TimeCompress speeds up a clip by rate without changing pitch, using
// the atempo filter. Rates above 2.0 are chained because atempo only
// accepts 0.5 to 2.0 per stage.
func TimeCompress(ctx context.Context, tempDir string, inputFile string, rate float64) (string, *log.Status) {
	if rate <= 0 {
		return "", log.ErrorNoErr(ctx, 400, "Invalid atempo rate", rate)
	}
	filter := ""
	remaining := rate
	for remaining > 2.0 {
		if filter != "" {
			filter += ","
		}
		filter += "atempo=2.0"
		remaining /= 2.0
	}
	if filter != "" {
		filter += ","
	}
	filter += fmt.Sprintf("atempo=%.6f", remaining)
	outputFile := filepath.Join(tempDir, fmt.Sprintf("atempo_%d.wav", time.Now().UnixNano()))
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputFile,
		"-af", filter,
		"-acodec", "pcm_s16le",
		"-y",
		outputFile)
	err := cmd.Run()
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error applying atempo", inputFile)
	}
	return outputFile, nil
}
