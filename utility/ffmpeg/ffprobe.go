package ffmpeg

import (
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/tob-euro/auto-dubbing/logger"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type ProbeData struct {
	Format ProbeFormat `json:"format"`
}

type ProbeFormat struct {
	Filename       string `json:"filename"`
	NBStreams      int    `json:"nb_streams"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	StartTime      string `json:"start_time"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
	ProbeScore     int    `json:"probe_score"`
}

func GetAudioDuration(ctx context.Context, directory string, filename string) (float64, *log.Status) {
	var result float64
	probeData, status := GetProbeData(ctx, directory, filename)
	if status != nil {
		return result, status
	}
	if strings.TrimSpace(probeData.Format.Duration) != "" {
		var err error
		result, err = strconv.ParseFloat(probeData.Format.Duration, 64)
		if err != nil {
			return result, log.Error(ctx, 500, err, "Data conversion error in ffmpeg.GetAudioDuration")
		}
	} else {
		result, status = ComputeDuration(ctx, directory, filename)
		if status != nil {
			return result, status
		}
	}
	return result, nil
}

func GetProbeData(ctx context.Context, directory string, filename string) (ProbeData, *log.Status) {
	var result ProbeData
	filePath := filepath.Join(directory, filename)
	data, err := ffmpeg.Probe(filePath)
	if err != nil {
		return result, log.Error(ctx, 500, err, "Error in ffmpeg.GetProbeData", filePath)
	}
	err = json.Unmarshal([]byte(data), &result)
	if err != nil {
		return result, log.Error(ctx, 500, err, "Error in ffmpeg.GetProbeData")
	}
	return result, nil
}

// ComputeDuration decodes the audio stream when the container reports
// no duration, which happens with some streamed formats.
func ComputeDuration(ctx context.Context, directory string, filename string) (float64, *log.Status) {
	var result float64
	filePath := filepath.Join(directory, filename)
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath)
	output, err := cmd.Output()
	if err != nil {
		return result, log.Error(ctx, 500, err, "Error in ffmpeg.ComputeDuration", filePath)
	}
	result, err = strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return result, log.Error(ctx, 500, err, "Data conversion error in ffmpeg.ComputeDuration")
	}
	return result, nil
}
