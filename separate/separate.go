package separate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	ffmpeg "github.com/tob-euro/auto-dubbing/utility/ffmpeg"
	"github.com/tob-euro/auto-dubbing/utility/stdio_exec"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// demucs two-stem separation splits speech from everything else.
// The quantized model is a quarter of the size of the default with
// nearly the same vocal isolation quality.
const demucsModel = `mdx_extra_q`

// SeparatedTracks is the result of splitting the source audio.
type SeparatedTracks struct {
	VocalsPath     string
	BackgroundPath string
	Duration       float64
}

// SourceSeparator extracts the audio track from the input video and
// splits it into vocals and background. Any failure here is fatal to
// the run: without a background track there is nothing to dub onto.
type SourceSeparator struct {
	ctx          context.Context
	processedDir string
}

func NewSourceSeparator(ctx context.Context, processedDir string) SourceSeparator {
	var s SourceSeparator
	s.ctx = ctx
	s.processedDir = processedDir
	return s
}

// ExtractAudio pulls the audio stream out of the video as 16-bit PCM.
func (s *SourceSeparator) ExtractAudio(videoPath string) (string, *log.Status) {
	err := os.MkdirAll(s.processedDir, 0755)
	if err != nil {
		return ``, log.Error(s.ctx, 500, err, "Error creating directory", s.processedDir)
	}
	audioPath, status := ffmpeg.ExtractAudio(s.ctx, videoPath, s.processedDir)
	if status != nil {
		return ``, status
	}
	return audioPath, nil
}

// Separate runs demucs on the extracted audio and returns the vocals
// and background stems. demucs writes its output under
// <outDir>/<model>/<track>/, so the stems are located by walking that
// tree rather than assuming an exact layout.
func (s *SourceSeparator) Separate(audioPath string) (SeparatedTracks, *log.Status) {
	var result SeparatedTracks
	outDir := filepath.Join(s.processedDir, `separated`)
	err := os.MkdirAll(outDir, 0755)
	if err != nil {
		return result, log.Error(s.ctx, 500, err, "Error creating directory", outDir)
	}
	status := stdio_exec.RunScriptWithLogging(s.ctx, `demucs`,
		`--two-stems=vocals`, `-n`, demucsModel, `-o`, outDir, audioPath)
	if status != nil {
		return result, status
	}
	result.VocalsPath, result.BackgroundPath, status = s.findStems(outDir)
	if status != nil {
		return result, status
	}
	result.Duration, status = ffmpeg.GetAudioDuration(s.ctx,
		filepath.Dir(result.BackgroundPath), filepath.Base(result.BackgroundPath))
	if status != nil {
		return result, status
	}
	return result, nil
}

func (s *SourceSeparator) findStems(outDir string) (string, string, *log.Status) {
	var vocals, background string
	err := filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		switch d.Name() {
		case `vocals.wav`:
			vocals = path
		case `no_vocals.wav`:
			background = path
		}
		return nil
	})
	if err != nil {
		return ``, ``, log.Error(s.ctx, 500, err, "Error searching for separated stems", outDir)
	}
	if vocals == `` || background == `` {
		return ``, ``, log.ErrorNoErr(s.ctx, 500, "Separation produced no stems in", outDir)
	}
	return vocals, background, nil
}
