package mix

import (
	"context"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// Track is a decoded PCM audio buffer. Samples are interleaved by
// channel, 16-bit range regardless of container bit depth.
type Track struct {
	Samples    []int
	SampleRate int
	Channels   int
	BitDepth   int
}

// Frames returns the number of sample frames (samples per channel).
func (t *Track) Frames() int {
	if t.Channels == 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

// DurationSeconds returns the track length in seconds.
func (t *Track) DurationSeconds() float64 {
	if t.SampleRate == 0 {
		return 0
	}
	return float64(t.Frames()) / float64(t.SampleRate)
}

// FrameAt converts a timeline position in seconds to a frame index.
func (t *Track) FrameAt(seconds float64) int {
	return int(seconds * float64(t.SampleRate))
}

// LoadTrack decodes a wav file into memory.
func LoadTrack(ctx context.Context, path string) (*Track, *log.Status) {
	file, err := os.Open(path)
	if err != nil {
		return nil, log.Error(ctx, 500, err, "Error opening audio file", path)
	}
	defer file.Close()
	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, log.ErrorNoErr(ctx, 400, "Not a valid wav file", path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, log.Error(ctx, 500, err, "Error decoding wav file", path)
	}
	var track Track
	track.Samples = buf.Data
	track.SampleRate = buf.Format.SampleRate
	track.Channels = buf.Format.NumChannels
	track.BitDepth = int(decoder.BitDepth)
	if track.BitDepth == 0 {
		track.BitDepth = 16
	}
	return &track, nil
}

// Save writes the track to a wav file.
func (t *Track) Save(ctx context.Context, path string) *log.Status {
	file, err := os.Create(path)
	if err != nil {
		return log.Error(ctx, 500, err, "Error creating audio file", path)
	}
	defer file.Close()
	encoder := wav.NewEncoder(file, t.SampleRate, t.BitDepth, t.Channels, 1)
	buf := &audio.IntBuffer{
		Data:           t.Samples,
		Format:         &audio.Format{SampleRate: t.SampleRate, NumChannels: t.Channels},
		SourceBitDepth: t.BitDepth,
	}
	err = encoder.Write(buf)
	if err != nil {
		return log.Error(ctx, 500, err, "Error writing wav file", path)
	}
	err = encoder.Close()
	if err != nil {
		return log.Error(ctx, 500, err, "Error closing wav file", path)
	}
	return nil
}
