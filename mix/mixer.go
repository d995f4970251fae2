package mix

import (
	"context"
	"math"

	log "github.com/tob-euro/auto-dubbing/logger"
	"github.com/tob-euro/auto-dubbing/timeline"
)

const (
	maxSample = 32767
	minSample = -32768
)

// MixPolicy holds the tunable gain staging parameters.
type MixPolicy struct {
	CrossfadeMs      int     // fade length at segment entry and exit
	DuckDb           float64 // background attenuation under active speech, <= 0
	ForegroundGainDb float64
	BackgroundGainDb float64
}

// Mixer composites placed dubbed clips over a background track.
type Mixer struct {
	ctx    context.Context
	policy MixPolicy
}

func NewMixer(ctx context.Context, policy MixPolicy) Mixer {
	return Mixer{ctx: ctx, policy: policy}
}

func dbToFactor(db float64) float64 {
	return math.Pow(10, db/20)
}

// Render lays the background down first, then mixes each placed clip
// at foreground gain with entry and exit fades, ducking the background
// under the placed span. A clip that fails to load is excluded and its
// span stays background-only; that is a local recovery, not fatal.
// Overflowed segments past the end of the background extend the output
// with silence, never by looping.
func (m *Mixer) Render(background *Track, plan timeline.PlacementPlan) (*Track, MixReport, *log.Status) {
	var report MixReport
	if background == nil || background.SampleRate == 0 || background.Channels == 0 {
		return nil, report, log.ErrorNoErr(m.ctx, 500, "Mixer requires a decoded background track")
	}
	rate := background.SampleRate
	channels := background.Channels

	outFrames := background.Frames()
	lastEnd := plan.LastPlacedEnd()
	if endFrame := int(math.Ceil(lastEnd * float64(rate))); endFrame > outFrames {
		outFrames = endFrame
	}
	out := &Track{
		Samples:    make([]int, outFrames*channels),
		SampleRate: rate,
		Channels:   channels,
		BitDepth:   background.BitDepth,
	}

	bgFactor := dbToFactor(m.policy.BackgroundGainDb)
	for i, sample := range background.Samples {
		if bgFactor == 1.0 {
			out.Samples[i] = sample
		} else {
			out.Samples[i] = clampSample(math.Round(float64(sample) * bgFactor))
		}
	}

	fadeFrames := m.policy.CrossfadeMs * rate / 1000
	duckFactor := dbToFactor(m.policy.DuckDb)
	fgFactor := dbToFactor(m.policy.ForegroundGainDb)

	report.TotalDriftSeconds = plan.TotalDrift
	report.Overflows = plan.Overflows

	for _, ps := range plan.Segments {
		row := SegmentReport{
			SegmentNum: ps.Segment.SegmentNum,
			SpeakerId:  ps.Segment.SpeakerId,
		}
		if ps.Skipped {
			row.Failed = true
			row.FailReason = ps.Segment.FailReason
			report.Segments = append(report.Segments, row)
			continue
		}
		row.Action = string(ps.Action)
		row.PlacedStart = ps.PlacedStart
		row.PlacedEnd = ps.PlacedEnd
		row.StretchRate = ps.StretchRate

		clip, status := LoadTrack(m.ctx, ps.Segment.Dubbed.Path)
		if status == nil && (clip.SampleRate != rate || clip.Channels != channels) {
			status = log.ErrorNoErr(m.ctx, 500, "Clip format does not match background",
				ps.Segment.Dubbed.Path, clip.SampleRate, clip.Channels)
		}
		if status != nil {
			// Local recovery: exclude the clip, keep background for the span
			log.Warn(m.ctx, "Excluding segment from mix", ps.Segment.SegmentNum, status.Message)
			row.Action = ""
			row.Failed = true
			row.FailReason = "ClipLoadError: " + status.Message
			report.Segments = append(report.Segments, row)
			continue
		}

		startFrame := out.FrameAt(ps.PlacedStart)
		endFrame := out.FrameAt(ps.PlacedEnd)
		m.duck(out, startFrame, endFrame, fadeFrames, duckFactor)
		row.Clipped = m.overlay(out, clip, startFrame, endFrame, fadeFrames, fgFactor)
		report.Segments = append(report.Segments, row)
	}
	report.OutputDurationSeconds = out.DurationSeconds()
	return out, report, nil
}

// duck attenuates the background inside [startFrame, endFrame) with
// linear ramps at both edges so level changes are not audible as steps.
func (m *Mixer) duck(out *Track, startFrame int, endFrame int, fadeFrames int, duckFactor float64) {
	if duckFactor >= 1.0 {
		return
	}
	channels := out.Channels
	totalFrames := out.Frames()
	if endFrame > totalFrames {
		endFrame = totalFrames
	}
	span := endFrame - startFrame
	if span <= 0 {
		return
	}
	ramp := fadeFrames
	if ramp*2 > span {
		ramp = span / 2
	}
	for f := startFrame; f < endFrame; f++ {
		factor := duckFactor
		if ramp > 0 {
			if f < startFrame+ramp {
				progress := float64(f-startFrame) / float64(ramp)
				factor = 1 + (duckFactor-1)*progress
			} else if f >= endFrame-ramp {
				progress := float64(endFrame-f) / float64(ramp)
				factor = 1 + (duckFactor-1)*progress
			}
		}
		for c := 0; c < channels; c++ {
			idx := f*channels + c
			out.Samples[idx] = clampSample(math.Round(float64(out.Samples[idx]) * factor))
		}
	}
}

// overlay sums the clip into the output at startFrame with entry and
// exit fades, saturating at the 16-bit range. Returns true when any
// sample clipped. A clip file that runs past endFrame, such as
// imprecise atempo output, is cut at the span so it cannot bleed into
// the gap before the next segment.
func (m *Mixer) overlay(out *Track, clip *Track, startFrame int, endFrame int, fadeFrames int, fgFactor float64) bool {
	channels := out.Channels
	clipFrames := clip.Frames()
	if spanFrames := endFrame - startFrame; clipFrames > spanFrames {
		clipFrames = spanFrames
	}
	outFrames := out.Frames()
	ramp := fadeFrames
	if ramp*2 > clipFrames {
		ramp = clipFrames / 2
	}
	clipped := false
	for f := 0; f < clipFrames; f++ {
		outF := startFrame + f
		if outF < 0 || outF >= outFrames {
			continue
		}
		fade := 1.0
		if ramp > 0 {
			if f < ramp {
				fade = float64(f) / float64(ramp)
			} else if f >= clipFrames-ramp {
				fade = float64(clipFrames-f) / float64(ramp)
			}
		}
		for c := 0; c < channels; c++ {
			sum := float64(out.Samples[outF*channels+c]) +
				float64(clip.Samples[f*channels+c])*fgFactor*fade
			if sum > maxSample || sum < minSample {
				clipped = true
			}
			out.Samples[outF*channels+c] = clampSample(math.Round(sum))
		}
	}
	return clipped
}

func clampSample(value float64) int {
	if value > maxSample {
		return maxSample
	}
	if value < minSample {
		return minSample
	}
	return int(value)
}
