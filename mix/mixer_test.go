package mix

import (
	"context"
	"path/filepath"
	"testing"

	log "github.com/tob-euro/auto-dubbing/logger"
	"github.com/tob-euro/auto-dubbing/timeline"
)

const testRate = 8000

func constantTrack(value int, seconds float64) *Track {
	frames := int(seconds * testRate)
	samples := make([]int, frames)
	for i := range samples {
		samples[i] = value
	}
	return &Track{Samples: samples, SampleRate: testRate, Channels: 1, BitDepth: 16}
}

func writeClip(t *testing.T, dir string, name string, value int, seconds float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	track := constantTrack(value, seconds)
	if status := track.Save(context.Background(), path); status != nil {
		t.Fatal(status)
	}
	return path
}

func placed(segNum int, clipPath string, clipDur, start, end float64, action timeline.Action) timeline.PlacedSegment {
	return timeline.PlacedSegment{
		Segment: &timeline.Segment{
			SegmentNum: segNum,
			SpeakerId:  "A",
			Start:      start,
			End:        end,
			Dubbed:     &timeline.AudioClip{Path: clipPath, Duration: clipDur},
		},
		Action:      action,
		StretchRate: 1.0,
		PlacedStart: start,
		PlacedEnd:   end,
	}
}

func defaultPolicy() MixPolicy {
	return MixPolicy{CrossfadeMs: 50, DuckDb: -9}
}

func TestRenderZeroSegmentsReturnsBackgroundUnchanged(t *testing.T) {
	log.SetOutput("stdout")
	ctx := context.Background()
	background := constantTrack(1234, 1.0)
	mixer := NewMixer(ctx, defaultPolicy())
	out, report, status := mixer.Render(background, timeline.PlacementPlan{})
	if status != nil {
		t.Fatal(status)
	}
	if len(out.Samples) != len(background.Samples) {
		t.Fatalf("expected same length, got %d vs %d", len(out.Samples), len(background.Samples))
	}
	for i := range out.Samples {
		if out.Samples[i] != background.Samples[i] {
			t.Fatalf("sample %d changed: %d != %d", i, out.Samples[i], background.Samples[i])
		}
	}
	if len(report.Segments) != 0 {
		t.Fatalf("expected empty report, got %d rows", len(report.Segments))
	}
}

func TestRenderFailedSegmentKeepsBackground(t *testing.T) {
	ctx := context.Background()
	background := constantTrack(500, 1.0)
	failed := &timeline.Segment{SegmentNum: 1, SpeakerId: "A", Start: 0.2, End: 0.6}
	failed.MarkFailed("SynthesisError")
	plan := timeline.PlacementPlan{
		Segments: []timeline.PlacedSegment{{Segment: failed, Skipped: true}},
	}
	mixer := NewMixer(ctx, defaultPolicy())
	out, report, status := mixer.Render(background, plan)
	if status != nil {
		t.Fatal(status)
	}
	for i := range out.Samples {
		if out.Samples[i] != 500 {
			t.Fatalf("background altered at %d", i)
		}
	}
	if len(report.Segments) != 1 || !report.Segments[0].Failed {
		t.Fatalf("expected one failed row, got %+v", report.Segments)
	}
	if report.Segments[0].FailReason != "SynthesisError" {
		t.Fatalf("expected SynthesisError reason, got %q", report.Segments[0].FailReason)
	}
}

func TestRenderOverlaysClip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clipPath := writeClip(t, dir, "clip.wav", 1000, 0.25)
	background := constantTrack(0, 1.0)
	plan := timeline.PlacementPlan{
		Segments: []timeline.PlacedSegment{
			placed(0, clipPath, 0.25, 0.5, 0.75, timeline.AsIs),
		},
	}
	mixer := NewMixer(ctx, defaultPolicy())
	out, report, status := mixer.Render(background, plan)
	if status != nil {
		t.Fatal(status)
	}
	// before the placed span: silence
	if out.Samples[out.FrameAt(0.25)] != 0 {
		t.Fatal("expected silence before the placed span")
	}
	// middle of the placed span, past the fades: full level
	if got := out.Samples[out.FrameAt(0.625)]; got != 1000 {
		t.Fatalf("expected clip level 1000 mid-span, got %d", got)
	}
	if report.Segments[0].Clipped {
		t.Fatal("no clipping expected")
	}
}

func TestRenderSilenceExtendsForOverflow(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clipPath := writeClip(t, dir, "clip.wav", 800, 1.0)
	background := constantTrack(100, 1.0)
	plan := timeline.PlacementPlan{
		Segments: []timeline.PlacedSegment{
			placed(0, clipPath, 1.0, 1.5, 2.5, timeline.Overflowed),
		},
		Overflows: 1,
	}
	mixer := NewMixer(ctx, defaultPolicy())
	out, report, status := mixer.Render(background, plan)
	if status != nil {
		t.Fatal(status)
	}
	if out.DurationSeconds() < 2.5 {
		t.Fatalf("expected output extended to 2.5s, got %f", out.DurationSeconds())
	}
	// extension between the end of background and the clip is silence,
	// not looped background
	if got := out.Samples[out.FrameAt(1.25)]; got != 0 {
		t.Fatalf("expected silence-extension, got %d", got)
	}
	if got := out.Samples[out.FrameAt(2.0)]; got != 800 {
		t.Fatalf("expected clip level in extension, got %d", got)
	}
	if report.OutputDurationSeconds < 2.5 {
		t.Fatalf("report duration %f", report.OutputDurationSeconds)
	}
}

func TestRenderDucksBackgroundUnderSpeech(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clipPath := writeClip(t, dir, "clip.wav", 0, 0.5)
	background := constantTrack(10000, 1.0)
	policy := MixPolicy{CrossfadeMs: 0, DuckDb: -20}
	plan := timeline.PlacementPlan{
		Segments: []timeline.PlacedSegment{
			placed(0, clipPath, 0.5, 0.25, 0.75, timeline.AsIs),
		},
	}
	mixer := NewMixer(ctx, policy)
	out, _, status := mixer.Render(background, plan)
	if status != nil {
		t.Fatal(status)
	}
	if got := out.Samples[out.FrameAt(0.5)]; got != 1000 {
		t.Fatalf("expected ducked level 1000, got %d", got)
	}
	if got := out.Samples[out.FrameAt(0.1)]; got != 10000 {
		t.Fatalf("expected full level outside span, got %d", got)
	}
}

func TestRenderDetectsClipping(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clipPath := writeClip(t, dir, "clip.wav", 30000, 0.5)
	background := constantTrack(30000, 1.0)
	policy := MixPolicy{CrossfadeMs: 0, DuckDb: 0}
	plan := timeline.PlacementPlan{
		Segments: []timeline.PlacedSegment{
			placed(0, clipPath, 0.5, 0.25, 0.75, timeline.AsIs),
		},
	}
	mixer := NewMixer(ctx, policy)
	out, report, status := mixer.Render(background, plan)
	if status != nil {
		t.Fatal(status)
	}
	if !report.Segments[0].Clipped {
		t.Fatal("expected clipping to be reported")
	}
	if got := out.Samples[out.FrameAt(0.5)]; got != maxSample {
		t.Fatalf("expected saturation at %d, got %d", maxSample, got)
	}
}

func TestRenderTrimsClipToPlacedSpan(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// the clip file runs 0.5s past its placed span
	clipPath := writeClip(t, dir, "clip.wav", 1000, 2.0)
	background := constantTrack(0, 4.0)
	plan := timeline.PlacementPlan{
		Segments: []timeline.PlacedSegment{
			placed(0, clipPath, 1.5, 1.0, 2.5, timeline.Stretched),
		},
	}
	mixer := NewMixer(ctx, defaultPolicy())
	out, _, status := mixer.Render(background, plan)
	if status != nil {
		t.Fatal(status)
	}
	if got := out.Samples[out.FrameAt(2.0)]; got != 1000 {
		t.Fatalf("expected clip level inside span, got %d", got)
	}
	for _, ts := range []float64{2.55, 2.75, 2.99} {
		if got := out.Samples[out.FrameAt(ts)]; got != 0 {
			t.Fatalf("clip bled past its placed span at %.2fs: %d", ts, got)
		}
	}
}

func TestRenderExcludesUnreadableClip(t *testing.T) {
	ctx := context.Background()
	background := constantTrack(700, 1.0)
	plan := timeline.PlacementPlan{
		Segments: []timeline.PlacedSegment{
			placed(0, "/nonexistent/clip.wav", 0.5, 0.25, 0.75, timeline.AsIs),
		},
	}
	mixer := NewMixer(ctx, defaultPolicy())
	out, report, status := mixer.Render(background, plan)
	if status != nil {
		t.Fatal("unreadable clip must not be fatal")
	}
	for i := range out.Samples {
		if out.Samples[i] != 700 {
			t.Fatalf("background altered at %d", i)
		}
	}
	if !report.Segments[0].Failed {
		t.Fatal("expected the segment to be reported failed")
	}
}
