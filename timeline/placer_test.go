package timeline

import (
	"context"
	"math"
	"reflect"
	"testing"

	log "github.com/tob-euro/auto-dubbing/logger"
)

func TestPlaceCascadeScenario(t *testing.T) {
	log.SetOutput("stdout")
	ctx := context.Background()
	segments := []*Segment{
		seg(0, 2, 2.0),
		seg(2, 4, 3.0),
		seg(4, 6, 2.0),
	}
	plan, status := Place(ctx, segments, testPolicy())
	if status != nil {
		t.Fatal(status)
	}
	if plan.Segments[0].Action != AsIs || plan.Segments[0].PlacedStart != 0 {
		t.Fatalf("segment 1: %+v", plan.Segments[0])
	}
	if plan.Segments[1].Action != Padded {
		t.Fatalf("segment 2 should pad into slack, got %s", plan.Segments[1].Action)
	}
	if plan.Segments[1].PlacedStart != 2 || plan.Segments[1].PlacedEnd != 5 {
		t.Fatalf("segment 2 span: %+v", plan.Segments[1])
	}
	if plan.Segments[2].PlacedStart != 5 {
		t.Fatalf("segment 3 should cascade to 5, got %f", plan.Segments[2].PlacedStart)
	}
	if math.Abs(plan.TotalDrift-1.0) > 1e-9 {
		t.Fatalf("expected total drift 1.0, got %f", plan.TotalDrift)
	}
}

func TestPlaceIdempotent(t *testing.T) {
	ctx := context.Background()
	segments := []*Segment{
		seg(0, 2, 2.5),
		seg(2, 4, 5.0),
		seg(4, 6, 1.0),
		seg(7, 9, 9.0),
	}
	plan1, status := Place(ctx, segments, testPolicy())
	if status != nil {
		t.Fatal(status)
	}
	plan2, status := Place(ctx, segments, testPolicy())
	if status != nil {
		t.Fatal(status)
	}
	if !reflect.DeepEqual(plan1, plan2) {
		t.Fatal("placement is not idempotent")
	}
}

func TestPlaceSkipsFailedSegments(t *testing.T) {
	ctx := context.Background()
	failed := seg(2, 4, 0)
	failed.Dubbed = nil
	failed.MarkFailed("SynthesisError")
	segments := []*Segment{
		seg(0, 2, 2.0),
		failed,
		seg(4, 6, 2.0),
	}
	plan, status := Place(ctx, segments, testPolicy())
	if status != nil {
		t.Fatal(status)
	}
	if len(plan.Segments) != 3 {
		t.Fatalf("failed segment must stay in the plan, got %d entries", len(plan.Segments))
	}
	if !plan.Segments[1].Skipped {
		t.Fatal("failed segment must be skipped")
	}
	if plan.Segments[2].PlacedStart != 4 {
		t.Fatalf("failed segment must not cascade, got start %f", plan.Segments[2].PlacedStart)
	}
	if plan.TotalDrift != 0 {
		t.Fatalf("expected zero drift, got %f", plan.TotalDrift)
	}
}

func TestPlaceAdversarialOverflows(t *testing.T) {
	ctx := context.Background()
	// Every clip is far too long for its slot: all but the last segment
	// overflow (the last one pads into open slack) and the cascade
	// compounds. The plan must stay non-overlapping.
	var segments []*Segment
	for i := 0; i < 20; i++ {
		start := float64(i)
		segments = append(segments, seg(start, start+1, 10.0))
	}
	plan, status := Place(ctx, segments, testPolicy())
	if status != nil {
		t.Fatal(status)
	}
	if plan.Overflows != 19 {
		t.Fatalf("expected 19 overflows, got %d", plan.Overflows)
	}
	prevEnd := math.Inf(-1)
	for _, ps := range plan.Segments {
		if ps.PlacedStart < 0 || ps.PlacedEnd < ps.PlacedStart {
			t.Fatalf("bad span %+v", ps)
		}
		if ps.PlacedStart < prevEnd {
			t.Fatalf("overlap at segment %d", ps.Segment.SegmentNum)
		}
		prevEnd = ps.PlacedEnd
	}
	if plan.TotalDrift <= 0 {
		t.Fatal("expected positive cascade drift")
	}
}

func TestPlaceMinGapSeparatesCascadedSegments(t *testing.T) {
	ctx := context.Background()
	policy := Policy{Tolerance: 0.15, MinGap: 0.25, MaxStretchRate: 1.5}
	segments := []*Segment{
		seg(0, 2, 6.0), // overflows
		seg(2, 4, 2.0),
	}
	plan, status := Place(ctx, segments, policy)
	if status != nil {
		t.Fatal(status)
	}
	gap := plan.Segments[1].PlacedStart - plan.Segments[0].PlacedEnd
	if math.Abs(gap-0.25) > 1e-9 {
		t.Fatalf("expected 0.25s gap between cascaded segments, got %f", gap)
	}
}

func TestPlaceEmptySequence(t *testing.T) {
	ctx := context.Background()
	plan, status := Place(ctx, nil, testPolicy())
	if status != nil {
		t.Fatal(status)
	}
	if len(plan.Segments) != 0 || plan.TotalDrift != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}
