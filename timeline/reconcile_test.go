package timeline

import (
	"math"
	"testing"
)

func testPolicy() Policy {
	return Policy{Tolerance: 0.15, MinGap: 0, MaxStretchRate: 1.5}
}

func seg(start, end, dubbed float64) *Segment {
	return &Segment{
		Start:  start,
		End:    end,
		Dubbed: &AudioClip{Path: "clip.wav", Duration: dubbed},
	}
}

func TestReconcileExactFit(t *testing.T) {
	rec := Reconcile(seg(0, 2, 2.0), 2.0, testPolicy())
	if rec.Action != AsIs {
		t.Fatalf("expected as_is, got %s", rec.Action)
	}
	if rec.EffectiveDuration != 2.0 {
		t.Fatalf("expected effective 2.0, got %f", rec.EffectiveDuration)
	}
}

func TestReconcileWithinTolerance(t *testing.T) {
	rec := Reconcile(seg(0, 2, 2.2), 2.0, testPolicy())
	if rec.Action != AsIs {
		t.Fatalf("clip within 15%% tolerance should be as_is, got %s", rec.Action)
	}
}

func TestReconcilePadsIntoSlack(t *testing.T) {
	// 3s clip in a 2s slot: the slot grows toward the next start
	rec := Reconcile(seg(2, 4, 3.0), 4.0, testPolicy())
	if rec.Action != Padded {
		t.Fatalf("expected padded, got %s", rec.Action)
	}
	if rec.EffectiveDuration != 3.0 {
		t.Fatalf("expected effective 3.0, got %f", rec.EffectiveDuration)
	}
}

func TestReconcileStretches(t *testing.T) {
	// 6s clip, 2s slot, next start at 3: available room is 5s and the
	// 6/5 compression is under the 1.5 ceiling
	rec := Reconcile(seg(0, 2, 6.0), 3.0, testPolicy())
	if rec.Action != Stretched {
		t.Fatalf("expected stretched, got %s", rec.Action)
	}
	if math.Abs(rec.StretchRate-1.2) > 1e-9 {
		t.Fatalf("expected rate 1.2, got %f", rec.StretchRate)
	}
	if math.Abs(rec.EffectiveDuration-5.0) > 1e-9 {
		t.Fatalf("expected effective 5.0, got %f", rec.EffectiveDuration)
	}
}

func TestReconcileOverflows(t *testing.T) {
	// 8s clip, 2s slot, next start at 3: rate 8/5 exceeds the ceiling
	rec := Reconcile(seg(0, 2, 8.0), 3.0, testPolicy())
	if rec.Action != Overflowed {
		t.Fatalf("expected overflowed, got %s", rec.Action)
	}
	if rec.EffectiveDuration != 8.0 {
		t.Fatalf("overflowed clip keeps full duration, got %f", rec.EffectiveDuration)
	}
	if rec.StretchRate != 1.0 {
		t.Fatalf("overflowed clip is not stretched, got rate %f", rec.StretchRate)
	}
}

func TestReconcileLastSegmentHasUnboundedSlack(t *testing.T) {
	rec := Reconcile(seg(10, 12, 30.0), math.Inf(1), testPolicy())
	if rec.Action != Padded {
		t.Fatalf("last segment should pad into open slack, got %s", rec.Action)
	}
}

func TestReconcileClampsOverlappingInput(t *testing.T) {
	// next segment starts before this one: slack clamps to zero and the
	// clip is compressed into the bare slot
	rec := Reconcile(seg(1, 3, 2.5), 0.5, testPolicy())
	if rec.Action != Stretched {
		t.Fatalf("expected stretched with clamped slack, got %s", rec.Action)
	}
	if math.Abs(rec.StretchRate-1.25) > 1e-9 {
		t.Fatalf("expected rate 1.25, got %f", rec.StretchRate)
	}
}
