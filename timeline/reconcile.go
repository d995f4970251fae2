package timeline

import "math"

// Action describes how a dubbed clip was fitted to its original slot.
type Action string

const (
	AsIs       Action = "as_is"
	Padded     Action = "padded"
	Stretched  Action = "stretched"
	Overflowed Action = "overflowed"
)

// Policy holds the tunable timing thresholds. Callers get a validated
// policy from the decoded request rather than hard-coded values.
type Policy struct {
	Tolerance      float64 // fraction of slot the clip may exceed without action
	MinGap         float64 // seconds kept between consecutive placed segments
	MaxStretchRate float64 // ceiling on pitch-preserving time compression
}

// Reconciliation is the fitting decision for one segment.
type Reconciliation struct {
	Action            Action
	StretchRate       float64 // 1.0 unless Action == Stretched
	EffectiveDuration float64 // clip duration after the decision
}

// Reconcile decides how a dubbed clip of duration d_new fits the
// segment's original slot of length d_old, given the original start of
// the next segment. The preference order is: leave the clip alone, let
// the slot grow into available slack, time-compress the clip, and only
// then let it overflow at full length and cascade.
//
// Slack is measured from the segment's own original start to the next
// segment's original start. With contiguous diarization the strict gap
// between segments is zero, yet a modestly long clip should still be
// padded rather than stretched, because the placer can absorb the
// growth by pushing later segments. Use math.Inf(1) for nextStart on
// the last segment.
func Reconcile(seg *Segment, nextStart float64, policy Policy) Reconciliation {
	dNew := seg.Dubbed.Duration
	dOld := seg.SlotDuration()
	if dOld < 0 {
		dOld = 0
	}

	// A violated input ordering is tolerated by clamping slack at zero.
	slack := nextStart - seg.Start - policy.MinGap
	if slack < 0 || math.IsNaN(slack) {
		slack = 0
	}

	if dNew <= dOld*(1+policy.Tolerance) {
		return Reconciliation{Action: AsIs, StretchRate: 1.0, EffectiveDuration: dNew}
	}
	available := dOld + slack
	if dNew <= available {
		return Reconciliation{Action: Padded, StretchRate: 1.0, EffectiveDuration: dNew}
	}
	rate := dNew / available
	if rate <= policy.MaxStretchRate {
		return Reconciliation{Action: Stretched, StretchRate: rate, EffectiveDuration: available}
	}
	return Reconciliation{Action: Overflowed, StretchRate: 1.0, EffectiveDuration: dNew}
}
