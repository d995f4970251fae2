package timeline

import (
	"context"
	"math"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// PlacedSegment is one entry in a placement plan. Skipped entries keep
// their position in the sequence but carry no placement; their original
// slot stays background-only in the mix.
type PlacedSegment struct {
	Segment     *Segment
	Action      Action
	StretchRate float64
	PlacedStart float64
	PlacedEnd   float64
	Skipped     bool
}

// PlacementPlan is the non-overlapping schedule of dubbed segments on
// the output timeline.
type PlacementPlan struct {
	Segments   []PlacedSegment
	TotalDrift float64 // summed seconds segments were pushed past their original start
	Overflows  int     // count of segments that overflowed their slot
}

// LastPlacedEnd returns the end of the latest placed segment, or 0 when
// nothing was placed.
func (p *PlacementPlan) LastPlacedEnd() float64 {
	var result float64
	for _, ps := range p.Segments {
		if !ps.Skipped && ps.PlacedEnd > result {
			result = ps.PlacedEnd
		}
	}
	return result
}

// Place reconciles and schedules all segments. It is a pure fold over
// the ordered sequence carrying a single cursor: a segment whose original
// start is still ahead of the cursor is placed on time, otherwise it is
// placed at the cursor and the delay cascades. Failed segments are
// skipped without moving the cursor. The returned plan is strictly
// non-overlapping; a detected overlap is an internal defect.
func Place(ctx context.Context, segments []*Segment, policy Policy) (PlacementPlan, *log.Status) {
	var plan PlacementPlan
	cursor := 0.0
	for i, seg := range segments {
		if !seg.IsEnriched() {
			plan.Segments = append(plan.Segments, PlacedSegment{Segment: seg, Skipped: true})
			continue
		}
		nextStart := math.Inf(1)
		if i+1 < len(segments) {
			nextStart = segments[i+1].Start
		}
		rec := Reconcile(seg, nextStart, policy)
		if rec.Action == Overflowed {
			plan.Overflows++
		}
		placedStart := seg.Start
		if cursor > placedStart {
			placedStart = cursor
		}
		placedEnd := placedStart + rec.EffectiveDuration
		plan.TotalDrift += placedStart - seg.Start
		plan.Segments = append(plan.Segments, PlacedSegment{
			Segment:     seg,
			Action:      rec.Action,
			StretchRate: rec.StretchRate,
			PlacedStart: placedStart,
			PlacedEnd:   placedEnd,
		})
		cursor = placedEnd + policy.MinGap
	}
	if status := verify(ctx, plan); status != nil {
		return plan, status
	}
	return plan, nil
}

// verify asserts the non-overlap invariant. It must never fail when the
// fold above is correct.
func verify(ctx context.Context, plan PlacementPlan) *log.Status {
	const epsilon = 1e-9
	prevEnd := math.Inf(-1)
	for _, ps := range plan.Segments {
		if ps.Skipped {
			continue
		}
		if ps.PlacedStart < 0 || ps.PlacedEnd < ps.PlacedStart {
			return log.ErrorNoErr(ctx, 500, "Placement invariant violated: bad span",
				ps.Segment.SegmentNum, ps.PlacedStart, ps.PlacedEnd)
		}
		if ps.PlacedStart < prevEnd-epsilon {
			return log.ErrorNoErr(ctx, 500, "Placement invariant violated: overlap at segment",
				ps.Segment.SegmentNum)
		}
		prevEnd = ps.PlacedEnd
	}
	return nil
}
