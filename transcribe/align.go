package transcribe

import (
	"strings"

	"github.com/tob-euro/auto-dubbing/timeline"
)

// AssignSpeakers labels each transcript segment with the diarized
// speaker whose turn overlaps it the most. A segment no turn touches
// inherits the previous segment's speaker, since short interjections
// usually belong to whoever was already talking.
func AssignSpeakers(segments []*timeline.Segment, turns []SpeakerTurn) {
	previous := `A`
	for _, seg := range segments {
		best := ``
		bestOverlap := 0.0
		for _, turn := range turns {
			overlap := overlapSeconds(seg.Start, seg.End, turn.Start, turn.End)
			if overlap > bestOverlap {
				bestOverlap = overlap
				best = turn.Speaker
			}
		}
		if best == `` {
			best = previous
		}
		seg.SpeakerId = best
		previous = best
	}
}

func overlapSeconds(aStart, aEnd, bStart, bEnd float64) float64 {
	start := aStart
	if bStart > start {
		start = bStart
	}
	end := aEnd
	if bEnd < end {
		end = bEnd
	}
	if end <= start {
		return 0
	}
	return end - start
}

// MergeAdjacent joins consecutive segments of the same speaker whose
// gap is at most maxGap seconds. Short whisper segments make poor TTS
// input; merged sentences synthesize with far better prosody. Segment
// numbers are reassigned after merging.
func MergeAdjacent(segments []*timeline.Segment, maxGap float64) []*timeline.Segment {
	var results []*timeline.Segment
	for _, seg := range segments {
		if len(results) > 0 {
			last := results[len(results)-1]
			if last.SpeakerId == seg.SpeakerId && seg.Start-last.End <= maxGap {
				last.End = seg.End
				last.OriginalText = strings.TrimSpace(last.OriginalText + ` ` + strings.TrimSpace(seg.OriginalText))
				continue
			}
		}
		copied := *seg
		copied.OriginalText = strings.TrimSpace(copied.OriginalText)
		results = append(results, &copied)
	}
	for i, seg := range results {
		seg.SegmentNum = i
	}
	return results
}
