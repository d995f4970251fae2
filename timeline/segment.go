package timeline

// AudioClip is a reference to a rendered audio file and its intrinsic
// duration in seconds.
type AudioClip struct {
	Path     string
	Duration float64
}

// Segment is one diarized utterance. It is created by transcription,
// enriched in place by translation and synthesis, and consumed read-only
// by reconciliation, placement, and mixing. Segments are never removed
// from the sequence; a failed segment is marked and skipped downstream.
type Segment struct {
	SegmentNum     int     // position in the transcript, for diagnostics
	Start          float64 // original-timeline seconds
	End            float64
	SpeakerId      string
	OriginalText   string
	TranslatedText string
	Dubbed         *AudioClip
	Failed         bool
	FailReason     string
}

// SlotDuration is the length of the segment's original time slot.
func (s *Segment) SlotDuration() float64 {
	return s.End - s.Start
}

// IsEnriched reports whether the segment has dubbed audio and can be
// placed on the output timeline.
func (s *Segment) IsEnriched() bool {
	return !s.Failed && s.Dubbed != nil && s.Dubbed.Duration > 0
}

// MarkFailed records an enrichment failure. The segment stays in the
// sequence so that its original slot is preserved as background-only.
func (s *Segment) MarkFailed(reason string) {
	s.Failed = true
	s.FailReason = reason
}
