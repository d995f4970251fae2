package mix

import (
	"context"
	"encoding/json"
	"os"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// SegmentReport records what happened to one segment in the render.
type SegmentReport struct {
	SegmentNum  int     `json:"segment_num"`
	SpeakerId   string  `json:"speaker_id"`
	Action      string  `json:"action,omitempty"`
	PlacedStart float64 `json:"placed_start"`
	PlacedEnd   float64 `json:"placed_end"`
	StretchRate float64 `json:"stretch_rate,omitempty"`
	Failed      bool    `json:"failed,omitempty"`
	FailReason  string  `json:"fail_reason,omitempty"`
	Clipped     bool    `json:"clipped,omitempty"`
}

// MixReport is the structured diagnostic result of a render. The
// operator always gets a playable output; this report identifies which
// segments degraded and why.
type MixReport struct {
	Segments              []SegmentReport `json:"segments"`
	TotalDriftSeconds     float64         `json:"total_drift_seconds"`
	Overflows             int             `json:"overflows"`
	OutputDurationSeconds float64         `json:"output_duration_seconds"`
}

// FailedSegments returns the report rows for segments excluded from the
// foreground mix.
func (r *MixReport) FailedSegments() []SegmentReport {
	var result []SegmentReport
	for _, seg := range r.Segments {
		if seg.Failed {
			result = append(result, seg)
		}
	}
	return result
}

// Save writes the report as json.
func (r *MixReport) Save(ctx context.Context, path string) *log.Status {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return log.Error(ctx, 500, err, "Error marshalling mix report")
	}
	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return log.Error(ctx, 500, err, "Error writing mix report", path)
	}
	return nil
}
