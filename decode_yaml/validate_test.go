package decode_yaml

import (
	"context"
	"testing"

	log "github.com/tob-euro/auto-dubbing/logger"
)

const goodRequest = `
job_name: demo run
input_video: data/input/video_3.mp4
target_language: DA
`

func TestDecodeDefaults(t *testing.T) {
	log.SetOutput("stdout")
	decoder := NewRequestDecoder(context.Background())
	req, status := decoder.Process([]byte(goodRequest))
	if status != nil {
		t.Fatal(status)
	}
	if req.JobName != "demo_run" {
		t.Fatalf("expected spaces replaced, got %q", req.JobName)
	}
	if req.Timing.Tolerance != 0.15 {
		t.Fatalf("expected default tolerance 0.15, got %f", req.Timing.Tolerance)
	}
	if req.Timing.MaxStretchRate != 1.5 {
		t.Fatalf("expected default max stretch 1.5, got %f", req.Timing.MaxStretchRate)
	}
	if req.Mix.CrossfadeMs != 50 || req.Mix.DuckDb != -9 {
		t.Fatalf("expected default mix policy, got %+v", req.Mix)
	}
	if req.Enrichment.Workers != 4 || req.Enrichment.Retries != 3 {
		t.Fatalf("expected default enrichment policy, got %+v", req.Enrichment)
	}
	if req.SourceLanguage != "AUTO" {
		t.Fatalf("expected AUTO source language, got %q", req.SourceLanguage)
	}
}

func TestDecodeMissingRequired(t *testing.T) {
	log.SetOutput("stdout")
	decoder := NewRequestDecoder(context.Background())
	_, status := decoder.Process([]byte("job_name: x\n"))
	if status == nil {
		t.Fatal("expected validation failure")
	}
	if status.Status != 400 {
		t.Fatalf("expected 400, got %d", status.Status)
	}
}

func TestDecodeBadTolerance(t *testing.T) {
	log.SetOutput("stdout")
	decoder := NewRequestDecoder(context.Background())
	bad := goodRequest + "timing:\n  tolerance: 1.5\n"
	_, status := decoder.Process([]byte(bad))
	if status == nil {
		t.Fatal("expected validation failure for tolerance 1.5")
	}
}
