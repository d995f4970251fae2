package separate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	log "github.com/tob-euro/auto-dubbing/logger"
)

func TestFindStems(t *testing.T) {
	log.SetOutput("stdout")
	ctx := context.Background()
	dir := t.TempDir()
	stemDir := filepath.Join(dir, "mdx_extra_q", "movie")
	if err := os.MkdirAll(stemDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"vocals.wav", "no_vocals.wav"} {
		if err := os.WriteFile(filepath.Join(stemDir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	sep := NewSourceSeparator(ctx, dir)
	vocals, background, status := sep.findStems(dir)
	if status != nil {
		t.Fatal(status)
	}
	if filepath.Base(vocals) != "vocals.wav" {
		t.Fatalf("unexpected vocals path %s", vocals)
	}
	if filepath.Base(background) != "no_vocals.wav" {
		t.Fatalf("unexpected background path %s", background)
	}
}

func TestFindStemsMissing(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	sep := NewSourceSeparator(ctx, dir)
	_, _, status := sep.findStems(dir)
	if status == nil {
		t.Fatal("expected status for empty output dir")
	}
	if status.Status != 500 {
		t.Fatalf("expected 500, got %d", status.Status)
	}
}
