package zip

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	var sources []string
	for _, name := range []string{"movie_sv_report.json", "movie_sv_report.xlsx"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("content of "+name), 0644); err != nil {
			t.Fatal(err)
		}
		sources = append(sources, path)
	}
	target := filepath.Join(dir, "movie_sv_reports.zip")
	size, err := Archive(target, sources)
	if err != nil {
		t.Fatal(err)
	}
	if size <= 0 {
		t.Fatalf("expected positive archive size, got %d", size)
	}
	reader, err := zip.OpenReader(target)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	if len(reader.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(reader.File))
	}
	for i, name := range []string{"movie_sv_report.json", "movie_sv_report.xlsx"} {
		if reader.File[i].Name != name {
			t.Fatalf("entry %d expected base name %s, got %s", i, name, reader.File[i].Name)
		}
	}
}

func TestArchiveNoSources(t *testing.T) {
	target := filepath.Join(t.TempDir(), "empty.zip")
	if _, err := Archive(target, nil); err == nil {
		t.Fatal("expected error for empty source list")
	}
}
