package cleanup

import (
	"context"
	"os"
	"path/filepath"
	"time"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// CleanupWorkDirectories removes stale run directories. Separated
// stems and per-segment clips are large and a finished run no longer
// needs them.
func CleanupWorkDirectories(ctx context.Context) {
	processedDir := os.Getenv("DUB_PROCESSED_DIR")
	maxAge := 3 * 24 * time.Hour // 3 days
	_ = CleanupDirectory(ctx, processedDir, maxAge)
	tmpDir := os.Getenv("DUB_TMP")
	_ = CleanupDirectory(ctx, tmpDir, maxAge)
}

func CleanupDirectory(ctx context.Context, directory string, maxAge time.Duration) *log.Status {
	now := time.Now()
	count := 0
	entries, err := os.ReadDir(directory)
	if err != nil {
		return log.Error(ctx, 500, err, "Error reading directory", directory)
	}
	for _, entry := range entries {
		dirPath := filepath.Join(directory, entry.Name())
		var info os.FileInfo
		info, err = os.Stat(dirPath)
		if err != nil {
			log.Warn(ctx, "Unable to stat directory", dirPath, err)
			continue
		}
		if now.Sub(info.ModTime()) > maxAge {
			err = os.RemoveAll(dirPath)
			if err != nil {
				log.Warn(ctx, "Unable to remove directory", dirPath, err)
				continue
			}
			count++
		}
	}
	log.Info(ctx, "Removed from directory", directory, count)
	return nil
}
