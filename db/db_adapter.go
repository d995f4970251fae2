package db

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/mattn/go-sqlite3"

	log "github.com/tob-euro/auto-dubbing/logger"
	"github.com/tob-euro/auto-dubbing/mix"
	"github.com/tob-euro/auto-dubbing/timeline"
)

// DBAdapter records one dub run in a sqlite database so that an
// operator can inspect segments, placements, and the mix report after
// the fact. The pipeline works in memory; persistence is write-through.
type DBAdapter struct {
	ctx          context.Context
	DB           *sql.DB
	DatabasePath string
}

func NewDBAdapter(ctx context.Context, databasePath string) (DBAdapter, *log.Status) {
	var d DBAdapter
	d.ctx = ctx
	d.DatabasePath = databasePath
	var err error
	d.DB, err = sql.Open("sqlite3", databasePath)
	if err != nil {
		return d, log.Error(ctx, 500, err, "Error opening database", databasePath)
	}
	status := d.createTables()
	return d, status
}

func (d *DBAdapter) Close() {
	if d.DB != nil {
		_ = d.DB.Close()
	}
}

// DeleteDatabase removes an existing run database so a rerun starts clean.
func DeleteDatabase(databasePath string) {
	_, err := os.Stat(databasePath)
	if !os.IsNotExist(err) {
		_ = os.Remove(databasePath)
	}
}

func (d *DBAdapter) createTables() *log.Status {
	query := `CREATE TABLE IF NOT EXISTS segments (
		segment_num INTEGER PRIMARY KEY,
		start_ts REAL NOT NULL,
		end_ts REAL NOT NULL,
		speaker_id TEXT NOT NULL,
		original_text TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		audio_file TEXT NOT NULL,
		audio_duration REAL NOT NULL,
		failed INTEGER NOT NULL,
		fail_reason TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS placements (
		segment_num INTEGER PRIMARY KEY,
		action TEXT NOT NULL,
		stretch_rate REAL NOT NULL,
		placed_start REAL NOT NULL,
		placed_end REAL NOT NULL,
		skipped INTEGER NOT NULL);
	CREATE TABLE IF NOT EXISTS mix_summary (
		run_id INTEGER PRIMARY KEY,
		total_drift REAL NOT NULL,
		overflows INTEGER NOT NULL,
		output_duration REAL NOT NULL);`
	_, err := d.DB.Exec(query)
	if err != nil {
		return log.Error(d.ctx, 500, err, "Error creating tables", d.DatabasePath)
	}
	return nil
}

// ReplaceSegments writes the current state of the segment sequence,
// called after each enrichment stage completes.
func (d *DBAdapter) ReplaceSegments(segments []*timeline.Segment) *log.Status {
	tx, err := d.DB.Begin()
	if err != nil {
		return log.Error(d.ctx, 500, err, "Error beginning transaction in ReplaceSegments")
	}
	_, err = tx.Exec(`DELETE FROM segments`)
	if err != nil {
		_ = tx.Rollback()
		return log.Error(d.ctx, 500, err, "Error clearing segments")
	}
	query := `INSERT INTO segments (segment_num, start_ts, end_ts, speaker_id,
		original_text, translated_text, audio_file, audio_duration, failed, fail_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return log.Error(d.ctx, 500, err, "Error preparing insert in ReplaceSegments")
	}
	defer stmt.Close()
	for _, seg := range segments {
		audioFile := ``
		audioDuration := 0.0
		if seg.Dubbed != nil {
			audioFile = seg.Dubbed.Path
			audioDuration = seg.Dubbed.Duration
		}
		_, err = stmt.Exec(seg.SegmentNum, seg.Start, seg.End, seg.SpeakerId,
			seg.OriginalText, seg.TranslatedText, audioFile, audioDuration,
			seg.Failed, seg.FailReason)
		if err != nil {
			_ = tx.Rollback()
			return log.Error(d.ctx, 500, err, "Error inserting segment", seg.SegmentNum)
		}
	}
	err = tx.Commit()
	if err != nil {
		return log.Error(d.ctx, 500, err, "Error committing segments")
	}
	return nil
}

// InsertPlacements stores the placement plan.
func (d *DBAdapter) InsertPlacements(plan timeline.PlacementPlan) *log.Status {
	tx, err := d.DB.Begin()
	if err != nil {
		return log.Error(d.ctx, 500, err, "Error beginning transaction in InsertPlacements")
	}
	_, err = tx.Exec(`DELETE FROM placements`)
	if err != nil {
		_ = tx.Rollback()
		return log.Error(d.ctx, 500, err, "Error clearing placements")
	}
	query := `INSERT INTO placements (segment_num, action, stretch_rate,
		placed_start, placed_end, skipped) VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return log.Error(d.ctx, 500, err, "Error preparing insert in InsertPlacements")
	}
	defer stmt.Close()
	for _, ps := range plan.Segments {
		_, err = stmt.Exec(ps.Segment.SegmentNum, string(ps.Action), ps.StretchRate,
			ps.PlacedStart, ps.PlacedEnd, ps.Skipped)
		if err != nil {
			_ = tx.Rollback()
			return log.Error(d.ctx, 500, err, "Error inserting placement", ps.Segment.SegmentNum)
		}
	}
	err = tx.Commit()
	if err != nil {
		return log.Error(d.ctx, 500, err, "Error committing placements")
	}
	return nil
}

// InsertMixSummary stores the render totals.
func (d *DBAdapter) InsertMixSummary(report mix.MixReport) *log.Status {
	query := `INSERT OR REPLACE INTO mix_summary (run_id, total_drift, overflows, output_duration)
		VALUES (1, ?, ?, ?)`
	_, err := d.DB.Exec(query, report.TotalDriftSeconds, report.Overflows, report.OutputDurationSeconds)
	if err != nil {
		return log.Error(d.ctx, 500, err, "Error inserting mix summary")
	}
	return nil
}

// SelectSegments reads back the stored segment sequence.
func (d *DBAdapter) SelectSegments() ([]*timeline.Segment, *log.Status) {
	var results []*timeline.Segment
	query := `SELECT segment_num, start_ts, end_ts, speaker_id, original_text,
		translated_text, audio_file, audio_duration, failed, fail_reason
		FROM segments ORDER BY segment_num`
	rows, err := d.DB.Query(query)
	if err != nil {
		return results, log.Error(d.ctx, 500, err, "Error reading rows in SelectSegments")
	}
	defer rows.Close()
	for rows.Next() {
		var seg timeline.Segment
		var audioFile string
		var audioDuration float64
		err = rows.Scan(&seg.SegmentNum, &seg.Start, &seg.End, &seg.SpeakerId,
			&seg.OriginalText, &seg.TranslatedText, &audioFile, &audioDuration,
			&seg.Failed, &seg.FailReason)
		if err != nil {
			return results, log.Error(d.ctx, 500, err, "Error scanning in SelectSegments")
		}
		if audioFile != `` {
			seg.Dubbed = &timeline.AudioClip{Path: audioFile, Duration: audioDuration}
		}
		results = append(results, &seg)
	}
	err = rows.Err()
	if err != nil {
		return results, log.Error(d.ctx, 500, err, "Error at end of rows in SelectSegments")
	}
	return results, nil
}
