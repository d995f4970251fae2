package report

import (
	"context"
	"fmt"

	"github.com/tob-euro/auto-dubbing/mix"
	"github.com/xuri/excelize/v2"

	log "github.com/tob-euro/auto-dubbing/logger"
)

var columnHeaders = []string{`Segment`, `Speaker`, `Action`, `Placed Start`,
	`Placed End`, `Stretch Rate`, `Status`, `Reason`}

// WriteXlsx renders the mix report as a spreadsheet for operators who
// review runs outside the terminal.
func WriteXlsx(ctx context.Context, report mix.MixReport, filePath string) *log.Status {
	file := excelize.NewFile()
	defer file.Close()
	sheet := `Mix Report`
	index, err := file.NewSheet(sheet)
	if err != nil {
		return log.Error(ctx, 500, err, "Error creating sheet in mix report")
	}
	file.SetActiveSheet(index)
	_ = file.DeleteSheet(`Sheet1`)

	for col, header := range columnHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err = file.SetCellValue(sheet, cell, header); err != nil {
			return log.Error(ctx, 500, err, "Error writing header in mix report")
		}
	}
	for row, seg := range report.Segments {
		values := []any{
			seg.SegmentNum,
			seg.SpeakerId,
			seg.Action,
			seg.PlacedStart,
			seg.PlacedEnd,
			seg.StretchRate,
			statusOf(seg),
			seg.FailReason,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err = file.SetCellValue(sheet, cell, value); err != nil {
				return log.Error(ctx, 500, err, "Error writing row in mix report")
			}
		}
	}
	summaryRow := len(report.Segments) + 3
	summary := fmt.Sprintf("Total drift: %.2fs  Overflows: %d  Output: %.2fs",
		report.TotalDriftSeconds, report.Overflows, report.OutputDurationSeconds)
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	if err = file.SetCellValue(sheet, cell, summary); err != nil {
		return log.Error(ctx, 500, err, "Error writing summary in mix report")
	}
	if err = file.SaveAs(filePath); err != nil {
		return log.Error(ctx, 500, err, "Error saving mix report", filePath)
	}
	return nil
}

func statusOf(seg mix.SegmentReport) string {
	if seg.Failed {
		return `degraded`
	}
	if seg.Clipped {
		return `clipped`
	}
	return `ok`
}
