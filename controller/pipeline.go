package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tob-euro/auto-dubbing/courier"
	"github.com/tob-euro/auto-dubbing/db"
	"github.com/tob-euro/auto-dubbing/decode_yaml/request"
	"github.com/tob-euro/auto-dubbing/mix"
	"github.com/tob-euro/auto-dubbing/mux"
	"github.com/tob-euro/auto-dubbing/report"
	"github.com/tob-euro/auto-dubbing/separate"
	"github.com/tob-euro/auto-dubbing/synthesize"
	"github.com/tob-euro/auto-dubbing/timeline"
	"github.com/tob-euro/auto-dubbing/transcribe"
	"github.com/tob-euro/auto-dubbing/translate"
	ffmpeg "github.com/tob-euro/auto-dubbing/utility/ffmpeg"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// maxMergeGap is the largest silence in seconds across which adjacent
// same-speaker transcript segments are joined before translation.
const maxMergeGap = 1.0

// stretchSlopSeconds is how far atempo output may overrun the planned
// span before it gets trimmed.
const stretchSlopSeconds = 0.01

// DubRun carries the state of one dub run from stage to stage. Each
// stage reads what it needs and fills in its results; nothing is
// passed through hidden globals.
type DubRun struct {
	Req            request.Request
	ProcessedDir   string
	OutputDir      string
	TempDir        string
	AudioPath      string
	VocalsPath     string
	BackgroundPath string
	Background     *mix.Track
	SourceLanguage string
	Segments       []*timeline.Segment
	Plan           timeline.PlacementPlan
	Output         *mix.Track
	Report         mix.MixReport
	OutputAudio    string
	OutputVideo    string
	ReportJson     string
	ReportXlsx     string
}

// Pipeline runs a complete dub: separate, transcribe, diarize,
// translate, synthesize, place, mix, remux, deliver.
type Pipeline struct {
	ctx  context.Context
	req  request.Request
	conn *db.DBAdapter
}

func NewPipeline(ctx context.Context, req request.Request) Pipeline {
	return Pipeline{ctx: ctx, req: req}
}

// Process executes the run. Track-level failures abort; per-segment
// failures degrade that segment to background-only and continue.
func (p *Pipeline) Process() (*DubRun, *log.Status) {
	run := &DubRun{Req: p.req}
	status := p.prepare(run)
	if status != nil {
		return run, status
	}
	defer p.closeDatabase()
	status = p.separateStage(run)
	if status != nil {
		return run, status
	}
	status = p.transcribeStage(run)
	if status != nil {
		return run, status
	}
	status = p.enrichStage(run)
	if status != nil {
		return run, status
	}
	status = p.renderStage(run)
	if status != nil {
		return run, status
	}
	status = p.remuxStage(run)
	if status != nil {
		return run, status
	}
	p.deliverStage(run)
	return run, nil
}

func (p *Pipeline) prepare(run *DubRun) *log.Status {
	run.ProcessedDir = filepath.Join(p.req.ProcessedDir, p.req.JobName)
	run.OutputDir = filepath.Join(p.req.OutputDir, p.req.JobName)
	run.TempDir = filepath.Join(run.ProcessedDir, `clips`)
	for _, dir := range []string{run.ProcessedDir, run.OutputDir, run.TempDir} {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return log.Error(p.ctx, 500, err, "Error creating directory", dir)
		}
	}
	if p.req.Persist.Database != `` {
		db.DeleteDatabase(p.req.Persist.Database)
		conn, status := db.NewDBAdapter(p.ctx, p.req.Persist.Database)
		if status != nil {
			return status
		}
		p.conn = &conn
	}
	return nil
}

func (p *Pipeline) closeDatabase() {
	if p.conn != nil {
		p.conn.Close()
	}
}

func (p *Pipeline) separateStage(run *DubRun) *log.Status {
	log.Info(p.ctx, "Extracting and separating audio for", p.req.JobName)
	sep := separate.NewSourceSeparator(p.ctx, run.ProcessedDir)
	var status *log.Status
	run.AudioPath, status = sep.ExtractAudio(p.req.InputVideo)
	if status != nil {
		return status
	}
	tracks, status := sep.Separate(run.AudioPath)
	if status != nil {
		return status
	}
	run.VocalsPath = tracks.VocalsPath
	run.BackgroundPath = tracks.BackgroundPath
	run.Background, status = mix.LoadTrack(p.ctx, run.BackgroundPath)
	return status
}

func (p *Pipeline) transcribeStage(run *DubRun) *log.Status {
	log.Info(p.ctx, "Transcribing vocals for", p.req.JobName)
	whisper, status := transcribe.NewWhisperAdapter(p.ctx)
	if status != nil {
		return status
	}
	defer whisper.Close()
	language := p.req.SourceLanguage
	if strings.EqualFold(language, `AUTO`) {
		language = ``
	}
	segments, detected, status := whisper.Transcribe(run.VocalsPath, language)
	if status != nil {
		return status
	}
	if len(segments) == 0 {
		return log.ErrorNoErr(p.ctx, 400, "Transcription found no speech in", run.VocalsPath)
	}
	run.SourceLanguage = detected
	if language != `` {
		run.SourceLanguage = language
	}

	if os.Getenv(`DUB_ASSEMBLYAI_KEY`) != `` {
		diarizer, status := transcribe.NewDiarizeClient(p.ctx)
		if status != nil {
			return status
		}
		turns, status := diarizer.Diarize(run.VocalsPath, run.SourceLanguage)
		if status != nil {
			return status
		}
		transcribe.AssignSpeakers(segments, turns)
	} else {
		log.Warn(p.ctx, "DUB_ASSEMBLYAI_KEY not set, treating all speech as one speaker")
		transcribe.AssignSpeakers(segments, nil)
	}
	run.Segments = transcribe.MergeAdjacent(segments, maxMergeGap)
	log.Info(p.ctx, "Transcription produced", len(run.Segments), "segments")
	return p.persistSegments(run)
}

func (p *Pipeline) enrichStage(run *DubRun) *log.Status {
	log.Info(p.ctx, "Translating and synthesizing", len(run.Segments), "segments")
	translator, status := translate.NewDeepLTranslator(p.ctx)
	if status != nil {
		return status
	}
	synth, status := synthesize.NewSynthesizer(p.ctx, p.req, run.TempDir,
		run.VocalsPath, run.Background.SampleRate, run.Background.Channels)
	if status != nil {
		return status
	}
	defer synth.Close()
	EnrichSegments(p.ctx, run.Segments, &translator, synth, p.req.Enrichment,
		run.SourceLanguage, p.req.TargetLanguage)
	enriched := 0
	for _, seg := range run.Segments {
		if seg.IsEnriched() {
			enriched++
		}
	}
	if enriched == 0 {
		return log.ErrorNoErr(p.ctx, 500, "Every segment failed enrichment, nothing to mix")
	}
	return p.persistSegments(run)
}

// renderStage is the strictly sequential half of the run: placement is
// a fold over ordered segments and cannot fan out.
func (p *Pipeline) renderStage(run *DubRun) *log.Status {
	policy := timeline.Policy{
		Tolerance:      p.req.Timing.Tolerance,
		MinGap:         p.req.Timing.MinGap,
		MaxStretchRate: p.req.Timing.MaxStretchRate,
	}
	var status *log.Status
	run.Plan, status = timeline.Place(p.ctx, run.Segments, policy)
	if status != nil {
		return status
	}
	p.applyStretches(run)
	if p.conn != nil {
		if status = p.conn.InsertPlacements(run.Plan); status != nil {
			return status
		}
	}
	mixer := mix.NewMixer(p.ctx, mix.MixPolicy{
		CrossfadeMs:      p.req.Mix.CrossfadeMs,
		DuckDb:           p.req.Mix.DuckDb,
		ForegroundGainDb: p.req.Mix.ForegroundGainDb,
		BackgroundGainDb: p.req.Mix.BackgroundGainDb,
	})
	run.Output, run.Report, status = mixer.Render(run.Background, run.Plan)
	if status != nil {
		return status
	}
	return p.saveOutputs(run)
}

// applyStretches executes the time compression the reconciler decided.
// A clip whose compression fails would overrun its span, so that
// segment degrades to background-only instead. atempo does not land
// exactly on the requested length, so the output is measured and
// trimmed when it runs past the span.
func (p *Pipeline) applyStretches(run *DubRun) {
	for i := range run.Plan.Segments {
		ps := &run.Plan.Segments[i]
		if ps.Skipped || ps.Action != timeline.Stretched {
			continue
		}
		span := ps.PlacedEnd - ps.PlacedStart
		path, status := ffmpeg.TimeCompress(p.ctx, run.TempDir, ps.Segment.Dubbed.Path, ps.StretchRate)
		if status != nil {
			log.Warn(p.ctx, "Segment", ps.Segment.SegmentNum, "stretch failed, excluding from mix")
			ps.Segment.MarkFailed("SynthesisError: time compression failed")
			ps.Skipped = true
			continue
		}
		duration, status := ffmpeg.GetAudioDuration(p.ctx, filepath.Dir(path), filepath.Base(path))
		if status != nil {
			log.Warn(p.ctx, "Segment", ps.Segment.SegmentNum, "stretched clip not measurable, assuming planned length")
			duration = span
		}
		if duration > span+stretchSlopSeconds {
			log.Warn(p.ctx, "Segment", ps.Segment.SegmentNum,
				fmt.Sprintf("stretched clip runs %.3fs past its span, trimming", duration-span))
			trimmed, status2 := ffmpeg.ChopOneSegment(p.ctx, run.TempDir, path, 0, span)
			if status2 == nil {
				path = trimmed
				duration = span
			}
		}
		ps.Segment.Dubbed.Path = path
		ps.Segment.Dubbed.Duration = duration
	}
}

func (p *Pipeline) saveOutputs(run *DubRun) *log.Status {
	run.OutputAudio = filepath.Join(run.OutputDir, p.req.JobName+`_dubbed.wav`)
	status := run.Output.Save(p.ctx, run.OutputAudio)
	if status != nil {
		return status
	}
	run.ReportJson = filepath.Join(run.OutputDir, p.req.JobName+`_report.json`)
	status = run.Report.Save(p.ctx, run.ReportJson)
	if status != nil {
		return status
	}
	run.ReportXlsx = filepath.Join(run.OutputDir, p.req.JobName+`_report.xlsx`)
	status = report.WriteXlsx(p.ctx, run.Report, run.ReportXlsx)
	if status != nil {
		return status
	}
	if p.conn != nil {
		if status = p.conn.InsertMixSummary(run.Report); status != nil {
			return status
		}
	}
	failed := run.Report.FailedSegments()
	log.Info(p.ctx, fmt.Sprintf("Render complete: %d segments, %d degraded, drift %.2fs",
		len(run.Report.Segments), len(failed), run.Report.TotalDriftSeconds))
	return nil
}

func (p *Pipeline) remuxStage(run *DubRun) *log.Status {
	run.OutputVideo = filepath.Join(run.OutputDir, p.req.JobName+`_dubbed.mp4`)
	return mux.RemuxVideo(p.ctx, p.req.InputVideo, run.OutputAudio, run.OutputVideo)
}

// deliverStage uploads and notifies. Failures here are warnings; the
// render already succeeded and its artifacts are on disk.
func (p *Pipeline) deliverStage(run *DubRun) {
	c := courier.NewCourier(p.ctx, p.req)
	c.AddOutput(run.OutputVideo)
	c.AddOutput(run.OutputAudio)
	c.AddOutput(run.ReportJson)
	c.AddOutput(run.ReportXlsx)
	c.Deliver(&run.Report)
}

func (p *Pipeline) persistSegments(run *DubRun) *log.Status {
	if p.conn == nil {
		return nil
	}
	return p.conn.ReplaceSegments(run.Segments)
}
