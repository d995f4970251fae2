package decode_yaml

import (
	"strings"

	"github.com/tob-euro/auto-dubbing/decode_yaml/request"
)

func (r *RequestDecoder) Validate(req *request.Request) {
	r.checkRequired(req)
	r.checkTiming(&req.Timing)
	r.checkMix(&req.Mix)
	r.checkEnrichment(&req.Enrichment)
	r.checkVoiceConvert(&req.VoiceConvert)
}

func (r *RequestDecoder) checkRequired(req *request.Request) {
	if req.JobName == `` {
		r.errors = append(r.errors, `Required field job_name: is empty`)
	}
	if req.InputVideo == `` {
		r.errors = append(r.errors, `Required field input_video: is empty`)
	}
	if req.TargetLanguage == `` {
		r.errors = append(r.errors, `Required field target_language: is empty`)
	}
	req.JobName = strings.Replace(req.JobName, ` `, `_`, -1)
	if req.SourceLanguage == `` {
		req.SourceLanguage = `AUTO`
	}
	if req.ProcessedDir == `` {
		req.ProcessedDir = `data/processed`
	}
	if req.OutputDir == `` {
		req.OutputDir = `data/output`
	}
}

func (r *RequestDecoder) checkTiming(req *request.Timing) {
	if req.Tolerance == 0 {
		req.Tolerance = 0.15
	}
	if req.Tolerance < 0 || req.Tolerance >= 1 {
		r.errors = append(r.errors, `timing.tolerance: must be in [0, 1)`)
	}
	if req.MinGap < 0 {
		r.errors = append(r.errors, `timing.min_gap: must not be negative`)
	}
	if req.MaxStretchRate == 0 {
		req.MaxStretchRate = 1.5
	}
	if req.MaxStretchRate < 1 {
		r.errors = append(r.errors, `timing.max_stretch_rate: must be at least 1`)
	}
}

func (r *RequestDecoder) checkMix(req *request.Mix) {
	if req.CrossfadeMs == 0 {
		req.CrossfadeMs = 50
	}
	if req.CrossfadeMs < 0 || req.CrossfadeMs > 200 {
		r.errors = append(r.errors, `mix.crossfade_ms: must be in [0, 200]`)
	}
	if req.DuckDb == 0 {
		req.DuckDb = -9
	}
	if req.DuckDb > 0 {
		r.errors = append(r.errors, `mix.duck_db: must not be positive`)
	}
}

func (r *RequestDecoder) checkEnrichment(req *request.Enrichment) {
	if req.Workers == 0 {
		req.Workers = 4
	}
	if req.Workers < 1 {
		r.errors = append(r.errors, `enrichment.workers: must be at least 1`)
	}
	if req.Retries == 0 {
		req.Retries = 3
	}
	if req.Retries < 1 {
		r.errors = append(r.errors, `enrichment.retries: must be at least 1`)
	}
	if req.TimeoutSec == 0 {
		req.TimeoutSec = 120
	}
}

func (r *RequestDecoder) checkVoiceConvert(req *request.VoiceConvert) {
	if req.Enabled && req.ModelPath == `` {
		r.errors = append(r.errors, `voice_conversion.model_path: is required when enabled`)
	}
}
