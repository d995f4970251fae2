package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tob-euro/auto-dubbing/decode_yaml/request"
	"github.com/tob-euro/auto-dubbing/timeline"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// Translator turns source text into target language text.
type Translator interface {
	Translate(ctx context.Context, text string, sourceLang string, targetLang string) (string, *log.Status)
}

// ClipSynthesizer renders one segment's translated text to audio.
type ClipSynthesizer interface {
	Synthesize(ctx context.Context, seg *timeline.Segment) (*timeline.AudioClip, *log.Status)
}

// EnrichSegments translates and synthesizes every segment through a
// bounded worker pool. Each external call gets its own timeout and is
// retried with exponential backoff; a segment whose calls exhaust
// their retries is marked failed and the rest of the run continues.
// Caller errors (4xx) are not retried, the input will not improve.
func EnrichSegments(ctx context.Context, segments []*timeline.Segment,
	translator Translator, synth ClipSynthesizer, pol request.Enrichment,
	sourceLang string, targetLang string) {

	workers := pol.Workers
	if workers < 1 {
		workers = 1
	}
	timeout := time.Duration(pol.TimeoutSec) * time.Second
	work := make(chan *timeline.Segment)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seg := range work {
				enrichOne(ctx, seg, translator, synth, pol.Retries, timeout, sourceLang, targetLang)
			}
		}()
	}
	for _, seg := range segments {
		if seg.Failed {
			continue
		}
		work <- seg
	}
	close(work)
	wg.Wait()
}

func enrichOne(ctx context.Context, seg *timeline.Segment,
	translator Translator, synth ClipSynthesizer, retries int,
	timeout time.Duration, sourceLang string, targetLang string) {

	status := callWithRetry(ctx, retries, timeout, func(callCtx context.Context) *log.Status {
		text, status := translator.Translate(callCtx, seg.OriginalText, sourceLang, targetLang)
		if status != nil {
			return status
		}
		seg.TranslatedText = text
		return nil
	})
	if status != nil {
		seg.MarkFailed(fmt.Sprintf("TranslationError: %s", status.Message))
		log.Warn(ctx, "Segment", seg.SegmentNum, "failed translation, continuing without it")
		return
	}

	status = callWithRetry(ctx, retries, timeout, func(callCtx context.Context) *log.Status {
		clip, status := synth.Synthesize(callCtx, seg)
		if status != nil {
			return status
		}
		seg.Dubbed = clip
		return nil
	})
	if status != nil {
		seg.MarkFailed(fmt.Sprintf("SynthesisError: %s", status.Message))
		log.Warn(ctx, "Segment", seg.SegmentNum, "failed synthesis, continuing without it")
	}
}

func callWithRetry(ctx context.Context, retries int, timeout time.Duration,
	fn func(context.Context) *log.Status) *log.Status {

	backoff := 500 * time.Millisecond
	var status *log.Status
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return log.Error(ctx, 500, ctx.Err(), "Enrichment cancelled")
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		status = fn(callCtx)
		cancel()
		if status == nil {
			return nil
		}
		if status.Status >= 400 && status.Status < 500 {
			return status
		}
	}
	return status
}
