package synthesize

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tob-euro/auto-dubbing/decode_yaml/request"
	"github.com/tob-euro/auto-dubbing/timeline"
	ffmpeg "github.com/tob-euro/auto-dubbing/utility/ffmpeg"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// Synthesizer produces one dubbed clip per segment: TTS, optional
// voice conversion toward the original speaker, and a final re-encode
// to the mix sample format. The python workers hold single-threaded
// models, so calls are serialized with a mutex even when the
// enrichment pool fans out.
type Synthesizer struct {
	ctx        context.Context
	tempDir    string
	tts        TTSAdapter
	vc         *VCAdapter
	vocalsPath string
	req        request.Request
	sampleRate int
	channels   int
	mutex      sync.Mutex
}

func NewSynthesizer(ctx context.Context, req request.Request, tempDir string,
	vocalsPath string, sampleRate int, channels int) (*Synthesizer, *log.Status) {
	var s Synthesizer
	s.ctx = ctx
	s.req = req
	s.tempDir = tempDir
	s.vocalsPath = vocalsPath
	s.sampleRate = sampleRate
	s.channels = channels
	var status *log.Status
	s.tts, status = NewTTSAdapter(ctx)
	if status != nil {
		return &s, status
	}
	if req.VoiceConvert.Enabled {
		vc, status := NewVCAdapter(ctx, req.VoiceConvert.ModelPath, req.VoiceConvert.ConfigPath)
		if status != nil {
			return &s, status
		}
		s.vc = &vc
	}
	return &s, nil
}

func (s *Synthesizer) Close() {
	s.tts.Close()
	if s.vc != nil {
		s.vc.Close()
	}
}

// Synthesize renders the translated text of one segment and returns
// the clip with its measured duration.
func (s *Synthesizer) Synthesize(ctx context.Context, seg *timeline.Segment) (*timeline.AudioClip, *log.Status) {
	if strings.TrimSpace(seg.TranslatedText) == `` {
		return nil, log.ErrorNoErr(ctx, 400, "Segment has no translated text", seg.SegmentNum)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	ttsPath := filepath.Join(s.tempDir, fmt.Sprintf("seg_%04d_tts.wav", seg.SegmentNum))
	clipPath, status := s.tts.Speak(seg.TranslatedText, s.req.TTS.LanguageCode, s.req.TTS.Voice, ttsPath)
	if status != nil {
		return nil, status
	}
	if s.vc != nil {
		clipPath, status = s.convertVoice(ctx, seg, clipPath)
		if status != nil {
			return nil, status
		}
	}
	clipPath, status = ffmpeg.ConvertToWav(ctx, s.tempDir, clipPath, s.sampleRate, s.channels)
	if status != nil {
		return nil, status
	}
	duration, status := ffmpeg.GetAudioDuration(ctx, filepath.Dir(clipPath), filepath.Base(clipPath))
	if status != nil {
		return nil, status
	}
	return &timeline.AudioClip{Path: clipPath, Duration: duration}, nil
}

// convertVoice uses the original speaker's own audio span as the
// reference for conversion.
func (s *Synthesizer) convertVoice(ctx context.Context, seg *timeline.Segment, clipPath string) (string, *log.Status) {
	referencePath, status := ffmpeg.ChopOneSegment(ctx, s.tempDir, s.vocalsPath, seg.Start, seg.End)
	if status != nil {
		return ``, status
	}
	vcPath := filepath.Join(s.tempDir, fmt.Sprintf("seg_%04d_vc.wav", seg.SegmentNum))
	return s.vc.Convert(clipPath, referencePath, s.req.VoiceConvert.F0Method, vcPath)
}
