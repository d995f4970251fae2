package transcribe

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tob-euro/auto-dubbing/timeline"
	"github.com/tob-euro/auto-dubbing/utility/stdio_exec"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// WhisperAdapter transcribes the vocals track through a long-lived
// python worker. The model loads once at startup and each request
// transcribes one audio file.
type WhisperAdapter struct {
	ctx   context.Context
	stdio *stdio_exec.StdioExec
}

type whisperRequest struct {
	AudioPath string `json:"audio_path"`
	Language  string `json:"language,omitempty"`
}

type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperResponse struct {
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Error    string           `json:"error"`
}

func NewWhisperAdapter(ctx context.Context) (WhisperAdapter, *log.Status) {
	var w WhisperAdapter
	w.ctx = ctx
	pythonExec := os.Getenv(`DUB_WHISPER_PYTHON`)
	if pythonExec == `` {
		pythonExec = `python3`
	}
	scriptPath := filepath.Join(os.Getenv(`DUB_PROJ`), `transcribe`, `whisper_adapter.py`)
	var status *log.Status
	w.stdio, status = stdio_exec.NewStdioExec(ctx, pythonExec, scriptPath)
	return w, status
}

func (w *WhisperAdapter) Close() {
	if w.stdio != nil {
		w.stdio.Close()
	}
}

// Transcribe returns timed text segments for one audio file. The
// source language may be empty, in which case whisper detects it.
func (w *WhisperAdapter) Transcribe(audioPath string, language string) ([]*timeline.Segment, string, *log.Status) {
	var results []*timeline.Segment
	req := whisperRequest{AudioPath: audioPath, Language: language}
	content, err := json.Marshal(req)
	if err != nil {
		return results, ``, log.Error(w.ctx, 500, err, "Error marshalling whisper request")
	}
	response, status := w.stdio.Process(string(content))
	if status != nil {
		return results, ``, status
	}
	var resp whisperResponse
	err = json.Unmarshal([]byte(response), &resp)
	if err != nil {
		return results, ``, log.Error(w.ctx, 500, err, "Error unmarshalling whisper response", response)
	}
	if resp.Error != `` {
		return results, ``, log.ErrorNoErr(w.ctx, 500, "Whisper transcription failed:", resp.Error)
	}
	for i, ws := range resp.Segments {
		seg := timeline.Segment{
			SegmentNum:   i,
			Start:        ws.Start,
			End:          ws.End,
			OriginalText: ws.Text,
		}
		results = append(results, &seg)
	}
	return results, resp.Language, nil
}
