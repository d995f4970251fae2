package synthesize

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tob-euro/auto-dubbing/utility/stdio_exec"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// TTSAdapter synthesizes speech through a long-lived python worker so
// the TTS model loads once per run. One request produces one wav file.
type TTSAdapter struct {
	ctx   context.Context
	stdio *stdio_exec.StdioExec
}

type ttsRequest struct {
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
	Voice        string `json:"voice,omitempty"`
	OutputPath   string `json:"output_path"`
}

type ttsResponse struct {
	OutputPath string `json:"output_path"`
	Error      string `json:"error"`
}

func NewTTSAdapter(ctx context.Context) (TTSAdapter, *log.Status) {
	var t TTSAdapter
	t.ctx = ctx
	pythonExec := os.Getenv(`DUB_TTS_PYTHON`)
	if pythonExec == `` {
		pythonExec = `python3`
	}
	scriptPath := filepath.Join(os.Getenv(`DUB_PROJ`), `synthesize`, `tts_adapter.py`)
	var status *log.Status
	t.stdio, status = stdio_exec.NewStdioExec(ctx, pythonExec, scriptPath)
	return t, status
}

func (t *TTSAdapter) Close() {
	if t.stdio != nil {
		t.stdio.Close()
	}
}

// Speak renders one text to a wav file at outputPath.
func (t *TTSAdapter) Speak(text string, languageCode string, voice string, outputPath string) (string, *log.Status) {
	req := ttsRequest{Text: text, LanguageCode: languageCode, Voice: voice, OutputPath: outputPath}
	content, err := json.Marshal(req)
	if err != nil {
		return ``, log.Error(t.ctx, 500, err, "Error marshalling TTS request")
	}
	response, status := t.stdio.Process(string(content))
	if status != nil {
		return ``, status
	}
	var resp ttsResponse
	err = json.Unmarshal([]byte(response), &resp)
	if err != nil {
		return ``, log.Error(t.ctx, 500, err, "Error unmarshalling TTS response", response)
	}
	if resp.Error != `` {
		return ``, log.ErrorNoErr(t.ctx, 500, "TTS synthesis failed:", resp.Error)
	}
	return resp.OutputPath, nil
}
