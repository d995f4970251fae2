package synthesize

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tob-euro/auto-dubbing/utility/stdio_exec"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// VCAdapter converts TTS output toward the original speaker's voice
// through a long-lived python worker holding the conversion model.
type VCAdapter struct {
	ctx   context.Context
	stdio *stdio_exec.StdioExec
}

type vcRequest struct {
	SourcePath    string `json:"source_path"`
	ReferencePath string `json:"reference_path"`
	F0Method      string `json:"f0_method,omitempty"`
	OutputPath    string `json:"output_path"`
}

type vcResponse struct {
	OutputPath string `json:"output_path"`
	Error      string `json:"error"`
}

func NewVCAdapter(ctx context.Context, modelPath string, configPath string) (VCAdapter, *log.Status) {
	var v VCAdapter
	v.ctx = ctx
	pythonExec := os.Getenv(`DUB_VC_PYTHON`)
	if pythonExec == `` {
		pythonExec = `python3`
	}
	scriptPath := filepath.Join(os.Getenv(`DUB_PROJ`), `synthesize`, `vc_adapter.py`)
	var status *log.Status
	v.stdio, status = stdio_exec.NewStdioExec(ctx, pythonExec, scriptPath,
		`--model`, modelPath, `--config`, configPath)
	return v, status
}

func (v *VCAdapter) Close() {
	if v.stdio != nil {
		v.stdio.Close()
	}
}

// Convert renders sourcePath in the voice of referencePath.
func (v *VCAdapter) Convert(sourcePath string, referencePath string, f0Method string, outputPath string) (string, *log.Status) {
	req := vcRequest{SourcePath: sourcePath, ReferencePath: referencePath,
		F0Method: f0Method, OutputPath: outputPath}
	content, err := json.Marshal(req)
	if err != nil {
		return ``, log.Error(v.ctx, 500, err, "Error marshalling voice conversion request")
	}
	response, status := v.stdio.Process(string(content))
	if status != nil {
		return ``, status
	}
	var resp vcResponse
	err = json.Unmarshal([]byte(response), &resp)
	if err != nil {
		return ``, log.Error(v.ctx, 500, err, "Error unmarshalling voice conversion response", response)
	}
	if resp.Error != `` {
		return ``, log.ErrorNoErr(v.ctx, 500, "Voice conversion failed:", resp.Error)
	}
	return resp.OutputPath, nil
}
