package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// SpeakerTurn is one diarized span of a single speaker.
type SpeakerTurn struct {
	Speaker string
	Start   float64 // seconds
	End     float64 // seconds
}

// DiarizeClient labels speaker turns using the AssemblyAI REST API:
// upload the audio, submit a transcript job with speaker_labels, and
// poll until it completes.
type DiarizeClient struct {
	ctx      context.Context
	apiKey   string
	baseURL  string
	client   *http.Client
	pollWait time.Duration
}

func NewDiarizeClient(ctx context.Context) (DiarizeClient, *log.Status) {
	var d DiarizeClient
	d.ctx = ctx
	d.apiKey = os.Getenv(`DUB_ASSEMBLYAI_KEY`)
	if d.apiKey == `` {
		return d, log.ErrorNoErr(ctx, 400, "Environment variable DUB_ASSEMBLYAI_KEY is required for diarization")
	}
	d.baseURL = os.Getenv(`DUB_ASSEMBLYAI_HOST`)
	if d.baseURL == `` {
		d.baseURL = `https://api.assemblyai.com`
	}
	d.client = &http.Client{Timeout: 120 * time.Second}
	d.pollWait = 3 * time.Second
	return d, nil
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
	LanguageCode  string `json:"language_code,omitempty"`
}

type transcriptResponse struct {
	Id         string      `json:"id"`
	Status     string      `json:"status"`
	Error      string      `json:"error"`
	Utterances []utterance `json:"utterances"`
}

type utterance struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"` // milliseconds
	End     float64 `json:"end"`   // milliseconds
}

// Diarize uploads one audio file and returns its speaker turns in
// chronological order.
func (d *DiarizeClient) Diarize(audioPath string, languageCode string) ([]SpeakerTurn, *log.Status) {
	var results []SpeakerTurn
	audioURL, status := d.upload(audioPath)
	if status != nil {
		return results, status
	}
	transcriptId, status := d.submit(audioURL, languageCode)
	if status != nil {
		return results, status
	}
	resp, status := d.poll(transcriptId)
	if status != nil {
		return results, status
	}
	for _, utt := range resp.Utterances {
		results = append(results, SpeakerTurn{
			Speaker: utt.Speaker,
			Start:   utt.Start / 1000.0,
			End:     utt.End / 1000.0,
		})
	}
	return results, nil
}

func (d *DiarizeClient) upload(audioPath string) (string, *log.Status) {
	file, err := os.Open(audioPath)
	if err != nil {
		return ``, log.Error(d.ctx, 500, err, "Error opening audio for upload", audioPath)
	}
	defer file.Close()
	req, err := http.NewRequestWithContext(d.ctx, http.MethodPost, d.baseURL+`/v2/upload`, file)
	if err != nil {
		return ``, log.Error(d.ctx, 500, err, "Error creating upload request")
	}
	req.Header.Set(`authorization`, d.apiKey)
	req.Header.Set(`content-type`, `application/octet-stream`)
	var resp uploadResponse
	status := d.do(req, &resp)
	if status != nil {
		return ``, status
	}
	return resp.UploadURL, nil
}

func (d *DiarizeClient) submit(audioURL string, languageCode string) (string, *log.Status) {
	body, err := json.Marshal(transcriptRequest{
		AudioURL:      audioURL,
		SpeakerLabels: true,
		LanguageCode:  languageCode,
	})
	if err != nil {
		return ``, log.Error(d.ctx, 500, err, "Error marshalling transcript request")
	}
	req, err := http.NewRequestWithContext(d.ctx, http.MethodPost, d.baseURL+`/v2/transcript`, bytes.NewReader(body))
	if err != nil {
		return ``, log.Error(d.ctx, 500, err, "Error creating transcript request")
	}
	req.Header.Set(`authorization`, d.apiKey)
	req.Header.Set(`content-type`, `application/json`)
	var resp transcriptResponse
	status := d.do(req, &resp)
	if status != nil {
		return ``, status
	}
	return resp.Id, nil
}

func (d *DiarizeClient) poll(transcriptId string) (transcriptResponse, *log.Status) {
	var resp transcriptResponse
	for {
		req, err := http.NewRequestWithContext(d.ctx, http.MethodGet, d.baseURL+`/v2/transcript/`+transcriptId, nil)
		if err != nil {
			return resp, log.Error(d.ctx, 500, err, "Error creating poll request")
		}
		req.Header.Set(`authorization`, d.apiKey)
		status := d.do(req, &resp)
		if status != nil {
			return resp, status
		}
		switch resp.Status {
		case `completed`:
			return resp, nil
		case `error`:
			return resp, log.ErrorNoErr(d.ctx, 500, "Diarization failed:", resp.Error)
		}
		select {
		case <-d.ctx.Done():
			return resp, log.Error(d.ctx, 500, d.ctx.Err(), "Diarization cancelled")
		case <-time.After(d.pollWait):
		}
	}
}

func (d *DiarizeClient) do(req *http.Request, result any) *log.Status {
	httpResp, err := d.client.Do(req)
	if err != nil {
		return log.Error(d.ctx, 500, err, "Error calling diarization API", req.URL.Path)
	}
	defer httpResp.Body.Close()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return log.Error(d.ctx, 500, err, "Error reading diarization response")
	}
	if httpResp.StatusCode != http.StatusOK {
		return log.ErrorNoErr(d.ctx, httpResp.StatusCode, "Diarization API error", req.URL.Path, string(body))
	}
	err = json.Unmarshal(body, result)
	if err != nil {
		return log.Error(d.ctx, 500, err, "Error unmarshalling diarization response")
	}
	return nil
}
