package translate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// DeepLTranslator translates segment text through the DeepL REST API.
// The source language may be AUTO, in which case DeepL detects it.
type DeepLTranslator struct {
	ctx     context.Context
	apiKey  string
	baseURL string
	client  *http.Client
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
	Message string `json:"message"`
}

func NewDeepLTranslator(ctx context.Context) (DeepLTranslator, *log.Status) {
	var d DeepLTranslator
	d.ctx = ctx
	d.apiKey = os.Getenv(`DUB_DEEPL_KEY`)
	if d.apiKey == `` {
		return d, log.ErrorNoErr(ctx, 400, "Environment variable DUB_DEEPL_KEY is required for translation")
	}
	d.baseURL = os.Getenv(`DUB_DEEPL_HOST`)
	if d.baseURL == `` {
		d.baseURL = `https://api-free.deepl.com`
	}
	d.client = &http.Client{Timeout: 60 * time.Second}
	return d, nil
}

// Translate returns the target language rendering of one text.
// Empty input is a caller error so the segment can be failed rather
// than sent to the API.
func (d *DeepLTranslator) Translate(ctx context.Context, text string, sourceLang string, targetLang string) (string, *log.Status) {
	if strings.TrimSpace(text) == `` {
		return ``, log.ErrorNoErr(ctx, 400, "Translation input text is empty")
	}
	form := url.Values{}
	form.Set(`text`, text)
	form.Set(`target_lang`, strings.ToUpper(targetLang))
	if sourceLang != `` && !strings.EqualFold(sourceLang, `AUTO`) {
		form.Set(`source_lang`, strings.ToUpper(sourceLang))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+`/v2/translate`, strings.NewReader(form.Encode()))
	if err != nil {
		return ``, log.Error(ctx, 500, err, "Error creating translate request")
	}
	req.Header.Set(`Authorization`, `DeepL-Auth-Key `+d.apiKey)
	req.Header.Set(`Content-Type`, `application/x-www-form-urlencoded`)
	httpResp, err := d.client.Do(req)
	if err != nil {
		return ``, log.Error(ctx, 500, err, "Error calling translation API")
	}
	defer httpResp.Body.Close()
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return ``, log.Error(ctx, 500, err, "Error reading translation response")
	}
	if httpResp.StatusCode != http.StatusOK {
		return ``, log.ErrorNoErr(ctx, httpResp.StatusCode, "Translation API error", string(body))
	}
	var resp deeplResponse
	err = json.Unmarshal(body, &resp)
	if err != nil {
		return ``, log.Error(ctx, 500, err, "Error unmarshalling translation response")
	}
	if len(resp.Translations) == 0 {
		return ``, log.ErrorNoErr(ctx, 500, "Translation API returned no translations")
	}
	return resp.Translations[0].Text, nil
}
