package decode_yaml

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/tob-euro/auto-dubbing/decode_yaml/request"
	log "github.com/tob-euro/auto-dubbing/logger"
)

type RequestDecoder struct {
	ctx    context.Context
	errors []string
}

func NewRequestDecoder(ctx context.Context) RequestDecoder {
	var r RequestDecoder
	r.ctx = ctx
	return r
}

// Process decodes a yaml dub request, applies defaults, and validates it.
func (r *RequestDecoder) Process(yamlContent []byte) (request.Request, *log.Status) {
	var req request.Request
	err := yaml.Unmarshal(yamlContent, &req)
	if err != nil {
		return req, log.Error(r.ctx, 400, err, "Error decoding yaml dub request")
	}
	r.Validate(&req)
	if len(r.errors) > 0 {
		return req, log.ErrorNoErr(r.ctx, 400, r.ErrorsString())
	}
	return req, nil
}

func (r *RequestDecoder) ErrorsString() string {
	var result string
	for i, msg := range r.errors {
		if i > 0 {
			result += "; "
		}
		result += msg
	}
	return result
}
