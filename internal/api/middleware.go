package api

import (
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfmark/shelfmark-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the envelope.
// Success bodies land under "data"; APIErrors keep their code, message, and
// details at the top level; anything else degrades to a plain error string.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil {
		code = 0
	}

	if code >= 400 {
		env := response.Envelope{V: response.Version, Success: false}
		switch e := v.(type) {
		case *APIError:
			if e.Code != "" {
				env.Code = e.Code
				env.Message = e.Message
				env.Details = e.Details
			} else {
				env.Error = e.Message
			}
		case error:
			env.Error = e.Error()
		default:
			env.Error = http.StatusText(code)
		}
		return env, nil
	}

	return response.OK(v), nil
}
