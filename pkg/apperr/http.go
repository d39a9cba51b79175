package apperr

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/appboardguru/boardguru/pkg/logging"
)

// Body is the JSON error envelope member.
type Body struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	Category   Category               `json:"category"`
	Field      string                 `json:"field,omitempty"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
}

// Response is the JSON error envelope: {"error": {...}}.
type Response struct {
	Error Body `json:"error"`
}

// ToBody renders the client-visible part of e.
func (e *Error) ToBody() Body {
	return Body{
		Code:       e.Code,
		Message:    e.Message,
		Category:   e.Category(),
		Field:      e.Field,
		Suggestion: e.Suggestion,
		Details:    e.Details,
	}
}

// Write classifies err and writes it as a JSON error response. Server-side
// failures are logged with their cause.
func Write(w http.ResponseWriter, r *http.Request, err error) {
	e := From(err)
	status := e.HTTPStatus()

	body := e.ToBody()
	if r != nil {
		body.RequestID = logging.RequestIDFromContext(r.Context())
		log := logging.Ctx(r.Context())
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).Str("code", string(e.Code)).Str("path", r.URL.Path).Msg("request failed")
		} else {
			log.Debug().Err(err).Str("code", string(e.Code)).Str("path", r.URL.Path).Msg("request rejected")
		}
	}

	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(e.RetryAfter.Seconds())))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: body})
}
