package endpoints

import (
	"context"
	"net/http"
	"strings"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/service"
)

// transitionRequest is the body of POST /meetings/{id}/transition
type transitionRequest struct {
	Status model.MeetingStatus `json:"status"`
}

// RegisterMeetingsEndpoints registers the board meeting routes
func RegisterMeetingsEndpoints(s *server.Server) {
	meetings := s.Services.Meetings

	r := authenticated(s)
	r.HandleFunc("/organizations/{orgID}/meetings", handle(handleCreateMeeting(meetings))).Methods("POST")
	r.HandleFunc("/organizations/{orgID}/meetings", handle(handleListMeetings(s))).Methods("GET")
	r.HandleFunc("/meetings/{id}", handle(handleGetMeeting(meetings))).Methods("GET")
	r.HandleFunc("/meetings/{id}", handle(handleUpdateMeeting(meetings))).Methods("PATCH")
	r.HandleFunc("/meetings/{id}/transition", handle(handleTransitionMeeting(meetings))).Methods("POST")
	r.HandleFunc("/meetings/{id}/transcript", handle(handleAppendTranscript(meetings))).Methods("POST")
	r.HandleFunc("/meetings/{id}/transcript", handle(handleTranscript(meetings))).Methods("GET")
	r.HandleFunc("/meetings/{id}/minutes/generate", handle(handleGenerateMinutes(meetings))).Methods("POST")
	r.HandleFunc("/meetings/{id}/minutes", handle(handleMinutes(meetings))).Methods("GET")
	r.HandleFunc("/meetings/{id}/action-items/extract", handle(handleExtractActionItems(meetings))).Methods("POST")
}

func handleCreateMeeting(meetings *service.MeetingService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.MeetingInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		m, err := meetings.Create(r.Context(), id, pathVar(r, "orgID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, m)
	}
}

// handleListMeetings lists meetings, optionally scheduled within ?from=
// and ?to= (RFC 3339)
func handleListMeetings(s *server.Server) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		var filter store.MeetingFilter
		if filter.From, err = timeParam(r, "from"); err != nil {
			return err
		}
		if filter.To, err = timeParam(r, "to"); err != nil {
			return err
		}

		orgID := pathVar(r, "orgID")
		return cachedJSON(w, r, s.Cache, orgID, func(ctx context.Context) (interface{}, error) {
			return s.Services.Meetings.List(ctx, id, orgID, filter, opts)
		})
	}
}

func handleGetMeeting(meetings *service.MeetingService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		m, err := meetings.Get(r.Context(), id, pathVar(r, "id"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, m)
	}
}

func handleUpdateMeeting(meetings *service.MeetingService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.UpdateMeetingInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		m, err := meetings.Update(r.Context(), id, pathVar(r, "id"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, m)
	}
}

func handleTransitionMeeting(meetings *service.MeetingService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var req transitionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return err
		}
		m, err := meetings.Transition(r.Context(), id, pathVar(r, "id"), req.Status)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, m)
	}
}

func handleAppendTranscript(meetings *service.MeetingService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.TranscriptInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		segments, err := meetings.AppendTranscript(r.Context(), id, pathVar(r, "id"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, map[string]interface{}{"items": segments})
	}
}

func handleTranscript(meetings *service.MeetingService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		segments, err := meetings.Transcript(r.Context(), id, pathVar(r, "id"))
		if err != nil {
			return err
		}
		if segments == nil {
			segments = []model.TranscriptSegment{}
		}
		return respondWithJSON(w, http.StatusOK, map[string]interface{}{"items": segments})
	}
}

func handleGenerateMinutes(meetings *service.MeetingService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		job, err := meetings.RequestMinutes(r.Context(), id, pathVar(r, "id"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusAccepted, job)
	}
}

// handleMinutes returns the minutes as Markdown, or as an HTML fragment
// when the client accepts text/html
func handleMinutes(meetings *service.MeetingService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		meetingID := pathVar(r, "id")
		m, err := meetings.Get(r.Context(), id, meetingID)
		if err != nil {
			return err
		}
		if strings.TrimSpace(m.Minutes) == "" {
			return apperr.NotFound("minutes", meetingID).
				WithSuggestion("generate the minutes first")
		}

		if strings.Contains(r.Header.Get("Accept"), "text/html") {
			html, err := service.RenderMinutesHTML(m.Minutes)
			if err != nil {
				return err
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(html))
			return nil
		}

		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(m.Minutes))
		return nil
	}
}

func handleExtractActionItems(meetings *service.MeetingService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		job, err := meetings.RequestActionItems(r.Context(), id, pathVar(r, "id"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusAccepted, job)
	}
}
