package endpoints

import (
	"net/http"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

// statusRequest is the body of POST /action-items/{id}/status
type statusRequest struct {
	Status model.ActionItemStatus `json:"status"`
}

// RegisterActionItemsEndpoints registers the action item routes
func RegisterActionItemsEndpoints(s *server.Server) {
	items := s.Services.ActionItems

	r := authenticated(s)
	r.HandleFunc("/organizations/{orgID}/action-items", handle(handleCreateActionItem(items))).Methods("POST")
	r.HandleFunc("/organizations/{orgID}/action-items", handle(handleListActionItems(items))).Methods("GET")
	r.HandleFunc("/action-items/{id}", handle(handleUpdateActionItem(items))).Methods("PATCH")
	r.HandleFunc("/action-items/{id}", handle(handleDeleteActionItem(items))).Methods("DELETE")
	r.HandleFunc("/action-items/{id}/status", handle(handleSetActionItemStatus(items))).Methods("POST")
}

func handleCreateActionItem(items *service.ActionItemService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.ActionItemInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		item, err := items.Create(r.Context(), id, pathVar(r, "orgID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, item)
	}
}

// handleListActionItems filters by ?assigned_to= ("me" for the caller),
// ?meeting_id=, ?overdue=true and ?status=
func handleListActionItems(items *service.ActionItemService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		overdue, err := boolParam(r, "overdue")
		if err != nil {
			return err
		}

		q := service.ActionItemQuery{
			AssignedTo:  r.URL.Query().Get("assigned_to"),
			MeetingID:   r.URL.Query().Get("meeting_id"),
			OverdueOnly: overdue,
		}
		if q.AssignedTo == "me" {
			q.AssignedTo = id.UserID
		}

		page, err := items.List(r.Context(), id, pathVar(r, "orgID"), q, opts)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, page)
	}
}

func handleUpdateActionItem(items *service.ActionItemService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.UpdateActionItemInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		item, err := items.Update(r.Context(), id, pathVar(r, "id"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, item)
	}
}

func handleDeleteActionItem(items *service.ActionItemService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		if err := items.Delete(r.Context(), id, pathVar(r, "id")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

func handleSetActionItemStatus(items *service.ActionItemService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var req statusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return err
		}
		item, err := items.SetStatus(r.Context(), id, pathVar(r, "id"), req.Status)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, item)
	}
}
