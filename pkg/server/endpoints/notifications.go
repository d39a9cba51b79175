package endpoints

import (
	"net/http"

	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/service"
)

// markReadRequest is the body of POST /notifications/read
type markReadRequest struct {
	IDs []string `json:"ids"`
}

// countResponse reports how many notifications a request affected
type countResponse struct {
	Count int64 `json:"count"`
}

// RegisterNotificationsEndpoints registers the caller's notification feed
func RegisterNotificationsEndpoints(s *server.Server) {
	notifications := s.Services.Notifications

	r := authenticated(s)
	r.HandleFunc("/notifications", handle(handleListNotifications(notifications))).Methods("GET")
	r.HandleFunc("/notifications/unread-count", handle(handleUnreadCount(notifications))).Methods("GET")
	r.HandleFunc("/notifications/read", handle(handleMarkRead(notifications))).Methods("POST")
	r.HandleFunc("/notifications/read-all", handle(handleMarkAllRead(notifications))).Methods("POST")
	r.HandleFunc("/notifications/{id}/archive", handle(handleArchiveNotification(notifications))).Methods("POST")
}

// handleListNotifications supports ?unread=true and ?archived=true
func handleListNotifications(notifications *service.NotificationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		var filter store.NotificationFilter
		if filter.UnreadOnly, err = boolParam(r, "unread"); err != nil {
			return err
		}
		if filter.IncludeArchived, err = boolParam(r, "archived"); err != nil {
			return err
		}

		page, err := notifications.List(r.Context(), id, filter, opts)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, page)
	}
}

func handleUnreadCount(notifications *service.NotificationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		n, err := notifications.UnreadCount(r.Context(), id)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, countResponse{Count: n})
	}
}

func handleMarkRead(notifications *service.NotificationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var req markReadRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return err
		}
		n, err := notifications.MarkRead(r.Context(), id, req.IDs)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, countResponse{Count: n})
	}
}

func handleMarkAllRead(notifications *service.NotificationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		n, err := notifications.MarkAllRead(r.Context(), id)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, countResponse{Count: n})
	}
}

func handleArchiveNotification(notifications *service.NotificationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		if err := notifications.Archive(r.Context(), id, pathVar(r, "id")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}
