package endpoints

import (
	"net/http"

	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/server/store"
	"github.com/appboardguru/boardguru/pkg/service"
)

// RegisterAuditLogsEndpoint registers the organization audit trail route
func RegisterAuditLogsEndpoint(s *server.Server) {
	authenticated(s).HandleFunc("/organizations/{orgID}/audit-logs", handle(handleListAuditLogs(s.Services.Audit))).Methods("GET")
}

// handleListAuditLogs filters by ?action=, ?user_id=, ?resource_type=,
// ?since= and ?until=
func handleListAuditLogs(audit *service.AuditService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}

		q := r.URL.Query()
		filter := store.AuditFilter{
			Action:       q.Get("action"),
			UserID:       q.Get("user_id"),
			ResourceType: q.Get("resource_type"),
		}
		if filter.Since, err = timeParam(r, "since"); err != nil {
			return err
		}
		if filter.Until, err = timeParam(r, "until"); err != nil {
			return err
		}

		page, err := audit.List(r.Context(), id, pathVar(r, "orgID"), filter, opts)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, page)
	}
}
