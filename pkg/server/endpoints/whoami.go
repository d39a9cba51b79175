package endpoints

import (
	"net/http"
	"time"

	"github.com/appboardguru/boardguru/pkg/server"
)

// WhoamiResponse describes the caller and the organizations they belong to
type WhoamiResponse struct {
	UserID          string    `json:"user_id"`
	Email           string    `json:"email,omitempty"`
	Role            string    `json:"role,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	ExpiresAt       time.Time `json:"expires_at"`
	ClientIP        string    `json:"client_ip,omitempty"`
	OrganizationIDs []string  `json:"organization_ids"`
}

// RegisterWhoamiEndpoint registers GET /whoami
func RegisterWhoamiEndpoint(s *server.Server) {
	authenticated(s).HandleFunc("/whoami", handle(handleWhoami(s))).Methods("GET")
}

func handleWhoami(s *server.Server) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		orgIDs, err := s.Stores.Members.OrganizationIDs(r.Context(), id.UserID)
		if err != nil {
			return err
		}
		if orgIDs == nil {
			orgIDs = []string{}
		}
		return respondWithJSON(w, http.StatusOK, WhoamiResponse{
			UserID:          id.UserID,
			Email:           id.Email,
			Role:            id.Role,
			SessionID:       id.SessionID,
			ExpiresAt:       id.ExpiresAt,
			ClientIP:        id.IPString(),
			OrganizationIDs: orgIDs,
		})
	}
}
