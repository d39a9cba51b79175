package endpoints

import (
	"net/http"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/server"
)

// RegisterRealtimeEndpoint registers the websocket feed. Browsers cannot
// set headers on websocket requests, so the token may also be passed as
// ?access_token=.
func RegisterRealtimeEndpoint(s *server.Server) {
	s.Router.HandleFunc("/realtime", handle(handleRealtime(s))).Methods("GET")
}

func handleRealtime(s *server.Server) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if s.Hub == nil {
			return apperr.Unavailable("realtime updates are disabled", nil)
		}
		id, err := s.JWTMiddleware.Authenticate(r, true)
		if err != nil {
			return err
		}
		orgIDs, err := s.Stores.Members.OrganizationIDs(r.Context(), id.UserID)
		if err != nil {
			return err
		}

		// the upgrader has already answered when ServeWS fails
		if err := s.Hub.ServeWS(w, r, id.UserID, orgIDs); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("user_id", id.UserID).Msg("websocket upgrade failed")
		}
		return nil
	}
}
