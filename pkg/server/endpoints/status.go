package endpoints

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/logging"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

// HealthResponse is the body of /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// RegisterStatusEndpoints registers /health and /metrics; neither requires
// authentication
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/health", handle(handleHealth(s.Stores.Health))).Methods("GET")
	s.Router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func handleHealth(health store.HealthStore) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if health == nil {
			return respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "unconfigured"})
		}
		if err := health.CheckConnectivity(r.Context()); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			return apperr.Unavailable("database is unreachable", err)
		}
		return respondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
	}
}
