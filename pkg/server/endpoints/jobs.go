package endpoints

import (
	"net/http"

	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

// RegisterJobsEndpoints registers the AI job status route
func RegisterJobsEndpoints(s *server.Server) {
	authenticated(s).HandleFunc("/organizations/{orgID}/jobs/{id}", handle(handleGetJob(s.Services.Jobs))).Methods("GET")
}

func handleGetJob(jobs *service.JobService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		job, err := jobs.Get(r.Context(), id, pathVar(r, "orgID"), pathVar(r, "id"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, job)
	}
}
