package endpoints

import (
	"context"
	"net/http"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

// RegisterComplianceEndpoints registers the compliance tracking routes
func RegisterComplianceEndpoints(s *server.Server) {
	compliance := s.Services.Compliance

	r := authenticated(s)
	r.HandleFunc("/organizations/{orgID}/compliance", handle(handleCreateRequirement(compliance))).Methods("POST")
	r.HandleFunc("/organizations/{orgID}/compliance", handle(handleListRequirements(compliance))).Methods("GET")
	r.HandleFunc("/organizations/{orgID}/compliance/dashboard", handle(handleComplianceDashboard(s))).Methods("GET")
	r.HandleFunc("/organizations/{orgID}/compliance/overdue", handle(handleOverdueRequirements(compliance))).Methods("GET")
	r.HandleFunc("/compliance/{id}", handle(handleUpdateRequirement(compliance))).Methods("PATCH")
	r.HandleFunc("/compliance/{id}/complete", handle(handleCompleteRequirement(compliance))).Methods("POST")
}

func handleCreateRequirement(compliance *service.ComplianceService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.ComplianceInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		req, err := compliance.Create(r.Context(), id, pathVar(r, "orgID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, req)
	}
}

func handleListRequirements(compliance *service.ComplianceService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		page, err := compliance.List(r.Context(), id, pathVar(r, "orgID"), opts)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, page)
	}
}

func handleComplianceDashboard(s *server.Server) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		orgID := pathVar(r, "orgID")
		return cachedJSON(w, r, s.Cache, orgID, func(ctx context.Context) (interface{}, error) {
			return s.Services.Compliance.Dashboard(ctx, id, orgID)
		})
	}
}

func handleOverdueRequirements(compliance *service.ComplianceService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		reqs, err := compliance.Overdue(r.Context(), id, pathVar(r, "orgID"))
		if err != nil {
			return err
		}
		if reqs == nil {
			reqs = []model.ComplianceRequirement{}
		}
		return respondWithJSON(w, http.StatusOK, map[string]interface{}{"items": reqs})
	}
}

func handleUpdateRequirement(compliance *service.ComplianceService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.UpdateComplianceInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		req, err := compliance.Update(r.Context(), id, pathVar(r, "id"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, req)
	}
}

func handleCompleteRequirement(compliance *service.ComplianceService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		req, err := compliance.MarkCompleted(r.Context(), id, pathVar(r, "id"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, req)
	}
}
