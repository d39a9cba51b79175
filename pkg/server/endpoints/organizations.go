package endpoints

import (
	"context"
	"net/http"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

// RegisterOrganizationsEndpoints registers the organization routes
func RegisterOrganizationsEndpoints(s *server.Server) {
	orgs := s.Services.Organizations

	// public, used by the signup form before an account exists
	s.Router.HandleFunc("/organizations/check-slug", handle(handleCheckSlug(orgs))).Methods("GET")

	r := authenticated(s)
	r.HandleFunc("/organizations", handle(handleCreateOrganization(orgs))).Methods("POST")
	r.HandleFunc("/organizations", handle(handleListOrganizations(s))).Methods("GET")
	r.HandleFunc("/organizations/{orgID}", handle(handleGetOrganization(orgs))).Methods("GET")
	r.HandleFunc("/organizations/{orgID}", handle(handleUpdateOrganization(orgs))).Methods("PATCH")
	r.HandleFunc("/organizations/{orgID}", handle(handleDeleteOrganization(orgs))).Methods("DELETE")
}

func handleCheckSlug(orgs *service.OrganizationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		slug := r.URL.Query().Get("slug")
		if slug == "" {
			return apperr.Validation("slug", "slug is required")
		}
		res, err := orgs.CheckSlug(r.Context(), slug)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, res)
	}
}

func handleCreateOrganization(orgs *service.OrganizationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.CreateOrganizationInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		org, err := orgs.Create(r.Context(), id, in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, org)
	}
}

func handleListOrganizations(s *server.Server) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		// the user's own list, invalidated through the user tag
		return cachedJSON(w, r, s.Cache, "", func(ctx context.Context) (interface{}, error) {
			return s.Services.Organizations.ListForUser(ctx, id, opts)
		})
	}
}

func handleGetOrganization(orgs *service.OrganizationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		org, err := orgs.Get(r.Context(), id, pathVar(r, "orgID"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, org)
	}
}

func handleUpdateOrganization(orgs *service.OrganizationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.UpdateOrganizationInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		org, err := orgs.Update(r.Context(), id, pathVar(r, "orgID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, org)
	}
}

// handleDeleteOrganization requires the slug in ?confirm_slug= to guard against
// deleting the wrong organization
func handleDeleteOrganization(orgs *service.OrganizationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		if err := orgs.Delete(r.Context(), id, pathVar(r, "orgID"), r.URL.Query().Get("confirm_slug")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}
