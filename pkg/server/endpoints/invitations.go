package endpoints

import (
	"net/http"
	"strings"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

// acceptRequest is the body of POST /invitations/accept
type acceptRequest struct {
	Token string `json:"token"`
}

// RegisterInvitationsEndpoints registers the invitation routes
func RegisterInvitationsEndpoints(s *server.Server) {
	invitations := s.Services.Invitations

	r := authenticated(s)
	r.HandleFunc("/organizations/{orgID}/invitations", handle(handleInvite(invitations))).Methods("POST")
	r.HandleFunc("/organizations/{orgID}/invitations", handle(handleListInvitations(invitations))).Methods("GET")
	r.HandleFunc("/organizations/{orgID}/invitations/{id}", handle(handleRevokeInvitation(invitations))).Methods("DELETE")
	r.HandleFunc("/invitations/accept", handle(handleAcceptInvitation(invitations))).Methods("POST")
}

func handleInvite(invitations *service.InvitationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.InviteInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		inv, err := invitations.Invite(r.Context(), id, pathVar(r, "orgID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, inv)
	}
}

func handleListInvitations(invitations *service.InvitationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		page, err := invitations.ListPending(r.Context(), id, pathVar(r, "orgID"), opts)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, page)
	}
}

func handleRevokeInvitation(invitations *service.InvitationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		if err := invitations.Revoke(r.Context(), id, pathVar(r, "orgID"), pathVar(r, "id")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

func handleAcceptInvitation(invitations *service.InvitationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var req acceptRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return err
		}
		token := strings.TrimSpace(req.Token)
		if token == "" {
			return apperr.Validation("token", "token is required")
		}
		m, err := invitations.Accept(r.Context(), id, token)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, m)
	}
}
