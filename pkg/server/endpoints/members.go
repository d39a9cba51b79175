package endpoints

import (
	"net/http"

	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

// roleRequest is the body of a role change
type roleRequest struct {
	Role model.Role `json:"role"`
}

// RegisterMembersEndpoints registers the organization membership routes
func RegisterMembersEndpoints(s *server.Server) {
	members := s.Services.Members

	r := authenticated(s)
	r.HandleFunc("/organizations/{orgID}/members", handle(handleListMembers(members))).Methods("GET")
	r.HandleFunc("/organizations/{orgID}/members/{userID}", handle(handleUpdateMemberRole(members))).Methods("PATCH")
	r.HandleFunc("/organizations/{orgID}/members/{userID}", handle(handleRemoveMember(members))).Methods("DELETE")
	r.HandleFunc("/organizations/{orgID}/members/{userID}/suspend", handle(handleSuspendMember(members))).Methods("POST")
	r.HandleFunc("/organizations/{orgID}/leave", handle(handleLeaveOrganization(members))).Methods("POST")
}

func handleListMembers(members *service.MemberService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		page, err := members.List(r.Context(), id, pathVar(r, "orgID"), opts)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, page)
	}
}

func handleUpdateMemberRole(members *service.MemberService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var req roleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			return err
		}
		m, err := members.UpdateRole(r.Context(), id, pathVar(r, "orgID"), pathVar(r, "userID"), req.Role)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, m)
	}
}

func handleRemoveMember(members *service.MemberService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		if err := members.Remove(r.Context(), id, pathVar(r, "orgID"), pathVar(r, "userID")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

func handleSuspendMember(members *service.MemberService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		m, err := members.Suspend(r.Context(), id, pathVar(r, "orgID"), pathVar(r, "userID"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, m)
	}
}

func handleLeaveOrganization(members *service.MemberService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		if err := members.Leave(r.Context(), id, pathVar(r, "orgID")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}
