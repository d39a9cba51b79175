package endpoints

import (
	"context"
	"net/http"

	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

// RegisterVaultsEndpoints registers the vault and vault membership routes
func RegisterVaultsEndpoints(s *server.Server) {
	vaults := s.Services.Vaults

	r := authenticated(s)
	r.HandleFunc("/organizations/{orgID}/vaults", handle(handleCreateVault(vaults))).Methods("POST")
	r.HandleFunc("/organizations/{orgID}/vaults", handle(handleListVaults(s))).Methods("GET")
	r.HandleFunc("/vaults/{vaultID}", handle(handleGetVault(vaults))).Methods("GET")
	r.HandleFunc("/vaults/{vaultID}", handle(handleUpdateVault(vaults))).Methods("PATCH")
	r.HandleFunc("/vaults/{vaultID}/archive", handle(handleArchiveVault(vaults))).Methods("POST")
	r.HandleFunc("/vaults/{vaultID}/members", handle(handleListVaultMembers(vaults))).Methods("GET")
	r.HandleFunc("/vaults/{vaultID}/members", handle(handleAddVaultMember(vaults))).Methods("POST")
	r.HandleFunc("/vaults/{vaultID}/members/{userID}", handle(handleRemoveVaultMember(vaults))).Methods("DELETE")
}

func handleCreateVault(vaults *service.VaultService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.VaultInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		vault, err := vaults.Create(r.Context(), id, pathVar(r, "orgID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, vault)
	}
}

func handleListVaults(s *server.Server) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		orgID := pathVar(r, "orgID")
		return cachedJSON(w, r, s.Cache, orgID, func(ctx context.Context) (interface{}, error) {
			return s.Services.Vaults.List(ctx, id, orgID, opts)
		})
	}
}

func handleGetVault(vaults *service.VaultService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		vault, err := vaults.Get(r.Context(), id, pathVar(r, "vaultID"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, vault)
	}
}

func handleUpdateVault(vaults *service.VaultService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.VaultInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		vault, err := vaults.Update(r.Context(), id, pathVar(r, "vaultID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, vault)
	}
}

func handleArchiveVault(vaults *service.VaultService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		vault, err := vaults.Archive(r.Context(), id, pathVar(r, "vaultID"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, vault)
	}
}

func handleListVaultMembers(vaults *service.VaultService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		members, err := vaults.Members(r.Context(), id, pathVar(r, "vaultID"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, map[string]interface{}{"items": members})
	}
}

func handleAddVaultMember(vaults *service.VaultService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.VaultMemberInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		m, err := vaults.AddMember(r.Context(), id, pathVar(r, "vaultID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, m)
	}
}

func handleRemoveVaultMember(vaults *service.VaultService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		if err := vaults.RemoveMember(r.Context(), id, pathVar(r, "vaultID"), pathVar(r, "userID")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}
