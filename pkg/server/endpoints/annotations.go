package endpoints

import (
	"net/http"

	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

// resolveRequest is the body of POST /annotations/{id}/resolve; resolved
// defaults to true
type resolveRequest struct {
	Resolved *bool `json:"resolved"`
}

// RegisterAnnotationsEndpoints registers the annotation routes
func RegisterAnnotationsEndpoints(s *server.Server) {
	annotations := s.Services.Annotations

	r := authenticated(s)
	r.HandleFunc("/assets/{assetID}/annotations", handle(handleCreateAnnotation(annotations))).Methods("POST")
	r.HandleFunc("/assets/{assetID}/annotations", handle(handleListAnnotations(annotations))).Methods("GET")
	r.HandleFunc("/annotations/{id}", handle(handleUpdateAnnotation(annotations))).Methods("PATCH")
	r.HandleFunc("/annotations/{id}", handle(handleDeleteAnnotation(annotations))).Methods("DELETE")
	r.HandleFunc("/annotations/{id}/resolve", handle(handleResolveAnnotation(annotations))).Methods("POST")
}

func handleCreateAnnotation(annotations *service.AnnotationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.AnnotationInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		a, err := annotations.Create(r.Context(), id, pathVar(r, "assetID"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, a)
	}
}

// handleListAnnotations returns the threads of an asset: top-level
// annotations with their replies nested
func handleListAnnotations(annotations *service.AnnotationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		threads, err := annotations.List(r.Context(), id, pathVar(r, "assetID"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, map[string]interface{}{"items": threads})
	}
}

func handleUpdateAnnotation(annotations *service.AnnotationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		var in service.UpdateAnnotationInput
		if err := decodeJSON(w, r, &in); err != nil {
			return err
		}
		a, err := annotations.Update(r.Context(), id, pathVar(r, "id"), in)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, a)
	}
}

func handleDeleteAnnotation(annotations *service.AnnotationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		if err := annotations.Delete(r.Context(), id, pathVar(r, "id")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

func handleResolveAnnotation(annotations *service.AnnotationService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		resolved := true
		if r.ContentLength != 0 {
			var req resolveRequest
			if err := decodeJSON(w, r, &req); err != nil {
				return err
			}
			if req.Resolved != nil {
				resolved = *req.Resolved
			}
		}
		a, err := annotations.Resolve(r.Context(), id, pathVar(r, "id"), resolved)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, a)
	}
}
