package endpoints

import (
	"errors"
	"net/http"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/service"
)

const (
	// multipartMemory is the part of an upload kept in memory; the rest
	// spills to a temporary file
	multipartMemory = 8 << 20

	// multipartOverhead allows for form fields and part headers on top of
	// the file itself
	multipartOverhead = 1 << 20
)

// RegisterAssetsEndpoints registers the board document routes
func RegisterAssetsEndpoints(s *server.Server) {
	assets := s.Services.Assets

	r := authenticated(s)
	r.HandleFunc("/vaults/{vaultID}/assets", handle(handleUploadAsset(assets))).Methods("POST")
	r.HandleFunc("/vaults/{vaultID}/assets", handle(handleListAssets(assets))).Methods("GET")
	r.HandleFunc("/assets/{assetID}", handle(handleGetAsset(assets))).Methods("GET")
	r.HandleFunc("/assets/{assetID}", handle(handleDeleteAsset(assets))).Methods("DELETE")
	r.HandleFunc("/assets/{assetID}/download", handle(handleDownloadAsset(assets))).Methods("GET")
	r.HandleFunc("/assets/{assetID}/summarize", handle(handleSummarizeAsset(assets))).Methods("POST")
}

// handleUploadAsset accepts a multipart form with a "file" part and an
// optional "title" field
func handleUploadAsset(assets *service.AssetService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}

		maxBytes := config.Get().MaxUploadBytes
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return apperr.Validation("file", "file is too large").WithDetail("max_bytes", maxBytes)
			}
			return apperr.Validation("file", "request must be a multipart form with a file part").Wrap(err)
		}
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()

		file, header, err := r.FormFile("file")
		if err != nil {
			return apperr.Validation("file", "file is required")
		}
		defer file.Close()

		asset, err := assets.Upload(r.Context(), id, pathVar(r, "vaultID"), service.UploadInput{
			Title:       r.FormValue("title"),
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusCreated, asset)
	}
}

func handleListAssets(assets *service.AssetService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		opts, err := listOptions(r)
		if err != nil {
			return err
		}
		page, err := assets.List(r.Context(), id, pathVar(r, "vaultID"), opts)
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, page)
	}
}

func handleGetAsset(assets *service.AssetService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		asset, err := assets.Get(r.Context(), id, pathVar(r, "assetID"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, asset)
	}
}

func handleDeleteAsset(assets *service.AssetService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		if err := assets.Delete(r.Context(), id, pathVar(r, "assetID")); err != nil {
			return err
		}
		w.WriteHeader(http.StatusNoContent)
		return nil
	}
}

// handleDownloadAsset returns a presigned link, or redirects to it when
// ?redirect=true
func handleDownloadAsset(assets *service.AssetService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		redirect, err := boolParam(r, "redirect")
		if err != nil {
			return err
		}
		link, err := assets.Download(r.Context(), id, pathVar(r, "assetID"))
		if err != nil {
			return err
		}
		if redirect {
			http.Redirect(w, r, link.URL, http.StatusFound)
			return nil
		}
		return respondWithJSON(w, http.StatusOK, link)
	}
}

func handleSummarizeAsset(assets *service.AssetService) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		id, err := actor(r)
		if err != nil {
			return err
		}
		job, err := assets.RequestSummary(r.Context(), id, pathVar(r, "assetID"))
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusAccepted, job)
	}
}
