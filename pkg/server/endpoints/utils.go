package endpoints

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/config"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/server/store"
)

const (
	// DefaultListLimit applies when a list request has no limit parameter
	DefaultListLimit = 50

	maxJSONBody = 1 << 20
)

// handlerFunc is an HTTP handler that reports failures by returning them
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc, writing returned errors as JSON
func handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			apperr.Write(w, r, err)
		}
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) error {
	response, err := json.Marshal(payload)
	if err != nil {
		return apperr.Internal(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
	return nil
}

func respondWithRawJSON(w http.ResponseWriter, code int, raw []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(raw)
}

// decodeJSON reads a JSON request body of at most 1 MiB into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation("body", "request body is required")
		case errors.As(err, &tooLarge):
			return apperr.Validation("body", "request body is too large")
		default:
			return apperr.Validation("body", "request body is not valid JSON").Wrap(err)
		}
	}
	return nil
}

// actor returns the authenticated caller
func actor(r *http.Request) (*identity.Identity, error) {
	id, ok := identity.Get(r.Context())
	if !ok || id.UserID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	return id, nil
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// listOptions parses limit, offset, search, status, sort and order
func listOptions(r *http.Request) (store.ListOptions, error) {
	q := r.URL.Query()
	opts := store.ListOptions{
		Limit:  DefaultListLimit,
		Search: strings.TrimSpace(q.Get("search")),
		Status: q.Get("status"),
		SortBy: q.Get("sort"),
		Desc:   strings.EqualFold(q.Get("order"), "desc"),
	}

	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return opts, apperr.Validation("limit", "limit must be a positive integer")
		}
		opts.Limit = limit
	}
	if max := config.Get().APIListLimitMax; max > 0 && opts.Limit > max {
		opts.Limit = max
	}

	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			return opts, apperr.Validation("offset", "offset must be a non-negative integer")
		}
		opts.Offset = offset
	}
	return opts, nil
}

// timeParam parses an optional RFC 3339 query parameter
func timeParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperr.Validation(name, name+" must be an RFC 3339 timestamp")
	}
	return &t, nil
}

// boolParam reads an optional boolean query parameter
func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperr.Validation(name, name+" must be true or false")
	}
	return b, nil
}

// cachedJSON writes the JSON of load's result, caching it per user for the
// configured TTL. Entries are tagged with the organization, when given, and
// the user so writes to either invalidate them.
func cachedJSON(w http.ResponseWriter, r *http.Request, c *cache.Manager, orgID string, load func(ctx context.Context) (interface{}, error)) error {
	if c == nil {
		v, err := load(r.Context())
		if err != nil {
			return err
		}
		return respondWithJSON(w, http.StatusOK, v)
	}

	id, err := actor(r)
	if err != nil {
		return err
	}
	tags := []string{cache.UserTag(id.UserID)}
	if orgID != "" {
		tags = append(tags, cache.OrgTag(orgID))
	}

	var raw json.RawMessage
	key := cache.Key("api", id.UserID, r.URL.Path, r.URL.RawQuery)
	if err := c.GetOrLoad(r.Context(), key, 0, &raw, cache.Loader(load), tags...); err != nil {
		return err
	}
	respondWithRawJSON(w, http.StatusOK, raw)
	return nil
}
