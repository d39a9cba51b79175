package endpoints

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/authz"
	"github.com/appboardguru/boardguru/pkg/cache"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/model"
	"github.com/appboardguru/boardguru/pkg/server"
	"github.com/appboardguru/boardguru/pkg/server/middleware"
	"github.com/appboardguru/boardguru/pkg/server/store/storetest"
	"github.com/appboardguru/boardguru/pkg/service"
	"github.com/appboardguru/boardguru/pkg/storage"
)

const anyCtx = mock.Anything

var testSecret = []byte("endpoint-test-secret")

func TestMain(m *testing.M) {
	audit.DefaultLogger.SetWriter(io.Discard)
	os.Exit(m.Run())
}

type testServer struct {
	srv   *server.Server
	mocks *storetest.Mocks
	blobs *storage.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mocks := storetest.New()
	stores := mocks.Stores()
	a, err := authz.New(mocks.Members, mocks.Vaults)
	require.NoError(t, err)

	blobs := storage.NewMemoryStore()
	c := cache.New(nil)
	services := service.New(service.Deps{
		Stores: stores,
		Authz:  a,
		Cache:  c,
		Blobs:  blobs,
	})

	srv := server.NewServer(server.Options{
		Stores:    stores,
		Services:  services,
		Cache:     c,
		JWTSecret: testSecret,
	})
	RegisterAll(srv)
	return &testServer{srv: srv, mocks: mocks, blobs: blobs}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	now := time.Now()
	claims := identity.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{middleware.DefaultAudience},
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: userID + "@example.com",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

// do sends a request as userID; an empty userID sends no token
func (ts *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	return ts.serve(req)
}

func (ts *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.srv.Router.ServeHTTP(rec, req)
	return rec
}

// member registers an active membership for authorization lookups
func (ts *testServer) member(orgID, userID string, role model.Role) {
	ts.mocks.Members.On("Get", anyCtx, orgID, userID).Return(&model.OrganizationMember{
		ID:             "m-" + userID,
		OrganizationID: orgID,
		UserID:         userID,
		Role:           role,
		Status:         model.MemberActive,
	}, nil)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

// assertError checks the status and the JSON error envelope
func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code apperr.Code) apperr.Body {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var resp apperr.Response
	decode(t, rec, &resp)
	assert.Equal(t, code, resp.Error.Code)
	return resp.Error
}

func newAuthedRequest(t *testing.T, method, path, userID string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+token(t, userID))
	return req
}
