package endpoints

import (
	"github.com/gorilla/mux"

	"github.com/appboardguru/boardguru/pkg/server"
)

// RegisterAll registers all API endpoints on the server. Public routes come
// first so that, for example, /organizations/check-slug is not taken for an
// organization ID by an authenticated route.
func RegisterAll(s *server.Server) {
	RegisterStatusEndpoints(s)
	RegisterRealtimeEndpoint(s)

	RegisterOrganizationsEndpoints(s)
	RegisterMembersEndpoints(s)
	RegisterInvitationsEndpoints(s)
	RegisterVaultsEndpoints(s)
	RegisterAssetsEndpoints(s)
	RegisterAnnotationsEndpoints(s)
	RegisterMeetingsEndpoints(s)
	RegisterActionItemsEndpoints(s)
	RegisterComplianceEndpoints(s)
	RegisterNotificationsEndpoints(s)
	RegisterChatEndpoint(s)
	RegisterJobsEndpoints(s)
	RegisterAuditLogsEndpoint(s)
	RegisterWhoamiEndpoint(s)
}

// authenticated returns a subrouter whose routes require a bearer token and
// are rate limited per user
func authenticated(s *server.Server) *mux.Router {
	r := s.Router.NewRoute().Subrouter()
	r.Use(s.JWTMiddleware.Middleware, s.RateLimiter.Middleware)
	return r
}
