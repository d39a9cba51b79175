// Package server provides the HTTP server of the BoardGuru API.
//
// The server routes with gorilla/mux. Every request gets a request ID, panic
// recovery and Prometheus metrics; the whole router is wrapped in CORS and a
// combined access log written through the zerolog writer.
//
// # Server Setup
//
//	srv := server.NewServer(server.Options{
//	    DB:        database,
//	    Stores:    stores,
//	    Services:  services,
//	    Hub:       hub,
//	    Cache:     cacheManager,
//	    JWTSecret: secret,
//	    Host:      "0.0.0.0",
//	    Port:      "8080",
//	})
//	endpoints.RegisterAll(srv)
//	err := srv.Start(ctx)
//
// Start returns once ctx is canceled and in-flight requests have finished,
// or after ShutdownTimeout.
//
// # Endpoints
//
// API endpoints are registered via the endpoints subpackage:
//
//   - /health, /metrics, /whoami
//   - /organizations/... members, invitations, vaults, meetings, action items,
//     compliance, chat, jobs and audit logs of an organization
//   - /vaults/{vaultID}, /assets/{assetID}, /annotations/{id}
//   - /meetings/{id}, /action-items/{id}, /compliance/{id}
//   - /notifications
//   - /realtime (websocket)
package server
