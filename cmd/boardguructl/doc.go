// Command boardguructl runs and administers the BoardGuru board governance API.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/service: business operations and authorization checks
//   - pkg/server/store: repository interfaces and their GORM implementation
//   - pkg/jobs: the AI job queue and worker
//   - pkg/realtime: websocket hub and NATS fan-out
//   - pkg/ai: OpenRouter and Anthropic providers
//   - pkg/cache: response cache with a database layer
//   - pkg/audit: audit logging
//   - pkg/config: configuration management
//
// # Quick Start
//
//	# Generate a JWT secret for local development
//	export BOARDGURU_JWT_SECRET=$(boardguructl secret generate)
//
//	# Run database migrations
//	boardguructl db migrate
//
//	# Create the first organization
//	boardguructl organization create --name "Acme" --slug acme \
//	    --owner-id 6f1c... --owner-email chair@acme.example
//
//	# Start the server
//	boardguructl server
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - AUDIT_DATABASE_URL: optional separate database for audit_logs
//   - BOARDGURU_JWT_SECRET: HS256 secret of the identity provider
//   - OPENROUTER_API_KEY / ANTHROPIC_API_KEY: AI provider credentials
//   - BOARDGURU_LOG_LEVEL: Log level (debug, info, warn, error)
//   - PORT: Server port (default: 8000)
package main
