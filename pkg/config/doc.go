// Package config provides configuration management for BoardGuru.
//
// Configuration is read from a YAML file and overridden by environment
// variables. Every attribute remembers where its value came from so
// `boardguructl configuration show` can report it.
//
// # Configuration Sources
//
//   - Defaults
//   - $BOARDGURU_CONFIG_PATH/boardguru.yml (default /etc/boardguru)
//   - BOARDGURU_* environment variables (highest precedence)
//
// Secrets are never read from the file:
//
//   - DATABASE_URL: Postgres connection
//   - AUDIT_DATABASE_URL: optional separate audit database
//   - BOARDGURU_JWT_SECRET: HS256 secret used to verify access tokens
//   - OPENROUTER_API_KEY, ANTHROPIC_API_KEY: AI providers
package config
