// Package logging provides the zerolog-based structured logger used across
// BoardGuru.
//
// The global logger is configured once at startup:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
// and used either directly or with request context:
//
//	logging.Info().Str("org_id", orgID).Msg("organization created")
//	logging.Ctx(ctx).Error().Err(err).Msg("upload failed")
//
// # Environment Variables
//
//   - BOARDGURU_LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - BOARDGURU_LOG_FORMAT: json, console (default: json)
package logging
