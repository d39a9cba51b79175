// Package identity provides the authenticated identity of a BoardGuru request.
//
// An Identity combines the verified access token claims (user ID, email,
// session) with request-specific context (client IP, request ID).
//
// # Basic Usage
//
//	id := identity.FromClaims(claims).
//	    WithRemoteIP(clientIP).
//	    WithRequestID(requestID)
//
//	ctx = identity.Set(ctx, id)
//
//	id, ok := identity.Get(ctx)
//
// Organization roles are not part of the identity: a user may hold a
// different role in every organization, so they are resolved per request
// by the authz package.
package identity
