package identity

import (
	"context"
	"net"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// Claims are the access token claims issued by the auth provider.
type Claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

// Identity represents the authenticated user for a request.
// It combines token claims with request-specific context.
type Identity struct {
	// Token claims
	UserID    string
	Email     string
	Role      string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Request context
	RemoteIP  net.IP
	RequestID string
}

// FromClaims creates an Identity from verified token claims.
func FromClaims(c *Claims) *Identity {
	id := &Identity{
		UserID:    c.Subject,
		Email:     c.Email,
		Role:      c.Role,
		SessionID: c.SessionID,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		id.ExpiresAt = c.ExpiresAt.Time
	}
	return id
}

// WithRemoteIP sets the remote IP address.
func (i *Identity) WithRemoteIP(ip net.IP) *Identity {
	i.RemoteIP = ip
	return i
}

// WithRequestID sets the request ID.
func (i *Identity) WithRequestID(requestID string) *Identity {
	i.RequestID = requestID
	return i
}

// IPString returns the remote IP as a string, or "" if unknown.
func (i *Identity) IPString() string {
	if i.RemoteIP == nil {
		return ""
	}
	return i.RemoteIP.String()
}

// Get retrieves Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
