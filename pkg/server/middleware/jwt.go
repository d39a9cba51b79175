package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/appboardguru/boardguru/pkg/apperr"
	"github.com/appboardguru/boardguru/pkg/audit"
	"github.com/appboardguru/boardguru/pkg/identity"
	"github.com/appboardguru/boardguru/pkg/logging"
)

// DefaultAudience is the audience claim of user access tokens.
const DefaultAudience = "authenticated"

// JWTAuthenticator is middleware that validates bearer access tokens
type JWTAuthenticator struct {
	Secret   []byte
	Audience string
}

// NewJWTAuthenticator creates a new JWT authenticator middleware
func NewJWTAuthenticator(secret []byte) *JWTAuthenticator {
	return &JWTAuthenticator{Secret: secret, Audience: DefaultAudience}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// When allowQuery is set the access_token query parameter is accepted as
// well, for clients that cannot set headers (websockets).
func BearerToken(r *http.Request, allowQuery bool) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if allowQuery {
			if token := r.URL.Query().Get("access_token"); token != "" {
				return token, nil
			}
		}
		return "", apperr.Unauthorized("authorization missing")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.Unauthorized("malformed authorization header")
	}
	return strings.TrimSpace(token), nil
}

// Verify parses and validates an access token and returns its claims.
func (j *JWTAuthenticator) Verify(tokenStr string) (*identity.Claims, error) {
	audience := j.Audience
	if audience == "" {
		audience = DefaultAudience
	}

	claims := &identity.Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return j.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperr.New(apperr.CodeTokenExpired, "token expired").
				WithSuggestion("refresh the access token and retry")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, apperr.Unauthorized("invalid signature")
		default:
			return nil, apperr.Unauthorized("malformed authorization token").Wrap(err)
		}
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized("token has no subject")
	}
	return claims, nil
}

// Authenticate verifies the request's token and builds its Identity.
func (j *JWTAuthenticator) Authenticate(r *http.Request, allowQuery bool) (*identity.Identity, error) {
	tokenStr, err := BearerToken(r, allowQuery)
	if err != nil {
		return nil, err
	}
	claims, err := j.Verify(tokenStr)
	if err != nil {
		return nil, err
	}

	id := identity.FromClaims(claims).
		WithRemoteIP(ClientIP(r)).
		WithRequestID(logging.RequestIDFromContext(r.Context()))
	return id, nil
}

// Middleware returns an HTTP middleware that validates JWT tokens
func (j *JWTAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := j.Authenticate(r, false)
		if err != nil {
			auditFailure(r, err)
			apperr.Write(w, r, err)
			return
		}

		ctx := identity.Set(r.Context(), id)
		ctx = logging.ContextWithUserID(ctx, id.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// auditFailure records a rejected token. Requests without any credentials
// are not audited.
func auditFailure(r *http.Request, err error) {
	if r.Header.Get("Authorization") == "" && r.URL.Query().Get("access_token") == "" {
		return
	}
	var ip string
	if addr := ClientIP(r); addr != nil {
		ip = addr.String()
	}
	audit.Log(audit.AuthEvent{
		ClientIP:     ip,
		Path:         r.URL.Path,
		Success:      false,
		ErrorMessage: apperr.From(err).Message,
	})
}
