package identity

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromClaims(t *testing.T) {
	iat := time.Now().Add(-time.Minute).Truncate(time.Second)
	exp := iat.Add(time.Hour)

	id := FromClaims(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email:     "alice@example.com",
		Role:      "authenticated",
		SessionID: "sess-1",
	})

	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "alice@example.com", id.Email)
	assert.Equal(t, "sess-1", id.SessionID)
	assert.True(t, iat.Equal(id.IssuedAt))
	assert.True(t, exp.Equal(id.ExpiresAt))
}

func TestFromClaimsWithoutTimes(t *testing.T) {
	id := FromClaims(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2"}})
	assert.True(t, id.IssuedAt.IsZero())
	assert.True(t, id.ExpiresAt.IsZero())
}

func TestIdentity_WithMethods(t *testing.T) {
	id := &Identity{UserID: "user-1"}
	assert.Equal(t, "", id.IPString())

	ip := net.ParseIP("192.168.1.100")
	id.WithRemoteIP(ip).WithRequestID("req-1")

	assert.Equal(t, ip, id.RemoteIP)
	assert.Equal(t, "192.168.1.100", id.IPString())
	assert.Equal(t, "req-1", id.RequestID)
}

func TestContextGetSet(t *testing.T) {
	ctx := context.Background()

	// Initially no identity
	id, ok := Get(ctx)
	assert.False(t, ok)
	assert.Nil(t, id)

	expected := &Identity{UserID: "user-1", Email: "alice@example.com"}
	ctx = Set(ctx, expected)

	id, ok = Get(ctx)
	assert.True(t, ok)
	require.NotNil(t, id)
	assert.Equal(t, expected.UserID, id.UserID)
	assert.Equal(t, expected.Email, id.Email)
}
