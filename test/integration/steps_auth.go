package integration

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// signIn mints an access token for user the way the identity provider does
func (s *StepsContext) signIn(user string) error {
	id, ok := s.users[user]
	if !ok {
		id = uuid.NewString()
		s.users[user] = id
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        id,
		"email":      s.emailOf(user),
		"aud":        "authenticated",
		"role":       "authenticated",
		"session_id": uuid.NewString(),
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(s.tc.Secret)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	s.authToken = signed
	s.currentUser = user
	return nil
}

func (s *StepsContext) signInWithExpiredToken(user string) error {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   uuid.NewString(),
		"email": s.emailOf(user),
		"aud":   "authenticated",
		"exp":   time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := token.SignedString(s.tc.Secret)
	if err != nil {
		return err
	}
	s.authToken = signed
	return nil
}

func (s *StepsContext) signOut() error {
	s.authToken = ""
	s.currentUser = ""
	return nil
}

func (s *StepsContext) emailOf(user string) string {
	return user + "-" + s.suffix + "@example.com"
}
