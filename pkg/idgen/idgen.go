// Package idgen generates URL-safe random tokens backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet defines the character set used for generated tokens.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// InvitationTokenLength is the length of invitation tokens.
const InvitationTokenLength = 32

// Token returns a random token of n characters.
func Token(n int) (string, error) {
	id, err := nanoid.Generate(Alphabet, n)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return id, nil
}

// InvitationToken returns a new invitation token.
func InvitationToken() (string, error) {
	return Token(InvitationTokenLength)
}

// Secret returns a random secret suitable for signing HS256 tokens.
func Secret() (string, error) {
	return Token(64)
}
