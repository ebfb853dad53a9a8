// Package session holds the process-wide identity state: the persisted bearer
// credential and the identity claims decoded from it. The rest of the client
// reaches identity only through this package.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the decoded owner of the current credential.
type Identity struct {
	UserID   string
	Username string
	Email    string
}

// AuthError marks a missing, expired or undecodable credential.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// Session pairs the stored credential with its decoded identity.
type Session struct {
	store    *Store
	token    string
	identity Identity
}

// Restore loads the persisted credential and decodes its claims. A missing
// token surfaces ErrNoCredential so callers can route to login; an expired or
// malformed one surfaces an AuthError and the credential is cleared.
func Restore(ctx context.Context, store *Store) (*Session, error) {
	token, err := store.LoadToken(ctx)
	if err != nil {
		return nil, err
	}

	identity, err := decodeIdentity(token)
	if err != nil {
		_ = store.ClearToken(ctx)
		return nil, err
	}

	return &Session{store: store, token: token, identity: identity}, nil
}

// Login persists a freshly issued credential and decodes its claims.
func Login(ctx context.Context, store *Store, token string) (*Session, error) {
	identity, err := decodeIdentity(token)
	if err != nil {
		return nil, err
	}
	if err := store.SaveToken(ctx, token); err != nil {
		return nil, err
	}
	return &Session{store: store, token: token, identity: identity}, nil
}

// Identity returns the current identity claims.
func (s *Session) Identity() Identity { return s.identity }

// Token returns the current bearer credential. Implements api.TokenSource.
func (s *Session) Token() (string, error) {
	if s.token == "" {
		return "", ErrNoCredential
	}
	return s.token, nil
}

// Logout clears the persisted credential and the in-memory claims.
func (s *Session) Logout(ctx context.Context) error {
	s.token = ""
	s.identity = Identity{}
	return s.store.ClearToken(ctx)
}

type identityClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// decodeIdentity extracts identity claims without verifying the signature.
// The identity provider signs the token and the backend verifies it on every
// call; the client only reads the embedded claims.
func decodeIdentity(token string) (Identity, error) {
	var claims identityClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Identity{}, &AuthError{Reason: "malformed credential", Err: err}
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return Identity{}, &AuthError{Reason: "credential expired"}
	}
	if claims.Subject == "" {
		return Identity{}, &AuthError{Reason: "credential missing subject"}
	}

	return Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}
