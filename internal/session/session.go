// Package session holds the rider's access token and the identity it carries.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken is returned when no access token is configured.
	ErrNoToken = errors.New("session: no access token")
	// ErrExpired is returned once the access token has expired.
	ErrExpired = errors.New("session: access token expired")
)

// Claims are the fields the backend puts into rider access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Identity is the current rider.
type Identity struct {
	UserID    string
	Role      string
	Email     string
	ExpiresAt time.Time
}

// Session is the authenticated rider. The token is issued and verified by the
// backend; the client only reads its claims.
type Session struct {
	token    string
	identity Identity
	now      func() time.Time
}

// New parses token without verifying its signature.
func New(token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("session: parse access token: %w", err)
	}

	id := Identity{UserID: claims.UserID, Role: claims.Role, Email: claims.Email}
	if id.UserID == "" {
		id.UserID = claims.Subject
	}
	if id.UserID == "" {
		return nil, fmt.Errorf("session: access token carries no user id")
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}

	return &Session{token: token, identity: id, now: time.Now}, nil
}

// Identity returns the current rider.
func (s *Session) Identity() Identity {
	return s.identity
}

// UserID returns the current rider's id.
func (s *Session) UserID() string {
	return s.identity.UserID
}

// Expired reports whether the token's exp claim has passed.
func (s *Session) Expired() bool {
	return !s.identity.ExpiresAt.IsZero() && s.now().After(s.identity.ExpiresAt)
}

// Token implements httpclient.TokenSource.
func (s *Session) Token(context.Context) (string, error) {
	if s.Expired() {
		return "", ErrExpired
	}
	return s.token, nil
}
