// Package auth provides the session's auth headers. The access token is a
// JWT issued by the service; the client reads its claims without verifying
// the signature, which is the server's job.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

type GroupType string

const (
	GroupTypeUser GroupType = "user"
	GroupTypeMail GroupType = "mail"
	GroupTypeFile GroupType = "file"
)

// Claims of a user access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string               `json:"uid"`
	Groups map[GroupType]string `json:"groups,omitempty"`
}

// Session is an authenticated user session.
type Session struct {
	token     string
	userID    string
	groups    map[GroupType]string
	expiresAt time.Time
	now       func() time.Time
}

// NewSession reads the claims of accessToken. An expired token is rejected
// with common.ErrAccessDenied.
func NewSession(accessToken string) (*Session, error) {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(accessToken, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", common.ErrInvalidToken)
	}

	s := &Session{
		token:  accessToken,
		userID: claims.UserID,
		groups: claims.Groups,
		now:    time.Now,
	}
	if claims.ExpiresAt != nil {
		s.expiresAt = claims.ExpiresAt.Time
	}
	if s.Expired() {
		return nil, fmt.Errorf("%w: %w", common.ErrAccessDenied, common.ErrTokenExpired)
	}
	return s, nil
}

func (s *Session) UserID() string { return s.userID }

func (s *Session) Expired() bool {
	return !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt)
}

// CreateAuthHeaders returns the headers that authenticate a request.
func (s *Session) CreateAuthHeaders() map[string]string {
	return map[string]string{common.AccessTokenHeaderName: s.token}
}

var ErrNoMembership = errors.New("no group membership")

// GroupID returns the id of the user's group of type t.
func (s *Session) GroupID(t GroupType) (string, error) {
	id, ok := s.groups[t]
	if !ok || id == "" {
		return "", fmt.Errorf("%w: %w of type %s", common.ErrAccessDenied, ErrNoMembership, t)
	}
	return id, nil
}
