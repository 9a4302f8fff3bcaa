// Package auth issues and verifies the service's JWTs: user access tokens
// and short-lived storage tokens scoped to one archive operation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultblob/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Group types carried in a user token. They match the client's session.
const (
	GroupUser = "user"
	GroupMail = "mail"
	GroupFile = "file"
)

var groupNamespace = uuid.MustParse("5b1e9a4c-2f0d-4c35-9b0e-7a61d2c4e8f3")

// GroupsFor returns the group memberships of userID. Ids are stable, so
// tokens minted for the same user share their groups.
func GroupsFor(userID string) map[string]string {
	groups := make(map[string]string, 3)
	for _, t := range []string{GroupUser, GroupMail, GroupFile} {
		groups[t] = uuid.NewSHA1(groupNamespace, []byte(userID+"/"+t)).String()
	}
	return groups
}

// Claims of a user access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string            `json:"uid"`
	Groups map[string]string `json:"groups,omitempty"`
}

// IsMember reports whether the user belongs to group.
func (c *Claims) IsMember(group string) bool {
	for _, g := range c.Groups {
		if g == group {
			return true
		}
	}
	return false
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
		Groups: GroupsFor(userID),
	})

	return token.SignedString(secretKey)
}

func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}
	if err := parse(tokenString, claims, secretKey); err != nil {
		return nil, err
	}
	if claims.UserID == "" || len(claims.Groups) == 0 {
		return nil, fmt.Errorf("%w: not a user token", common.ErrInvalidToken)
	}
	return claims, nil
}

func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := ParseToken(tokenString, secretKey)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Storage token scopes.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

// StorageClaims grant one user read access to an archive or write access
// to the archive of an owner group.
type StorageClaims struct {
	jwt.RegisteredClaims
	UserID     string `json:"uid"`
	Scope      string `json:"scope"`
	ArchiveID  string `json:"archiveId"`
	OwnerGroup string `json:"ownerGroup,omitempty"`
}

func GenerateStorageToken(claims StorageClaims, secretKey []byte, validityDuration time.Duration) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(validityDuration))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
}

func ParseStorageToken(tokenString string, secretKey []byte) (*StorageClaims, error) {
	claims := &StorageClaims{}
	if err := parse(tokenString, claims, secretKey); err != nil {
		return nil, err
	}
	if claims.Scope != ScopeRead && claims.Scope != ScopeWrite {
		return nil, fmt.Errorf("%w: unknown scope %q", common.ErrInvalidToken, claims.Scope)
	}
	return claims, nil
}

func parse(tokenString string, claims jwt.Claims, secretKey []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return common.ErrTokenExpired
	}
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
