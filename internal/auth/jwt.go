// Package auth verifies bearer tokens and carries the caller's company and
// role through the request context.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptyToken     = errors.New("auth: empty token")
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrMissingCompany = errors.New("auth: missing company_id")
	ErrInvalidRole    = errors.New("auth: invalid role")
)

// Role is the caller's permission level.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleAdvisor Role = "advisor"
	RoleAdmin   Role = "admin"
)

func (r Role) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleAdvisor:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

// Allows reports whether r grants at least the permissions of required.
func (r Role) Allows(required Role) bool {
	return r.rank() > 0 && r.rank() >= required.rank()
}

// NormalizeRole parses a role claim.
func NormalizeRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.rank() > 0
}

// Claims represents JWT claims used by this service.
type Claims struct {
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// ParseJWT validates an HS256 token and returns its claims.
func ParseJWT(tokenString string, secret []byte) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrEmptyToken
	}
	if len(secret) == 0 {
		return nil, errors.New("auth: empty secret")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.CompanyID == "" {
		return nil, ErrMissingCompany
	}
	if _, ok := NormalizeRole(claims.Role); !ok {
		return nil, ErrInvalidRole
	}
	return claims, nil
}

// IssueToken signs a token for companyID with the given role. The server's
// token subcommand uses it to mint development tokens.
func IssueToken(secret []byte, companyID string, role Role, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		CompanyID: companyID,
		Role:      string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
