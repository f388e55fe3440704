// Package token validates the HMAC-signed bearer tokens issued by the
// organization's identity provider. Only validation lives here; issuance is
// external.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"rosterd/internal/platform/middleware"
)

// Validator checks token signatures and extracts caller claims.
type Validator struct {
	signingKey []byte
}

func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

type rosterClaims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies a bearer token, returning the caller's
// identity and roles.
func (v *Validator) ValidateToken(tokenString string) (*middleware.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &rosterClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*rosterClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	return &middleware.Claims{
		ActorID: claims.Subject,
		Roles:   claims.Roles,
	}, nil
}

// Sign issues a token for tests and local development.
func Sign(signingKey, subject string, roles []string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, rosterClaims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subject,
		},
	})
	return t.SignedString([]byte(signingKey))
}
