// Package identity issues and verifies the bearer tokens that bind an HTTP
// caller to an opaque on-ledger address. Every mutating registry operation
// reads the caller address from a verified token; the ledger itself never
// sees HTTP credentials.
package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CallerClaims are the JWT claims for a registry caller token.
type CallerClaims struct {
	jwt.RegisteredClaims
	Address string `json:"address"`
}

// TokenIssuer issues and verifies caller JWTs with an HMAC-SHA256 key.
type TokenIssuer struct {
	key    []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer.
//
//	key       — shared HMAC signing key; must be non-empty.
//	issuerURL — the "iss" claim value; matches the registry's base URL.
//	ttl       — token lifetime (default: 24 hours).
func NewTokenIssuer(key []byte, issuerURL string, ttl time.Duration) (*TokenIssuer, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("token signing key must not be empty")
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{key: key, issuer: issuerURL, ttl: ttl}, nil
}

// Issue creates a signed token binding the given caller address.
func (t *TokenIssuer) Issue(address string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("caller address must not be empty")
	}
	now := time.Now().UTC()
	claims := CallerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.New().String(),
		},
		Address: address,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign caller token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a caller token, returning its claims.
func (t *TokenIssuer) Verify(tokenStr string) (*CallerClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&CallerClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return t.key, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("verify caller token: %w", err)
	}
	claims, ok := token.Claims.(*CallerClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid caller token claims")
	}
	if claims.Address == "" {
		return nil, fmt.Errorf("caller token carries no address")
	}
	return claims, nil
}
