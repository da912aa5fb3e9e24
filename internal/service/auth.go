package service

import (
	"fmt"
	"time"

	"github.com/boddenberg/finance-dashboard-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer     = "finance-dashboard"
	tokenTypeAccess = "access"
)

// Claims are the access token claims. The subject is the customer ID.
type Claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// CustomerID returns the customer the token was issued to.
func (c *Claims) CustomerID() string { return c.Subject }

// TokenVerifier issues and validates HS256 access tokens.
type TokenVerifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenVerifier creates a verifier for tokens signed with secret.
func NewTokenVerifier(secret string, ttl time.Duration) *TokenVerifier {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenVerifier{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign issues an access token for customerID.
func (v *TokenVerifier) Sign(customerID string) (string, error) {
	now := v.now()
	claims := Claims{
		Type: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify parses tokenString and checks its signature, expiry and type.
func (v *TokenVerifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "invalid token"}
	}
	if claims.Type != tokenTypeAccess {
		return nil, &domain.ErrUnauthorized{Message: "invalid token type"}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "token has no subject"}
	}
	return claims, nil
}
