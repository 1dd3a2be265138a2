package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer = "pricecrypt"

	// ScopePricesDecode allows a caller to read plaintext prices back out of
	// encoded blobs.
	ScopePricesDecode = "prices:decode"

	ScopeAlertsRead  = "alerts:read"
	ScopeAlertsWrite = "alerts:write"
)

var ErrInvalidToken = errors.New("invalid service token")

// ServiceClaims identify a backend caller and what it may do.
type ServiceClaims struct {
	Scopes []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

func (c *ServiceClaims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

type claimsContextKey struct{}

func WithClaims(ctx context.Context, claims *ServiceClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the verified caller, if any.
func ClaimsFromContext(ctx context.Context) (*ServiceClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*ServiceClaims)
	return claims, ok
}

// TokenService mints and verifies HS256 service tokens.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue mints a token for subject with the given scopes, valid for ttl.
func (s *TokenService) Issue(subject string, scopes []string, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("token service has no signing secret")
	}

	now := time.Now()
	claims := ServiceClaims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			ID:        uuid.New().String(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}
	return signed, nil
}

// Verify validates signature, issuer and expiry.
func (s *TokenService) Verify(tokenString string) (*ServiceClaims, error) {
	if len(s.secret) == 0 {
		return nil, fmt.Errorf("%w: token service has no signing secret", ErrInvalidToken)
	}

	claims := &ServiceClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
