// Package auth provides token-based authentication for the operator API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/undergrid/stagehand/internal/config"
)

// DefaultTokenTTL is used when no token lifetime is configured.
const DefaultTokenTTL = 24 * time.Hour

// Claims holds the validated contents of an operator token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

// TokenService mints and validates operator tokens.
type TokenService interface {
	// Mint creates a signed token for the given subject. A zero ttl uses
	// the service default.
	Mint(subject string, ttl time.Duration) (string, error)

	// Validate checks a token's signature and time claims. It returns
	// ErrExpiredToken for expired tokens and ErrInvalidToken for
	// everything else that fails.
	Validate(token string) (*Claims, error)
}

// hmacTokenService signs tokens with HMAC-SHA256.
type hmacTokenService struct {
	signingKey []byte
	tokenTTL   time.Duration
	timeFunc   func() time.Time // Injectable for testing
	clockSkew  time.Duration
}

var _ TokenService = (*hmacTokenService)(nil)

// NewTokenService creates a TokenService from the auth configuration.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	ttl := DefaultTokenTTL
	if cfg.TokenTTLMinutes > 0 {
		ttl = time.Duration(cfg.TokenTTLMinutes) * time.Minute
	}

	return &hmacTokenService{
		signingKey: []byte(cfg.JWTSecret),
		tokenTTL:   ttl,
		timeFunc:   time.Now,
		clockSkew:  2 * time.Minute, // Tolerate minor drift between issuer and validator clocks
	}, nil
}

// Mint creates a signed operator token.
func (s *hmacTokenService) Mint(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.tokenTTL
	}
	now := s.timeFunc()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token with HMAC-SHA256: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies an operator token.
func (s *hmacTokenService) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := s.timeFunc()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(s.clockSkew),
		jwt.WithTimeFunc(func() time.Time { return now }),
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.signingKey, nil
		},
		parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	out := &Claims{
		Subject: claims.Subject,
		ID:      claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
