// Package auth issues and validates the stateless bearer tokens handed out
// on login. Tokens are HS256 JWTs whose subject is the account id.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/eatsauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenConfig is the immutable signing configuration built once at startup.
// A zero Validity issues tokens without an expiry.
type TokenConfig struct {
	Secret   []byte
	Validity time.Duration
}

// TokenService signs and validates tokens. It is safe for concurrent use.
type TokenService struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewTokenService copies cfg into a new service.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if cfg.Validity < 0 {
		return nil, errors.New("token validity must not be negative")
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenService{secret: secret, validity: cfg.Validity, now: time.Now}, nil
}

// Issue returns a signed token carrying subjectID.
func (s *TokenService) Issue(subjectID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:  subjectID,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if s.validity > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.validity))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Validate checks the signature and returns the subject. Expired tokens
// yield common.ErrTokenExpired, everything else common.ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
