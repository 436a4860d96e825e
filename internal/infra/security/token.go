// File: internal/infra/security/token.go
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
)

// ===== JWT bearer tokens =====

type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source; tests use it to move past expiry.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) Issue(userID model.ID) (string, time.Time, error) {
	if userID.IsZero() {
		return "", time.Time{}, domain.ErrInvalidArgument
	}
	now := s.now()
	exp := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
		Subject:   userID.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (s *TokenService) Validate(tok string) (model.ID, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tkn.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.NewError(domain.ErrAuth, "Token has expired")
		}
		return "", domain.NewError(domain.ErrAuth, "Could not validate credentials")
	}
	if claims.Subject == "" {
		return "", domain.NewError(domain.ErrAuth, "Could not validate credentials")
	}
	return model.ID(claims.Subject), nil
}
