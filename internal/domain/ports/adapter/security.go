package adapter

import (
	"time"

	"edu-tutor/internal/domain/model"
)

// PasswordHasher stores salted one-way hashes; Verify is constant time with respect to the hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer signs and validates bearer tokens whose subject is a user id.
type TokenIssuer interface {
	Issue(userID model.ID) (token string, expiresAt time.Time, err error)
	// Validate fails with domain.ErrAuth on a bad signature or an elapsed expiry.
	Validate(token string) (model.ID, error)
}
