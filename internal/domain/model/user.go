package model

import (
	"strings"
	"time"

	"edu-tutor/internal/domain"
)

// Grade is the student's declared class. Only classes 6 to 10 are served.
type Grade string

var validGrades = map[Grade]struct{}{"6": {}, "7": {}, "8": {}, "9": {}, "10": {}}

func (g Grade) Valid() bool {
	_, ok := validGrades[g]
	return ok
}

// User is a registered student. PasswordHash never holds plaintext.
type User struct {
	ID           ID        `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Grade        Grade     `json:"student_class"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewUser(username, passwordHash string, grade Grade, email string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !grade.Valid() {
		return nil, domain.NewError(domain.ErrValidation, "Class must be between 6 and 10")
	}
	return &User{
		ID:           NewID(),
		Username:     username,
		PasswordHash: passwordHash,
		Grade:        grade,
		Email:        strings.TrimSpace(email),
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID.IsZero() }
