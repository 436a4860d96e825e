// File: internal/usecase/auth_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/adapter"
	"edu-tutor/internal/domain/ports/repository"
	"edu-tutor/internal/infra/logging"
)

// Compile-time check
var _ AuthUseCase = (*authUC)(nil)

const invalidCredentials = "Invalid username or password"

type RegisterInput struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,max=72"` // bcrypt ignores anything past 72 bytes
	Grade    string `validate:"required"`
	Email    string `validate:"omitempty,email"`
}

type LoginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

type AuthUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	// Resolve turns a bearer token into the user it was issued for.
	Resolve(ctx context.Context, token string) (*model.User, error)
}

type authUC struct {
	users  repository.UserRepository
	hasher adapter.PasswordHasher
	tokens adapter.TokenIssuer
	log    *zerolog.Logger
	dev    bool

	// dummyHash is compared against on unknown usernames so both failure paths cost the same.
	dummyHash string
}

func NewAuthUseCase(users repository.UserRepository, hasher adapter.PasswordHasher, tokens adapter.TokenIssuer, logger *zerolog.Logger, dev bool) *authUC {
	dummy, _ := hasher.Hash("not-a-real-password")
	return &authUC{users: users, hasher: hasher, tokens: tokens, log: logger, dev: dev, dummyHash: dummy}
}

func (a *authUC) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	defer logging.TraceDuration(a.log, "AuthUC.Register")()

	in.Username = strings.TrimSpace(in.Username)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := a.users.FindByUsername(ctx, nil, in.Username); err == nil {
		return nil, domain.NewError(domain.ErrConflict, "Username already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	grade := model.Grade(strings.TrimSpace(in.Grade))
	if !grade.Valid() {
		return nil, domain.NewError(domain.ErrValidation, "Class must be between 6 and 10")
	}
	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := model.NewUser(in.Username, hash, grade, in.Email)
	if err != nil {
		return nil, err
	}
	if err := a.users.Create(ctx, nil, user); err != nil {
		// lost a race with a concurrent registration of the same name
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.NewError(domain.ErrConflict, "Username already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	a.log.Info().Str("user_id", user.ID.String()).Str("username", logging.Redact(user.Username, a.dev)).Msg("user registered")
	return a.issue(user)
}

func (a *authUC) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	defer logging.TraceDuration(a.log, "AuthUC.Login")()

	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := a.users.FindByUsername(ctx, nil, strings.TrimSpace(in.Username))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		a.hasher.Verify(in.Password, a.dummyHash)
		return nil, domain.NewError(domain.ErrAuth, invalidCredentials)
	}
	if !a.hasher.Verify(in.Password, user.PasswordHash) {
		return nil, domain.NewError(domain.ErrAuth, invalidCredentials)
	}
	return a.issue(user)
}

func (a *authUC) Resolve(ctx context.Context, token string) (*model.User, error) {
	id, err := a.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	user, err := a.users.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrAuth, "User not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (a *authUC) issue(user *model.User) (*AuthResult, error) {
	tok, exp, err := a.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: tok, ExpiresAt: exp, User: user}, nil
}
