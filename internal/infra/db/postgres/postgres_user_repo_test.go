//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
)

func mustUser(t *testing.T, repo *PostgresUserRepo, name string) *model.User {
	t.Helper()
	u, err := model.NewUser(name, "$2a$10$hash", "8", name+"@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(context.Background(), nil, u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	repo := NewPostgresUserRepo(testPool)
	ctx := context.Background()

	t.Run("should create and read back", func(t *testing.T) {
		cleanup(t)
		u := mustUser(t, repo, "integration_user")

		byName, err := repo.FindByUsername(ctx, nil, "Integration_User")
		if err != nil {
			t.Fatalf("FindByUsername: %v", err)
		}
		if byName.ID != u.ID || byName.Grade != "8" || byName.PasswordHash != u.PasswordHash {
			t.Errorf("unexpected user %+v", byName)
		}
		byID, err := repo.FindByID(ctx, nil, u.ID)
		if err != nil || byID.Username != "integration_user" {
			t.Fatalf("FindByID: %+v %v", byID, err)
		}
	})

	t.Run("should reject duplicate usernames", func(t *testing.T) {
		cleanup(t)
		mustUser(t, repo, "alice")
		dup, _ := model.NewUser("ALICE", "h", "9", "")
		if err := repo.Create(ctx, nil, dup); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("should report missing users", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, model.NewID()); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
