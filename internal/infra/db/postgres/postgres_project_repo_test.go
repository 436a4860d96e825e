//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
)

func TestProjectRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	users := NewPostgresUserRepo(testPool)
	repo := NewPostgresProjectRepo(testPool)

	cleanup(t)
	alice := mustUser(t, users, "alice")
	first, _ := model.NewProject(alice.ID, "Algebra", "equations")
	second, _ := model.NewProject(alice.ID, "Geometry", "")
	for _, p := range []*model.Project{first, second} {
		if err := repo.Create(ctx, nil, p); err != nil {
			t.Fatal(err)
		}
	}

	if err := first.Rename("Algebra II", "quadratics", time.Now().UTC().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(ctx, nil, first); err != nil {
		t.Fatal(err)
	}

	list, err := repo.ListByUser(ctx, nil, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[0].Name != "Algebra II" {
		t.Fatalf("unexpected list %+v", list)
	}

	if err := repo.Delete(ctx, nil, second.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.FindByID(ctx, nil, second.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, nil, second.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}
