//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
)

func TestChatSessionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	users := NewPostgresUserRepo(testPool)
	projects := NewPostgresProjectRepo(testPool)
	repo := NewPostgresChatSessionRepo(testPool)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("should create, append and read back in order", func(t *testing.T) {
		cleanup(t)
		alice := mustUser(t, users, "alice")
		s := model.NewChatSession(alice.ID, "What is a fraction?", model.Grouping{Subject: "Mathematics", Topic: "Fractions"}, base)
		s.AddMessages(model.NewChatMessage(model.RoleUser, "What is a fraction?", base))
		if err := repo.Create(ctx, nil, s); err != nil {
			t.Fatal(err)
		}

		later := base.Add(time.Minute)
		if err := repo.AppendMessages(ctx, nil, s.ID, alice.ID, []model.ChatMessage{
			model.NewChatMessage(model.RoleAssistant, "A part of a whole.", later),
		}, later); err != nil {
			t.Fatal(err)
		}

		got, err := repo.FindByID(ctx, nil, s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Messages) != 2 || got.Messages[1].Role != model.RoleAssistant {
			t.Fatalf("unexpected messages %+v", got.Messages)
		}
		if got.Grouping.Subject != "Mathematics" || !got.Grouping.ProjectID.IsZero() {
			t.Errorf("unexpected grouping %+v", got.Grouping)
		}
		if !got.UpdatedAt.Equal(later) {
			t.Errorf("updated_at not bumped: %v", got.UpdatedAt)
		}

		other := mustUser(t, users, "bob")
		err = repo.AppendMessages(ctx, nil, s.ID, other.ID, []model.ChatMessage{model.NewChatMessage(model.RoleUser, "x", later)}, later)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("append by non-owner: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("concurrent appends never lose turns", func(t *testing.T) {
		cleanup(t)
		alice := mustUser(t, users, "alice")
		s := model.NewChatSession(alice.ID, "q", model.Grouping{}, base)
		if err := repo.Create(ctx, nil, s); err != nil {
			t.Fatal(err)
		}

		const writers = 10
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				at := time.Now().UTC()
				_ = repo.AppendMessages(ctx, nil, s.ID, alice.ID, []model.ChatMessage{
					model.NewChatMessage(model.RoleUser, "q", at),
					model.NewChatMessage(model.RoleAssistant, "a", at),
				}, at)
			}()
		}
		wg.Wait()

		got, _ := repo.FindByID(ctx, nil, s.ID)
		if len(got.Messages) != 2*writers {
			t.Fatalf("expected %d messages, got %d", 2*writers, len(got.Messages))
		}
	})

	t.Run("should filter, sort and cascade by project", func(t *testing.T) {
		cleanup(t)
		alice := mustUser(t, users, "alice")
		p, _ := model.NewProject(alice.ID, "Algebra", "")
		if err := projects.Create(ctx, nil, p); err != nil {
			t.Fatal(err)
		}

		loose := model.NewChatSession(alice.ID, "loose", model.Grouping{}, base)
		g1 := model.NewChatSession(alice.ID, "g1", model.Grouping{ProjectID: p.ID}, base.Add(time.Hour))
		g2 := model.NewChatSession(alice.ID, "g2", model.Grouping{ProjectID: p.ID}, base.Add(2*time.Hour))
		for _, s := range []*model.ChatSession{loose, g1, g2} {
			if err := repo.Create(ctx, nil, s); err != nil {
				t.Fatal(err)
			}
		}

		all, err := repo.ListByUser(ctx, nil, alice.ID, repository.SessionFilter{Mode: repository.FilterAll})
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 3 || all[0].ID != g2.ID || all[2].ID != loose.ID {
			t.Fatalf("expected updated_at desc, got %+v", all)
		}
		inProject, _ := repo.ListByUser(ctx, nil, alice.ID, repository.SessionFilter{Mode: repository.FilterProject, ProjectID: p.ID})
		if len(inProject) != 2 || inProject[0].Grouping.ProjectID != p.ID {
			t.Errorf("project filter: %+v", inProject)
		}
		ungrouped, _ := repo.ListByUser(ctx, nil, alice.ID, repository.SessionFilter{Mode: repository.FilterUngrouped})
		if len(ungrouped) != 1 || ungrouped[0].ID != loose.ID {
			t.Errorf("ungrouped filter: %+v", ungrouped)
		}

		tm := NewTxManager(testPool)
		var removed []model.ID
		err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			ids, err := repo.DeleteByProject(ctx, tx, p.ID)
			if err != nil {
				return err
			}
			removed = ids
			return projects.Delete(ctx, tx, p.ID)
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(removed) != 2 {
			t.Errorf("expected 2 removed sessions, got %v", removed)
		}
		left, _ := repo.ListByUser(ctx, nil, alice.ID, repository.SessionFilter{Mode: repository.FilterAll})
		if len(left) != 1 || left[0].ID != loose.ID {
			t.Errorf("expected only the loose session to survive, got %+v", left)
		}
	})

	t.Run("should move and delete with ownership", func(t *testing.T) {
		cleanup(t)
		alice := mustUser(t, users, "alice")
		bob := mustUser(t, users, "bob")
		p, _ := model.NewProject(alice.ID, "Science", "")
		_ = projects.Create(ctx, nil, p)
		s := model.NewChatSession(alice.ID, "q", model.Grouping{}, base)
		_ = repo.Create(ctx, nil, s)

		if err := repo.SetProject(ctx, nil, s.ID, bob.ID, p.ID, base); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("move by non-owner: expected ErrNotFound, got %v", err)
		}
		if err := repo.SetProject(ctx, nil, s.ID, alice.ID, p.ID, base.Add(time.Minute)); err != nil {
			t.Fatal(err)
		}
		got, _ := repo.FindByID(ctx, nil, s.ID)
		if got.Grouping.ProjectID != p.ID {
			t.Errorf("not moved: %+v", got.Grouping)
		}
		if err := repo.Delete(ctx, nil, s.ID, bob.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("delete by non-owner: expected ErrNotFound, got %v", err)
		}
		if err := repo.Delete(ctx, nil, s.ID, alice.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := repo.FindByID(ctx, nil, s.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}
