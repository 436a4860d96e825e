package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
)

func TestUserRepo_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(NewStore())
	u1, _ := model.NewUser("alice", "h", "8", "")
	u2, _ := model.NewUser("alice", "h", "9", "")
	if err := repo.Create(ctx, nil, u1); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, nil, u2); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if _, err := repo.FindByUsername(ctx, nil, "bob"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChatSessionRepo_FiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepo(NewStore())
	owner, project := model.NewID(), model.NewID()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	ungrouped := model.NewChatSession(owner, "a", model.Grouping{}, base)
	grouped := model.NewChatSession(owner, "b", model.Grouping{ProjectID: project}, base.Add(time.Minute))
	foreign := model.NewChatSession(model.NewID(), "c", model.Grouping{}, base)
	for _, s := range []*model.ChatSession{ungrouped, grouped, foreign} {
		if err := repo.Create(ctx, nil, s); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.AppendMessages(ctx, nil, ungrouped.ID, owner, []model.ChatMessage{
		model.NewChatMessage(model.RoleUser, "a", base.Add(time.Hour)),
	}, base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	all, _ := repo.ListByUser(ctx, nil, owner, repository.SessionFilter{Mode: repository.FilterAll})
	if len(all) != 2 || all[0].ID != ungrouped.ID {
		t.Fatalf("expected most recently updated first, got %+v", all)
	}
	if all[0].MessageCount != 1 {
		t.Errorf("expected message count 1, got %d", all[0].MessageCount)
	}
	only, _ := repo.ListByUser(ctx, nil, owner, repository.SessionFilter{Mode: repository.FilterProject, ProjectID: project})
	if len(only) != 1 || only[0].ID != grouped.ID {
		t.Errorf("project filter: %+v", only)
	}
	none, _ := repo.ListByUser(ctx, nil, owner, repository.SessionFilter{Mode: repository.FilterUngrouped})
	if len(none) != 1 || none[0].ID != ungrouped.ID {
		t.Errorf("ungrouped filter: %+v", none)
	}

	if err := repo.Delete(ctx, nil, foreign.ID, owner); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("deleting someone else's session must be ErrNotFound, got %v", err)
	}
	ids, err := repo.DeleteByProject(ctx, nil, project)
	if err != nil || len(ids) != 1 || ids[0] != grouped.ID {
		t.Errorf("DeleteByProject: %v %v", ids, err)
	}
}

func TestChatSessionRepo_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewChatSessionRepo(NewStore())
	s := model.NewChatSession(model.NewID(), "q", model.Grouping{}, time.Now())
	_ = repo.Create(ctx, nil, s)

	got, _ := repo.FindByID(ctx, nil, s.ID)
	got.AddMessages(model.NewChatMessage(model.RoleUser, "x", time.Now()))

	again, _ := repo.FindByID(ctx, nil, s.ID)
	if len(again.Messages) != 0 {
		t.Error("mutating a returned session must not change the stored one")
	}
}
