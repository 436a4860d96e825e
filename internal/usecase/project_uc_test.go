package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
)

func TestProjectUC_CRUD(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	owner := model.NewID()

	if _, err := e.projects.Create(ctx, owner, ProjectInput{Name: " "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("blank name: expected ErrValidation, got %v", err)
	}
	algebra, err := e.projects.Create(ctx, owner, ProjectInput{Name: "Algebra"})
	if err != nil {
		t.Fatal(err)
	}
	geometry, _ := e.projects.Create(ctx, owner, ProjectInput{Name: "Geometry"})

	e.projects.now = func() time.Time { return time.Now().UTC().Add(time.Hour) }
	if _, err := e.projects.Update(ctx, owner, algebra.ID, ProjectInput{Name: "Algebra II", Description: "linear equations"}); err != nil {
		t.Fatal(err)
	}

	list, err := e.projects.List(ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != algebra.ID || list[1].ID != geometry.ID {
		t.Fatalf("expected recently updated first, got %+v", list)
	}
	if list[0].Name != "Algebra II" || list[0].Description != "linear equations" {
		t.Errorf("update not applied: %+v", list[0])
	}

	if _, err := e.projects.Update(ctx, model.NewID(), algebra.ID, ProjectInput{Name: "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("update by non-owner: expected ErrNotFound, got %v", err)
	}
	if others, _ := e.projects.List(ctx, model.NewID()); len(others) != 0 {
		t.Errorf("projects leaked across owners: %+v", others)
	}
}

func TestProjectUC_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	owner := model.NewID()
	proj, _ := e.projects.Create(ctx, owner, ProjectInput{Name: "Science"})

	const k = 3
	var inProject []model.ID
	for i := 0; i < k; i++ {
		s, _ := e.conv.CreateSession(ctx, owner, "q", model.Grouping{ProjectID: proj.ID})
		inProject = append(inProject, s.ID)
	}
	loose, _ := e.conv.CreateSession(ctx, owner, "q", model.Grouping{})
	_, _ = e.conv.GetSession(ctx, inProject[0], owner) // cached copy must not survive

	before, _ := e.conv.ListSessions(ctx, owner, repository.SessionFilter{Mode: repository.FilterAll})

	if _, err := e.projects.Delete(ctx, model.NewID(), proj.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete by non-owner: expected ErrNotFound, got %v", err)
	}
	n, err := e.projects.Delete(ctx, owner, proj.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != k {
		t.Errorf("expected %d sessions removed, got %d", k, n)
	}

	after, _ := e.conv.ListSessions(ctx, owner, repository.SessionFilter{Mode: repository.FilterAll})
	if len(before)-len(after) != k {
		t.Errorf("expected %d fewer sessions, before=%d after=%d", k, len(before), len(after))
	}
	left, _ := e.conv.ListSessions(ctx, owner, repository.SessionFilter{Mode: repository.FilterProject, ProjectID: proj.ID})
	if len(left) != 0 {
		t.Errorf("sessions left in deleted project: %+v", left)
	}
	for _, id := range inProject {
		if _, err := e.conv.GetSession(ctx, id, owner); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("session %s still readable: %v", id, err)
		}
	}
	if _, err := e.conv.GetSession(ctx, loose.ID, owner); err != nil {
		t.Errorf("ungrouped session must survive: %v", err)
	}
}

func TestProjectUC_MoveSession(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	owner, other := model.NewID(), model.NewID()
	proj, _ := e.projects.Create(ctx, owner, ProjectInput{Name: "Maths"})
	foreign, _ := e.projects.Create(ctx, other, ProjectInput{Name: "Theirs"})
	s, _ := e.conv.CreateSession(ctx, owner, "q", model.Grouping{})

	if err := e.projects.MoveSession(ctx, owner, s.ID, proj.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := e.conv.GetSession(ctx, s.ID, owner)
	if got.Grouping.ProjectID != proj.ID {
		t.Fatalf("session not moved: %+v", got.Grouping)
	}

	if err := e.projects.MoveSession(ctx, owner, s.ID, foreign.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("moving into someone else's project: expected ErrForbidden, got %v", err)
	}
	if err := e.projects.MoveSession(ctx, owner, s.ID, model.NewID()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("moving into a missing project: expected ErrNotFound, got %v", err)
	}
	if err := e.projects.MoveSession(ctx, other, s.ID, ""); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("moving someone else's session: expected ErrNotFound, got %v", err)
	}

	if err := e.projects.MoveSession(ctx, owner, s.ID, ""); err != nil {
		t.Fatal(err)
	}
	got, _ = e.conv.GetSession(ctx, s.ID, owner)
	if !got.Grouping.ProjectID.IsZero() {
		t.Errorf("session should be ungrouped, got %+v", got.Grouping)
	}
}
