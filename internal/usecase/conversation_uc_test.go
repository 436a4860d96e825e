package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
	"edu-tutor/internal/infra/db/memory"
)

func TestConversationUC_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	owner := model.NewID()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	s, err := e.conv.CreateSession(ctx, owner, "What is a prime number? Explain with examples please, thanks", model.Grouping{},
		model.NewChatMessage(model.RoleUser, "q", at))
	if err != nil {
		t.Fatal(err)
	}
	if s.Title != "What is a prime number? Explain with examples plea..." {
		t.Errorf("unexpected title %q", s.Title)
	}

	got, err := e.conv.GetSession(ctx, s.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	// second read is served from cache
	if _, err := e.conv.GetSession(ctx, s.ID, owner); err != nil {
		t.Fatal(err)
	}
	if e.cache.hits != 1 {
		t.Errorf("expected one cache hit, got %d", e.cache.hits)
	}

	if _, err := e.conv.GetSession(ctx, s.ID, model.NewID()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("other owner: expected ErrNotFound, got %v", err)
	}
	if _, err := e.conv.GetSession(ctx, model.NewID(), owner); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("absent: expected ErrNotFound, got %v", err)
	}
}

func TestConversationUC_AppendKeepsOrder(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	owner := model.NewID()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	s, _ := e.conv.CreateSession(ctx, owner, "first", model.Grouping{})
	_, _ = e.conv.GetSession(ctx, s.ID, owner) // warm the cache

	const turns = 4
	for i := 0; i < turns; i++ {
		at := start.Add(time.Duration(i) * time.Minute)
		err := e.conv.AppendMessages(ctx, s.ID, owner,
			model.NewChatMessage(model.RoleUser, "q", at),
			model.NewChatMessage(model.RoleAssistant, "a", at.Add(time.Second)))
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := e.conv.GetSession(ctx, s.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 2*turns {
		t.Fatalf("expected %d messages, got %d (stale cache?)", 2*turns, len(got.Messages))
	}
	for i, m := range got.Messages {
		want := model.RoleUser
		if i%2 == 1 {
			want = model.RoleAssistant
		}
		if m.Role != want {
			t.Fatalf("message %d: role %s, want %s", i, m.Role, want)
		}
	}
	if !got.UpdatedAt.Equal(start.Add(3*time.Minute + time.Second)) {
		t.Errorf("updated_at not bumped: %v", got.UpdatedAt)
	}

	err = e.conv.AppendMessages(ctx, s.ID, model.NewID(), model.NewChatMessage(model.RoleUser, "x", start))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("append by non-owner: expected ErrNotFound, got %v", err)
	}
}

func TestConversationUC_ListHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	owner := model.NewID()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	var ids []model.ID
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		s, _ := e.conv.CreateSession(ctx, owner, "q", model.Grouping{}, model.NewChatMessage(model.RoleUser, "q", at))
		ids = append(ids, s.ID)
	}
	// touch the oldest so it becomes the most recent
	_ = e.conv.AppendMessages(ctx, ids[0], owner, model.NewChatMessage(model.RoleAssistant, "a", base.Add(5*time.Hour)))

	f := repository.SessionFilter{Mode: repository.FilterAll}
	first, err := e.conv.ListSessions(ctx, owner, f)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := e.conv.ListSessions(ctx, owner, f)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("list is not idempotent:\n%s", diff)
	}

	want := []model.ID{ids[0], ids[2], ids[1]}
	for i, sum := range first {
		if sum.ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, sum.ID, want[i])
		}
		if i > 0 && sum.UpdatedAt.After(first[i-1].UpdatedAt) {
			t.Fatal("not sorted by updated_at desc")
		}
	}
	if first[0].MessageCount != 2 {
		t.Errorf("expected message count 2, got %d", first[0].MessageCount)
	}
}

func TestConversationUC_Delete(t *testing.T) {
	ctx := context.Background()
	e := newEnv()
	owner := model.NewID()
	s, _ := e.conv.CreateSession(ctx, owner, "q", model.Grouping{})
	_, _ = e.conv.GetSession(ctx, s.ID, owner)

	if err := e.conv.DeleteSession(ctx, s.ID, model.NewID()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete by non-owner: expected ErrNotFound, got %v", err)
	}
	if err := e.conv.DeleteSession(ctx, s.ID, owner); err != nil {
		t.Fatal(err)
	}
	if _, err := e.conv.GetSession(ctx, s.ID, owner); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("after delete: expected ErrNotFound, got %v", err)
	}
	if err := e.conv.DeleteSession(ctx, s.ID, owner); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestConversationUC_ReadRacingAppendKeepsCacheFresh(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	repo := &hookRepo{ChatSessionRepository: memory.NewChatSessionRepo(memory.NewStore())}
	cache := newMemCache()
	conv := NewConversationUseCase(repo, cache, &logger)

	owner := model.NewID()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s, err := conv.CreateSession(ctx, owner, "q1", model.Grouping{},
		model.NewChatMessage(model.RoleUser, "q1", at),
		model.NewChatMessage(model.RoleAssistant, "a1", at.Add(time.Second)))
	if err != nil {
		t.Fatal(err)
	}

	// a turn lands between the reader's load and its cache fill
	repo.afterFind = func() {
		err := conv.AppendMessages(ctx, s.ID, owner,
			model.NewChatMessage(model.RoleUser, "q2", at.Add(time.Minute)),
			model.NewChatMessage(model.RoleAssistant, "a2", at.Add(time.Minute+time.Second)))
		if err != nil {
			t.Error(err)
		}
	}
	first, err := conv.GetSession(ctx, s.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Messages) != 2 {
		t.Fatalf("reader loaded before the append, expected 2 messages, got %d", len(first.Messages))
	}

	got, err := conv.GetSession(ctx, s.ID, owner)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Messages) != 4 {
		t.Fatalf("expected 4 messages after the racing append, got %d", len(got.Messages))
	}

	// once the hold is over, reads fill the cache again
	cache.expire()
	_, _ = conv.GetSession(ctx, s.ID, owner)
	hits := cache.hits
	got, _ = conv.GetSession(ctx, s.ID, owner)
	if cache.hits != hits+1 || len(got.Messages) != 4 {
		t.Errorf("expected a fresh cached copy, hits=%d messages=%d", cache.hits-hits, len(got.Messages))
	}
}
