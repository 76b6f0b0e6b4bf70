package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"csi-api/internal/domain"
)

func TestMemoryTestSessionRepository_CompleteOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTestSessionRepository()
	session := domain.TestSession{ID: "t1", OwnerID: "u1", Context: "conflicto laboral", StartedAt: time.Now().UTC()}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, session); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}

	completion := domain.Completion{
		CompletedAt: time.Now().UTC(),
		Responses:   domain.ResponseSet{1: 3},
		Result:      domain.ScoreResult{Summary: domain.LevelSummary{LowCount: 8}},
	}
	if err := repo.Complete(ctx, "t1", completion); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := repo.Complete(ctx, "t1", completion); !errors.Is(err, ErrTestAlreadyCompleted) {
		t.Fatalf("expected ErrTestAlreadyCompleted, got %v", err)
	}
	if err := repo.Complete(ctx, "missing", completion); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}

	got, err := repo.GetByID(ctx, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State() != domain.TestStateCompleted || got.Completion.Responses[1] != 3 {
		t.Fatalf("unexpected stored session %+v", got)
	}

	got.Completion.Responses[1] = 0
	again, _ := repo.GetByID(ctx, "t1")
	if again.Completion.Responses[1] != 3 {
		t.Fatalf("stored responses must not be mutable through returned copies")
	}
}

func TestMemoryTestSessionRepository_ListByOwnerKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTestSessionRepository()
	for _, s := range []domain.TestSession{
		{ID: "c", OwnerID: "u1"},
		{ID: "a", OwnerID: "u2"},
		{ID: "b", OwnerID: "u1"},
	} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	sessions, err := repo.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "c" || sessions[1].ID != "b" {
		t.Fatalf("unexpected order %+v", sessions)
	}

	none, err := repo.ListByOwner(ctx, "u3")
	if err != nil || len(none) != 0 {
		t.Fatalf("expected empty list, got %v %v", none, err)
	}
}

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()
	user := domain.User{ID: "u1", Email: "ana@example.com", FullName: "Ana Ruiz", Active: true}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, domain.User{ID: "u2", Email: "ana@example.com"}); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	expires := time.Now().UTC().Add(time.Minute)
	if err := repo.UpdateResetCode(ctx, "u1", "salt:hash", expires); err != nil {
		t.Fatalf("update reset: %v", err)
	}
	if err := repo.UpdatePassword(ctx, "u1", "newhash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	got, err := repo.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.PasswordHash != "newhash" || got.ResetCodeHash != "" || got.ResetExpiresAt != nil {
		t.Fatalf("expected password updated and reset cleared, got %+v", got)
	}
	if err := repo.UpdateProfile(ctx, "missing", "x", ""); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows, got %v", err)
	}
}
