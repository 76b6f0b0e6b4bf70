package repository

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/jackc/pgx/v5"

	"csi-api/internal/domain"
)

// MemoryTestSessionRepository guarda tests en memoria preservando el orden de creacion.
type MemoryTestSessionRepository struct {
	mu    sync.RWMutex
	items map[string]domain.TestSession
	order []string
}

func NewMemoryTestSessionRepository() *MemoryTestSessionRepository {
	return &MemoryTestSessionRepository{
		items: make(map[string]domain.TestSession),
	}
}

func (r *MemoryTestSessionRepository) Create(_ context.Context, session domain.TestSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[session.ID]; exists {
		return fmt.Errorf("test %s already exists", session.ID)
	}
	session.Completion = cloneCompletion(session.Completion)
	r.items[session.ID] = session
	r.order = append(r.order, session.ID)
	return nil
}

func (r *MemoryTestSessionRepository) GetByID(_ context.Context, id string) (domain.TestSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.items[id]
	if !ok {
		return domain.TestSession{}, pgx.ErrNoRows
	}
	session.Completion = cloneCompletion(session.Completion)
	return session, nil
}

func (r *MemoryTestSessionRepository) Complete(_ context.Context, id string, completion domain.Completion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.items[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if session.Completion != nil {
		return ErrTestAlreadyCompleted
	}
	session.Completion = cloneCompletion(&completion)
	r.items[id] = session
	return nil
}

func (r *MemoryTestSessionRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.TestSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sessions []domain.TestSession
	for _, id := range r.order {
		session := r.items[id]
		if session.OwnerID != ownerID {
			continue
		}
		session.Completion = cloneCompletion(session.Completion)
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// cloneCompletion evita que el llamador mute los mapas guardados.
func cloneCompletion(c *domain.Completion) *domain.Completion {
	if c == nil {
		return nil
	}
	out := *c
	if c.CopingCapacity != nil {
		rating := *c.CopingCapacity
		out.CopingCapacity = &rating
	}
	out.Responses = maps.Clone(c.Responses)
	out.Result.RawScores = maps.Clone(c.Result.RawScores)
	out.Result.Percentiles = maps.Clone(c.Result.Percentiles)
	out.Result.Levels = maps.Clone(c.Result.Levels)
	out.Result.Interpretations = maps.Clone(c.Result.Interpretations)
	return &out
}
