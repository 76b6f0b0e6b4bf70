package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"csi-api/internal/domain"
)

// ErrTestAlreadyCompleted se devuelve cuando Complete encuentra el test ya cerrado.
var ErrTestAlreadyCompleted = errors.New("test already completed")

// TestSessionRepository define el contrato de persistencia de tests CSI.
// Complete es el unico punto de mutacion y debe ser atomico respecto del estado.
type TestSessionRepository interface {
	Create(ctx context.Context, session domain.TestSession) error
	GetByID(ctx context.Context, id string) (domain.TestSession, error)
	Complete(ctx context.Context, id string, completion domain.Completion) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.TestSession, error)
}

// PgTestSessionRepository implementa TestSessionRepository usando pgxpool.
type PgTestSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgTestSessionRepository(pool *pgxpool.Pool) *PgTestSessionRepository {
	return &PgTestSessionRepository{pool: pool}
}

func (r *PgTestSessionRepository) Create(ctx context.Context, session domain.TestSession) error {
	const query = `
		INSERT INTO test_sessions (id, owner_id, context, started_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.OwnerID,
		session.Context,
		session.StartedAt,
	)
	return err
}

func (r *PgTestSessionRepository) GetByID(ctx context.Context, id string) (domain.TestSession, error) {
	const query = `
		SELECT id, owner_id, context, started_at, completed_at, coping_capacity, responses, results
		FROM test_sessions
		WHERE id = $1
	`
	return scanTestSession(r.pool.QueryRow(ctx, query, id))
}

// Complete adjunta respuestas y resultado en una sola sentencia condicionada a
// completed_at IS NULL, de modo que dos envios concurrentes no pueden ganar ambos.
func (r *PgTestSessionRepository) Complete(ctx context.Context, id string, completion domain.Completion) error {
	responses, err := json.Marshal(completion.Responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}
	results, err := json.Marshal(completion.Result)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	const query = `
		UPDATE test_sessions
		SET completed_at = $2, coping_capacity = $3, responses = $4, results = $5
		WHERE id = $1 AND completed_at IS NULL
	`
	tag, err := r.pool.Exec(ctx, query,
		id,
		completion.CompletedAt,
		completion.CopingCapacity,
		responses,
		results,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM test_sessions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrTestAlreadyCompleted
}

func (r *PgTestSessionRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.TestSession, error) {
	const query = `
		SELECT id, owner_id, context, started_at, completed_at, coping_capacity, responses, results
		FROM test_sessions
		WHERE owner_id = $1
		ORDER BY seq
	`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.TestSession
	for rows.Next() {
		session, err := scanTestSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

func scanTestSession(row pgx.Row) (domain.TestSession, error) {
	var (
		s           domain.TestSession
		completedAt *time.Time
		coping      *int
		responses   []byte
		results     []byte
	)
	if err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Context,
		&s.StartedAt,
		&completedAt,
		&coping,
		&responses,
		&results,
	); err != nil {
		return domain.TestSession{}, err
	}
	if completedAt == nil {
		return s, nil
	}

	completion := &domain.Completion{
		CompletedAt:    *completedAt,
		CopingCapacity: coping,
	}
	if err := json.Unmarshal(responses, &completion.Responses); err != nil {
		return domain.TestSession{}, fmt.Errorf("decode responses for test %s: %w", s.ID, err)
	}
	if err := json.Unmarshal(results, &completion.Result); err != nil {
		return domain.TestSession{}, fmt.Errorf("decode results for test %s: %w", s.ID, err)
	}
	s.Completion = completion
	return s, nil
}
