package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"csi-api/internal/domain"
)

// ErrDuplicateEmail se devuelve al crear un usuario con un email ya registrado.
var ErrDuplicateEmail = errors.New("email already registered")

const pgUniqueViolation = "23505"

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateProfile(ctx context.Context, id, fullName, phone string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

const userColumns = `id, email, full_name, phone, password_hash, active, reset_code_hash, reset_expires_at, created_at`

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, full_name, phone, password_hash, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.Phone,
		user.PasswordHash,
		user.Active,
		user.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PgUserRepository) UpdateProfile(ctx context.Context, id, fullName, phone string) error {
	const query = `UPDATE users SET full_name = $2, phone = $3 WHERE id = $1`
	return r.execOne(ctx, query, id, fullName, phone)
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `
		UPDATE users
		SET password_hash = $2, reset_code_hash = '', reset_expires_at = NULL
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, passwordHash)
}

func (r *PgUserRepository) UpdateResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error {
	const query = `UPDATE users SET reset_code_hash = $2, reset_expires_at = $3 WHERE id = $1`
	return r.execOne(ctx, query, id, codeHash, expiresAt)
}

func (r *PgUserRepository) execOne(ctx context.Context, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&u.Phone,
		&u.PasswordHash,
		&u.Active,
		&u.ResetCodeHash,
		&u.ResetExpiresAt,
		&u.CreatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
