package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"csi-api/internal/domain"
)

// MemoryUserRepository es el almacen de usuarios sin base de datos.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, id, fullName, phone string) error {
	return r.update(id, func(u *domain.User) {
		u.FullName = fullName
		u.Phone = phone
	})
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.update(id, func(u *domain.User) {
		u.PasswordHash = passwordHash
		u.ResetCodeHash = ""
		u.ResetExpiresAt = nil
	})
}

func (r *MemoryUserRepository) UpdateResetCode(_ context.Context, id, codeHash string, expiresAt time.Time) error {
	return r.update(id, func(u *domain.User) {
		u.ResetCodeHash = codeHash
		u.ResetExpiresAt = &expiresAt
	})
}

func (r *MemoryUserRepository) update(id string, fn func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	fn(&user)
	r.byID[id] = user
	return nil
}
