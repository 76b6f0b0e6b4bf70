package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"csi-api/internal/domain"
	"csi-api/internal/email"
	"csi-api/internal/repository"
)

// UserService coordina registro, login, perfil y recuperacion de contraseña.
// Es el colaborador de identidad: el resto del sistema solo ve el ID del usuario.
type UserService struct {
	logger        *zap.Logger
	users         repository.UserRepository
	emailSender   email.Sender
	resetLimiter  RateLimiter
	verifyLimiter RateLimiter
	resetTTL      time.Duration
}

const (
	defaultResetTTL = 10 * time.Minute
	// MaxResetAttempts es el presupuesto de confirmaciones por email dentro de la ventana del codigo.
	MaxResetAttempts = 5
)

// NewUserService recibe dos limitadores: resetLimiter acota las solicitudes de codigo y
// verifyLimiter los intentos de confirmacion. Con nil se usan limitadores en memoria.
func NewUserService(logger *zap.Logger, users repository.UserRepository, emailSender email.Sender, resetLimiter, verifyLimiter RateLimiter, resetTTL time.Duration) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resetTTL <= 0 {
		resetTTL = defaultResetTTL
	}
	if resetLimiter == nil {
		resetLimiter = NewRateLimiter(resetTTL, 3)
	}
	if verifyLimiter == nil {
		verifyLimiter = NewRateLimiter(resetTTL, MaxResetAttempts)
	}
	return &UserService{
		logger:        logger,
		users:         users,
		emailSender:   emailSender,
		resetLimiter:  resetLimiter,
		verifyLimiter: verifyLimiter,
		resetTTL:      resetTTL,
	}
}

type RegisterInput struct {
	Name          string
	FirstSurname  string
	SecondSurname string
	Email         string
	Password      string
	Phone         string
}

type UpdateProfileInput struct {
	FullName *string
	Phone    *string
}

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrResetNotRequested  = errors.New("password reset not requested")
	ErrResetExpired       = errors.New("password reset code expired")
	ErrResetInvalid       = errors.New("password reset code invalid")
	ErrResetLocked        = errors.New("too many password reset attempts")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
)

func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	firstSurname := strings.TrimSpace(input.FirstSurname)
	password := strings.TrimSpace(input.Password)
	if emailAddr == "" || name == "" || firstSurname == "" || password == "" {
		return domain.User{}, ErrInvalidInput
	}

	fullName := name + " " + firstSurname
	if second := strings.TrimSpace(input.SecondSurname); second != "" {
		fullName += " " + second
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		FullName:     fullName,
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	if !user.Active {
		return domain.User{}, ErrAccountDisabled
	}
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// UpdateProfile solo modifica los campos presentes; un nombre vacio se ignora.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if input.FullName != nil {
		if name := strings.TrimSpace(*input.FullName); name != "" {
			user.FullName = name
		}
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if err := s.users.UpdateProfile(ctx, user.ID, user.FullName, user.Phone); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(currentPassword))) != nil {
		return ErrInvalidCredentials
	}
	return s.setPassword(ctx, user.ID, newPassword)
}

// RequestPasswordReset envia un codigo de 6 digitos. Para emails desconocidos
// no hace nada y responde sin error, asi no se filtra que cuentas existen.
func (s *UserService) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	if s.users == nil {
		return errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidInput
	}
	if s.resetLimiter != nil && !s.resetLimiter.Allow(emailAddr) {
		return ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return err
	}

	code, hash, expiresAt, err := generateResetCode(s.resetTTL)
	if err != nil {
		return err
	}
	if err := s.users.UpdateResetCode(ctx, user.ID, hash, expiresAt); err != nil {
		return err
	}

	if s.emailSender == nil {
		return ErrEmailSendFailure
	}
	if err := s.emailSender.SendPasswordResetCode(ctx, emailAddr, code, expiresAt); err != nil {
		s.logger.Warn("send password reset code failed", zap.Error(err), zap.String("user_id", user.ID))
		return ErrEmailSendFailure
	}
	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, emailAddr, code, newPassword string) error {
	if s.users == nil {
		return errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" {
		return ErrInvalidInput
	}
	if !isValidResetCode(code) {
		return ErrResetInvalid
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	if user.ResetCodeHash == "" || user.ResetExpiresAt == nil {
		return ErrResetNotRequested
	}
	if time.Now().UTC().After(*user.ResetExpiresAt) {
		return ErrResetExpired
	}
	// Cada intento consume presupuesto, acierte o no. Al agotarse el codigo se invalida
	// y hace falta pedir uno nuevo cuando pase la ventana.
	if !s.verifyLimiter.Allow(emailAddr) {
		if err := s.users.UpdateResetCode(ctx, user.ID, "", time.Now().UTC()); err != nil {
			return fmt.Errorf("invalidate reset code: %w", err)
		}
		s.logger.Warn("password reset locked after too many attempts", zap.String("user_id", user.ID))
		return ErrResetLocked
	}
	if !verifyResetCode(code, user.ResetCodeHash) {
		return ErrResetInvalid
	}
	return s.setPassword(ctx, user.ID, newPassword)
}

func (s *UserService) setPassword(ctx context.Context, userID, password string) error {
	password = strings.TrimSpace(password)
	if password == "" {
		return ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.Info("password updated", zap.String("user_id", userID))
	return nil
}

func generateResetCode(ttl time.Duration) (string, string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", time.Time{}, err
	}
	saltStr := base64.StdEncoding.EncodeToString(salt)
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])

	expiresAt := time.Now().UTC().Add(ttl)
	return code, saltStr + ":" + hash, expiresAt, nil
}

func verifyResetCode(code, stored string) bool {
	saltStr, expectedHash, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	hashBytes := sha256.Sum256([]byte(saltStr + ":" + code))
	hash := base64.StdEncoding.EncodeToString(hashBytes[:])
	return subtle.ConstantTimeCompare([]byte(hash), []byte(expectedHash)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidResetCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// RateLimiter limita la frecuencia de solicitudes por clave.
type RateLimiter interface {
	Allow(key string) bool
}

type memoryRateLimiter struct {
	mu        sync.Mutex
	window    time.Duration
	max       int
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter crea un rate limiter de ventana deslizante en memoria.
func NewRateLimiter(window time.Duration, max int) RateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &memoryRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (l *memoryRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	cutoff := now.Add(-l.window)
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(cutoff)
		l.lastSweep = now
	}

	kept := pruneBefore(l.hits[key], cutoff)
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	l.hits[key] = append(kept, now)
	return true
}

// sweep borra las claves sin hits dentro de la ventana; como mucho una vez por ventana.
func (l *memoryRateLimiter) sweep(cutoff time.Time) {
	for key, entries := range l.hits {
		if kept := pruneBefore(entries, cutoff); len(kept) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = kept
		}
	}
}

func pruneBefore(entries []time.Time, cutoff time.Time) []time.Time {
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
