package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"csi-api/internal/repository"
)

type mockResetSender struct {
	lastTo   string
	lastCode string
	calls    int
	err      error
}

func (m *mockResetSender) SendPasswordResetCode(_ context.Context, toEmail string, code string, _ time.Time) error {
	m.calls++
	m.lastTo = toEmail
	m.lastCode = code
	return m.err
}

type stubLimiter struct {
	allow bool
}

func (s stubLimiter) Allow(string) bool { return s.allow }

func newUserServiceForTest(sender *mockResetSender, limiter RateLimiter) (*UserService, *repository.MemoryUserRepository) {
	repo := repository.NewMemoryUserRepository()
	return NewUserService(zap.NewNop(), repo, sender, limiter, nil, time.Minute), repo
}

func registerAna(t *testing.T, svc *UserService) string {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Name:          "Ana",
		FirstSurname:  "Ruiz",
		SecondSurname: "Soto",
		Email:         " Ana@Example.com ",
		Password:      "secreta1",
		Phone:         "555-1234",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user.ID
}

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserServiceForTest(&mockResetSender{}, nil)
	id := registerAna(t, svc)

	user, err := svc.GetProfile(ctx, id)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if user.FullName != "Ana Ruiz Soto" || user.Email != "ana@example.com" || !user.Active {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "secreta1" {
		t.Fatalf("password must be hashed")
	}

	if _, err := svc.Authenticate(ctx, "ana@example.com", "secreta1"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ana@example.com", "otra"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nadie@example.com", "secreta1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	_, err = svc.Register(ctx, RegisterInput{Name: "Ana", FirstSurname: "Otra", Email: "ana@example.com", Password: "x"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Email: "b@example.com", Password: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUserService_InactiveAccount(t *testing.T) {
	ctx := context.Background()
	svc, repo := newUserServiceForTest(&mockResetSender{}, nil)
	id := registerAna(t, svc)

	user, _ := repo.GetByID(ctx, id)
	user.Active = false
	inactive := repository.NewMemoryUserRepository()
	_ = inactive.Create(ctx, user)
	svc.users = inactive

	if _, err := svc.Authenticate(ctx, "ana@example.com", "secreta1"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestUserService_UpdateProfileAndChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserServiceForTest(&mockResetSender{}, nil)
	id := registerAna(t, svc)

	name := "Ana María Ruiz"
	empty := "  "
	updated, err := svc.UpdateProfile(ctx, id, UpdateProfileInput{FullName: &name, Phone: &empty})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != name || updated.Phone != "" {
		t.Fatalf("unexpected profile %+v", updated)
	}
	if _, err := svc.UpdateProfile(ctx, "missing", UpdateProfileInput{}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := svc.ChangePassword(ctx, id, "incorrecta", "nueva123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err := svc.ChangePassword(ctx, id, "secreta1", "nueva123"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ana@example.com", "nueva123"); err != nil {
		t.Fatalf("expected new password to work, got %v", err)
	}
}

func TestUserService_PasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	sender := &mockResetSender{}
	svc, _ := newUserServiceForTest(sender, stubLimiter{allow: true})
	registerAna(t, svc)

	if err := svc.ResetPassword(ctx, "ana@example.com", "123456", "x"); !errors.Is(err, ErrResetNotRequested) {
		t.Fatalf("expected ErrResetNotRequested, got %v", err)
	}

	if err := svc.RequestPasswordReset(ctx, "ANA@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if sender.lastTo != "ana@example.com" || len(sender.lastCode) != 6 {
		t.Fatalf("expected code sent, got to=%q code=%q", sender.lastTo, sender.lastCode)
	}

	wrong := "000000"
	if sender.lastCode == wrong {
		wrong = "111111"
	}
	if err := svc.ResetPassword(ctx, "ana@example.com", wrong, "nueva123"); !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("expected ErrResetInvalid, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "ana@example.com", "abc", "nueva123"); !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("expected ErrResetInvalid for malformed code, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "ana@example.com", sender.lastCode, "nueva123"); err != nil {
		t.Fatalf("reset password: %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ana@example.com", "nueva123"); err != nil {
		t.Fatalf("expected reset password to work, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "ana@example.com", sender.lastCode, "otra"); !errors.Is(err, ErrResetNotRequested) {
		t.Fatalf("expected code to be single use, got %v", err)
	}
}

func TestUserService_PasswordResetEdgeCases(t *testing.T) {
	ctx := context.Background()

	sender := &mockResetSender{}
	svc, _ := newUserServiceForTest(sender, stubLimiter{allow: true})
	if err := svc.RequestPasswordReset(ctx, "nadie@example.com"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
	if sender.calls != 0 {
		t.Fatalf("unknown email must not send mail")
	}

	limited, _ := newUserServiceForTest(&mockResetSender{}, stubLimiter{allow: false})
	if err := limited.RequestPasswordReset(ctx, "ana@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	failing := &mockResetSender{err: errors.New("smtp down")}
	broken, _ := newUserServiceForTest(failing, stubLimiter{allow: true})
	registerAna(t, broken)
	if err := broken.RequestPasswordReset(ctx, "ana@example.com"); !errors.Is(err, ErrEmailSendFailure) {
		t.Fatalf("expected ErrEmailSendFailure, got %v", err)
	}
}

func TestUserService_ResetPasswordLocksAfterTooManyAttempts(t *testing.T) {
	ctx := context.Background()
	sender := &mockResetSender{}
	svc, repo := newUserServiceForTest(sender, stubLimiter{allow: true})
	registerAna(t, svc)

	if err := svc.RequestPasswordReset(ctx, "ana@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	code := sender.lastCode

	guesses := 0
	for i := 0; guesses < MaxResetAttempts; i++ {
		guess := fmt.Sprintf("%06d", i)
		if guess == code {
			continue
		}
		if err := svc.ResetPassword(ctx, "ana@example.com", guess, "atacante1"); !errors.Is(err, ErrResetInvalid) {
			t.Fatalf("guess %d: expected ErrResetInvalid, got %v", guesses, err)
		}
		guesses++
	}

	if err := svc.ResetPassword(ctx, "ana@example.com", code, "atacante1"); !errors.Is(err, ErrResetLocked) {
		t.Fatalf("expected ErrResetLocked for correct code after %d wrong ones, got %v", MaxResetAttempts, err)
	}
	user, err := repo.GetByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.ResetCodeHash != "" {
		t.Fatalf("expected reset code to be invalidated")
	}
	if _, err := svc.Authenticate(ctx, "ana@example.com", "atacante1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected attacker password to be rejected, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "ana@example.com", "secreta1"); err != nil {
		t.Fatalf("expected original password to keep working, got %v", err)
	}
}

func TestUserService_ResetPasswordUsesVerifyLimiter(t *testing.T) {
	ctx := context.Background()
	sender := &mockResetSender{}
	repo := repository.NewMemoryUserRepository()
	svc := NewUserService(zap.NewNop(), repo, sender, stubLimiter{allow: true}, stubLimiter{allow: false}, time.Minute)
	registerAna(t, svc)

	if err := svc.RequestPasswordReset(ctx, "ana@example.com"); err != nil {
		t.Fatalf("request reset: %v", err)
	}
	if err := svc.ResetPassword(ctx, "ana@example.com", sender.lastCode, "nueva123"); !errors.Is(err, ErrResetLocked) {
		t.Fatalf("expected ErrResetLocked, got %v", err)
	}
}

func TestResetCodeHashRoundTrip(t *testing.T) {
	code, stored, expiresAt, err := generateResetCode(time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !isValidResetCode(code) || !expiresAt.After(time.Now().UTC()) {
		t.Fatalf("unexpected code %q expires %v", code, expiresAt)
	}
	if !verifyResetCode(code, stored) {
		t.Fatalf("expected code to verify")
	}
	if verifyResetCode(code, "garbage") {
		t.Fatalf("expected malformed stored hash to fail")
	}
}
