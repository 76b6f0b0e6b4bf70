package email

import (
	"context"
	"errors"
	"time"
)

// Sender entrega codigos de recuperacion de contraseña.
type Sender interface {
	SendPasswordResetCode(ctx context.Context, toEmail string, code string, expiresAt time.Time) error
}

type disabledSender struct {
	reason string
}

// NewDisabledSender se usa cuando no hay SMTP configurado; todo envio falla.
func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendPasswordResetCode(_ context.Context, _ string, _ string, _ time.Time) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
