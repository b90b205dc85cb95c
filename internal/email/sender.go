package email

import (
	"context"
	"errors"
	"time"
)

// PasswordResetMessage describe el correo con el token de reseteo.
type PasswordResetMessage struct {
	To        string
	Token     string
	ResetURL  string
	ExpiresAt *time.Time
}

// Sender define la interfaz para el envío de correos de cuenta.
type Sender interface {
	SendPasswordReset(ctx context.Context, msg PasswordResetMessage) error
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendPasswordReset(_ context.Context, _ PasswordResetMessage) error {
	if s.reason == "" {
		return errors.New("email sender disabled")
	}
	return errors.New(s.reason)
}
