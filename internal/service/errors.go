package service

import "errors"

// ValidationError representa una condición corregible por el usuario.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidationError indica si err (o alguno de sus envoltorios) es un ValidationError.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

var (
	ErrEmailInUse               = NewValidationError("email already in use")
	ErrCurrentPasswordIncorrect = NewValidationError("current password incorrect")
	ErrNoAccountForEmail        = NewValidationError("no account with this email")
	ErrResetTokenInvalid        = NewValidationError("token invalid")
	ErrPasswordRequired         = NewValidationError("password required")
	ErrPasswordTooLong          = NewValidationError("password too long")
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("rate limited")
	ErrNotConfigured      = errors.New("account service not configured")
)
