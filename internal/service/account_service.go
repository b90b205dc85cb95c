package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"accounts-api/internal/domain"
	"accounts-api/internal/repository"
)

const (
	defaultResetRateWindow = 10 * time.Minute
	defaultResetRateMax    = 3
)

// AccountService coordina las reglas de negocio de cuentas y credenciales.
type AccountService struct {
	logger       *zap.Logger
	accounts     repository.AccountRepository
	hasher       PasswordHasher
	resetLimiter RateLimiter
	resetTTL     time.Duration
	now          func() time.Time
}

// AccountServiceOptions agrupa las piezas opcionales del servicio.
type AccountServiceOptions struct {
	// ResetLimiter limita las solicitudes de reseteo por email. nil usa un limiter en memoria.
	ResetLimiter RateLimiter
	// ResetTTL caduca los tokens de reseteo; 0 los deja vigentes hasta su uso.
	ResetTTL time.Duration
}

func NewAccountService(logger *zap.Logger, accounts repository.AccountRepository, hasher PasswordHasher, opts AccountServiceOptions) *AccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewBcryptHasher(DefaultBcryptCost, 0)
	}
	limiter := opts.ResetLimiter
	if limiter == nil {
		limiter = NewMemoryRateLimiter(defaultResetRateWindow, defaultResetRateMax)
	}
	return &AccountService{
		logger:       logger,
		accounts:     accounts,
		hasher:       hasher,
		resetLimiter: limiter,
		resetTTL:     opts.ResetTTL,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type CreateAccountInput struct {
	Email          string
	Username       string
	Password       string
	EmailEnabled   bool
	Credits        int64
	PremiumEndDate *time.Time
}

func (s *AccountService) GetOwnerProfile(ctx context.Context, id string) (domain.OwnerProfile, error) {
	account, err := s.findByID(ctx, id)
	if err != nil {
		return domain.OwnerProfile{}, err
	}
	return account.OwnerProfile(), nil
}

func (s *AccountService) GetPublicProfile(ctx context.Context, id string) (domain.PublicProfile, error) {
	account, err := s.findByID(ctx, id)
	if err != nil {
		return domain.PublicProfile{}, err
	}
	return account.PublicProfile(), nil
}

// CreateAccount persiste una cuenta nueva con la contraseña ya hasheada y devuelve su id.
// La unicidad del email la decide el store.
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (string, error) {
	if s.accounts == nil {
		return "", ErrNotConfigured
	}
	if err := checkNewPassword(input.Password); err != nil {
		return "", err
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	account := domain.Account{
		ID:             uuid.NewString(),
		Email:          normalizeEmail(input.Email),
		Username:       strings.TrimSpace(input.Username),
		PasswordHash:   hash,
		EmailEnabled:   input.EmailEnabled,
		Credits:        input.Credits,
		PremiumEndDate: input.PremiumEndDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.accounts.Insert(ctx, account); err != nil {
		return "", err
	}
	return account.ID, nil
}

func (s *AccountService) AccountExistsByEmail(ctx context.Context, email string) (bool, error) {
	if s.accounts == nil {
		return false, ErrNotConfigured
	}
	_, err := s.accounts.FindByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *AccountService) UpdateEmailPreference(ctx context.Context, id string, enabled bool) (domain.Account, error) {
	account, err := s.findByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	account.EmailEnabled = enabled
	return s.save(ctx, account)
}

// UpdateEmailAddress hace una comprobación previa rápida; el índice único del store
// sigue siendo quien rechaza una carrera entre dos cuentas.
func (s *AccountService) UpdateEmailAddress(ctx context.Context, id, email string) (domain.Account, error) {
	account, err := s.findByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	email = normalizeEmail(email)
	exists, err := s.AccountExistsByEmail(ctx, email)
	if err != nil {
		return domain.Account{}, err
	}
	if exists {
		return domain.Account{}, ErrEmailInUse
	}

	account.Email = email
	updated, err := s.save(ctx, account)
	if errors.Is(err, repository.ErrDuplicate) {
		return domain.Account{}, ErrEmailInUse
	}
	return updated, err
}

func (s *AccountService) UpdateUsername(ctx context.Context, id, username string) (domain.Account, error) {
	account, err := s.findByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}
	account.Username = strings.TrimSpace(username)
	return s.save(ctx, account)
}

func (s *AccountService) UpdatePassword(ctx context.Context, id, currentPassword, newPassword string) (domain.Account, error) {
	account, err := s.findByID(ctx, id)
	if err != nil {
		return domain.Account{}, err
	}

	ok, err := s.hasher.Compare(ctx, currentPassword, account.PasswordHash)
	if err != nil {
		return domain.Account{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domain.Account{}, ErrCurrentPasswordIncorrect
	}
	if err := checkNewPassword(newPassword); err != nil {
		return domain.Account{}, err
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash
	return s.save(ctx, account)
}

// PasswordResetTicket es lo que hay que entregar al titular tras solicitar un reseteo.
type PasswordResetTicket struct {
	Token string
	// ExpiresAt es nil cuando los tokens no caducan.
	ExpiresAt *time.Time
}

// RequestPasswordReset emite un token nuevo que reemplaza a cualquier anterior.
// El llamador es responsable de entregarlo al titular.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	ticket, err := s.IssuePasswordReset(ctx, email)
	if err != nil {
		return "", err
	}
	return ticket.Token, nil
}

// IssuePasswordReset es RequestPasswordReset devolviendo además la caducidad persistida.
func (s *AccountService) IssuePasswordReset(ctx context.Context, email string) (PasswordResetTicket, error) {
	if s.accounts == nil {
		return PasswordResetTicket{}, ErrNotConfigured
	}
	email = normalizeEmail(email)
	if s.resetLimiter != nil && !s.resetLimiter.Allow(ctx, email) {
		return PasswordResetTicket{}, ErrRateLimited
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return PasswordResetTicket{}, ErrNoAccountForEmail
		}
		return PasswordResetTicket{}, err
	}

	token, err := newResetToken()
	if err != nil {
		return PasswordResetTicket{}, err
	}
	account.ResetPasswordToken = &token
	account.ResetPasswordExpiresAt = nil
	if s.resetTTL > 0 {
		expiresAt := s.now().Add(s.resetTTL)
		account.ResetPasswordExpiresAt = &expiresAt
	}
	saved, err := s.save(ctx, account)
	if err != nil {
		return PasswordResetTicket{}, err
	}

	s.logger.Info("password reset requested", zap.String("account_id", account.ID))
	return PasswordResetTicket{Token: token, ExpiresAt: saved.ResetPasswordExpiresAt}, nil
}

// ResetPassword consume el token: la nueva contraseña y el borrado del token van en una única escritura.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.accounts == nil {
		return ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrResetTokenInvalid
	}

	account, err := s.accounts.FindByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	if account.ResetPasswordExpiresAt != nil && s.now().After(*account.ResetPasswordExpiresAt) {
		return ErrResetTokenInvalid
	}
	if err := checkNewPassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash
	account.ResetPasswordToken = nil
	account.ResetPasswordExpiresAt = nil
	if _, err := s.save(ctx, account); err != nil {
		return err
	}

	s.logger.Info("password reset completed", zap.String("account_id", account.ID))
	return nil
}

// Authenticate verifica email y contraseña para el login.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (domain.Account, error) {
	if s.accounts == nil {
		return domain.Account{}, ErrNotConfigured
	}
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return domain.Account{}, ErrInvalidCredentials
	}
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrInvalidCredentials
		}
		return domain.Account{}, err
	}
	ok, err := s.hasher.Compare(ctx, password, account.PasswordHash)
	if err != nil {
		return domain.Account{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domain.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

func (s *AccountService) findByID(ctx context.Context, id string) (domain.Account, error) {
	if s.accounts == nil {
		return domain.Account{}, ErrNotConfigured
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, err
	}
	return account, nil
}

func (s *AccountService) save(ctx context.Context, account domain.Account) (domain.Account, error) {
	account.UpdatedAt = s.now()
	if err := s.accounts.Save(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Account{}, ErrAccountNotFound
		}
		return domain.Account{}, err
	}
	return account, nil
}

// newResetToken genera un UUID v4 a partir de crypto/rand.
func newResetToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return id.String(), nil
}

// bcrypt solo considera los primeros 72 bytes y rechaza entradas más largas.
const maxPasswordBytes = 72

func checkNewPassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
