package repository

import (
	"context"
	"sync"

	"accounts-api/internal/domain"
)

// MemoryAccountRepository guarda cuentas en memoria con las mismas restricciones únicas
// que los drivers persistentes.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[string]domain.Account),
	}
}

func (r *MemoryAccountRepository) Insert(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; ok {
		return ErrDuplicate
	}
	if r.conflicts(account) {
		return ErrDuplicate
	}
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *MemoryAccountRepository) FindByID(_ context.Context, id string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, ErrNotFound
	}
	return cloneAccount(account), nil
}

func (r *MemoryAccountRepository) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.Email == email {
			return cloneAccount(account), nil
		}
	}
	return domain.Account{}, ErrNotFound
}

func (r *MemoryAccountRepository) FindByResetToken(_ context.Context, token string) (domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, account := range r.accounts {
		if account.ResetPasswordToken != nil && *account.ResetPasswordToken == token {
			return cloneAccount(account), nil
		}
	}
	return domain.Account{}, ErrNotFound
}

func (r *MemoryAccountRepository) Save(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.ID]; !ok {
		return ErrNotFound
	}
	if r.conflicts(account) {
		return ErrDuplicate
	}
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

// conflicts revisa email y token contra las demás cuentas. Requiere r.mu tomado.
func (r *MemoryAccountRepository) conflicts(account domain.Account) bool {
	for id, other := range r.accounts {
		if id == account.ID {
			continue
		}
		if other.Email == account.Email {
			return true
		}
		if account.HasResetToken() && other.HasResetToken() &&
			*other.ResetPasswordToken == *account.ResetPasswordToken {
			return true
		}
	}
	return false
}

func cloneAccount(a domain.Account) domain.Account {
	out := a
	if a.PremiumEndDate != nil {
		v := *a.PremiumEndDate
		out.PremiumEndDate = &v
	}
	if a.ResetPasswordToken != nil {
		v := *a.ResetPasswordToken
		out.ResetPasswordToken = &v
	}
	if a.ResetPasswordExpiresAt != nil {
		v := *a.ResetPasswordExpiresAt
		out.ResetPasswordExpiresAt = &v
	}
	return out
}
