package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"accounts-api/internal/domain"
)

// AccountRepository define el contrato de persistencia para cuentas.
type AccountRepository interface {
	Insert(ctx context.Context, account domain.Account) error
	FindByID(ctx context.Context, id string) (domain.Account, error)
	FindByEmail(ctx context.Context, email string) (domain.Account, error)
	FindByResetToken(ctx context.Context, token string) (domain.Account, error)
	Save(ctx context.Context, account domain.Account) error
}

const pgUniqueViolation = "23505"

const accountColumns = `
	id, email, username, password_hash, email_enabled, credits,
	premium_end_date, reset_password_token, reset_password_expires_at,
	created_at, updated_at
`

// PgAccountRepository implementa AccountRepository usando pgxpool.
type PgAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPgAccountRepository(pool *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{pool: pool}
}

func (r *PgAccountRepository) Insert(ctx context.Context, account domain.Account) error {
	const query = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.EmailEnabled,
		account.Credits,
		account.PremiumEndDate,
		account.ResetPasswordToken,
		account.ResetPasswordExpiresAt,
		account.CreatedAt,
		account.UpdatedAt,
	)
	return wrapPgError(err)
}

func (r *PgAccountRepository) FindByID(ctx context.Context, id string) (domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *PgAccountRepository) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, email))
}

func (r *PgAccountRepository) FindByResetToken(ctx context.Context, token string) (domain.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE reset_password_token = $1`
	return scanAccount(r.pool.QueryRow(ctx, query, token))
}

// Save reemplaza el registro completo identificado por account.ID.
func (r *PgAccountRepository) Save(ctx context.Context, account domain.Account) error {
	const query = `
		UPDATE accounts SET
			email = $2,
			username = $3,
			password_hash = $4,
			email_enabled = $5,
			credits = $6,
			premium_end_date = $7,
			reset_password_token = $8,
			reset_password_expires_at = $9,
			updated_at = $10
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Email,
		account.Username,
		account.PasswordHash,
		account.EmailEnabled,
		account.Credits,
		account.PremiumEndDate,
		account.ResetPasswordToken,
		account.ResetPasswordExpiresAt,
		account.UpdatedAt,
	)
	if err != nil {
		return wrapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.Username,
		&a.PasswordHash,
		&a.EmailEnabled,
		&a.Credits,
		&a.PremiumEndDate,
		&a.ResetPasswordToken,
		&a.ResetPasswordExpiresAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, wrapPgError(err)
	}
	return a, nil
}

func wrapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}
