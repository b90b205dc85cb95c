package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accounts-api/internal/config"
	"accounts-api/internal/db"
	"accounts-api/internal/domain"
)

var (
	_ AccountRepository = (*PgAccountRepository)(nil)
	_ AccountRepository = (*MongoAccountRepository)(nil)
	_ AccountRepository = (*MemoryAccountRepository)(nil)
)

func pgTestRepo(t *testing.T) AccountRepository {
	t.Helper()
	dsn := os.Getenv("DATABASE_TEST_URL")
	if dsn == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, &config.Config{DatabaseURL: dsn})
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Ping(ctx, pool); err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	require.NoError(t, db.Migrate(ctx, pool))
	return NewPgAccountRepository(pool)
}

func mongoTestRepo(t *testing.T) AccountRepository {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	repo, err := NewMongoAccountRepository(ctx, uri, "accounts_test")
	if err != nil {
		t.Skipf("mongo not available: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.col.Drop(context.Background())
		_ = repo.Close(context.Background())
	})
	return repo
}

func TestAccountStores(t *testing.T) {
	stores := map[string]func(t *testing.T) AccountRepository{
		"memory":   func(*testing.T) AccountRepository { return NewMemoryAccountRepository() },
		"postgres": pgTestRepo,
		"mongo":    mongoTestRepo,
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			exerciseAccountStore(t, open(t))
		})
	}
}

func exerciseAccountStore(t *testing.T, repo AccountRepository) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	suffix := uuid.NewString()

	first := domain.Account{
		ID:           uuid.NewString(),
		Email:        "first-" + suffix + "@x.com",
		Username:     "first",
		PasswordHash: "hash-1",
		EmailEnabled: true,
		Credits:      5,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	second := first
	second.ID = uuid.NewString()
	second.Email = "second-" + suffix + "@x.com"

	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	dup := first
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Insert(ctx, dup), ErrDuplicate)

	got, err := repo.FindByEmail(ctx, first.Email)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, int64(5), got.Credits)
	assert.Nil(t, got.ResetPasswordToken)

	token := uuid.NewString()
	expires := now.Add(time.Hour)
	got.ResetPasswordToken = &token
	got.ResetPasswordExpiresAt = &expires
	require.NoError(t, repo.Save(ctx, got))

	byToken, err := repo.FindByResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, first.ID, byToken.ID)
	require.NotNil(t, byToken.ResetPasswordExpiresAt)
	assert.WithinDuration(t, expires, *byToken.ResetPasswordExpiresAt, time.Millisecond)

	other, err := repo.FindByID(ctx, second.ID)
	require.NoError(t, err)
	other.ResetPasswordToken = &token
	assert.ErrorIs(t, repo.Save(ctx, other), ErrDuplicate)
	other.ResetPasswordToken = nil
	other.Email = first.Email
	assert.ErrorIs(t, repo.Save(ctx, other), ErrDuplicate)

	byToken.ResetPasswordToken = nil
	byToken.ResetPasswordExpiresAt = nil
	require.NoError(t, repo.Save(ctx, byToken))
	_, err = repo.FindByResetToken(ctx, token)
	assert.ErrorIs(t, err, ErrNotFound)

	missing := first
	missing.ID = uuid.NewString()
	missing.Email = "missing-" + suffix + "@x.com"
	assert.ErrorIs(t, repo.Save(ctx, missing), ErrNotFound)
	_, err = repo.FindByID(ctx, missing.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
