package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var accountColumns = []string{
	"id", "name", "email", "provider_id", "password_hash", "verified",
	"otp_code", "otp_expires_at", "reset_token_hash", "reset_expires_at", "created_at", "updated_at",
}

func newGormWithMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	return db, mock
}

func TestAccountRepository_FindByEmail(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewAccountRepository(db)

	id := uuid.New()
	otpExpiry := time.Date(2024, 1, 1, 12, 10, 0, 0, time.UTC)
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(accountColumns).
		AddRow(id.String(), "Alice", "alice@x.com", nil, "hash", false, "123456", otpExpiry, nil, nil, created, created)

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE email = \$1`).
		WillReturnRows(rows)

	account, err := repo.FindByEmail(context.Background(), " Alice@X.com")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, "alice@x.com", account.Email)
	assert.Equal(t, "hash", account.PasswordHash)
	assert.Empty(t, account.ProviderID)
	require.NotNil(t, account.PendingOTP)
	assert.Equal(t, "123456", account.PendingOTP.Code)
	assert.True(t, otpExpiry.Equal(account.PendingOTP.ExpiresAt))
	assert.Nil(t, account.PendingReset)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_NotFound(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE provider_id = \$1`).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := repo.FindByProviderID(context.Background(), "google-1")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	// Empty keys never reach the database.
	_, err = repo.FindByProviderID(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)
	_, err = repo.FindByResetTokenHash(context.Background(), "")
	assert.ErrorIs(t, err, repository.ErrAccountNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_QueryError(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1`).
		WillReturnError(errors.New("db down"))

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrAccountNotFound)
	assert.Contains(t, err.Error(), "find account by id")
}

func TestAccountRepository_Upsert(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec(`INSERT INTO "accounts" .* ON CONFLICT \("id"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	account := &entity.Account{
		Name:         "Alice",
		Email:        "Alice@X.com",
		PasswordHash: "hash",
		PendingReset: &entity.PendingReset{TokenHash: "digest", ExpiresAt: time.Now().Add(10 * time.Minute)},
	}
	require.NoError(t, repo.Upsert(context.Background(), account))

	assert.NotEqual(t, uuid.Nil, account.ID)
	assert.Equal(t, "alice@x.com", account.Email)
	assert.False(t, account.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_UpsertConflict(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec(`INSERT INTO "accounts"`).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "idx_accounts_email"})

	err := repo.Upsert(context.Background(), &entity.Account{Email: "a@x.com", ProviderID: "google-1"})
	assert.ErrorIs(t, err, repository.ErrAccountConflict)
}

func TestAccountRepository_UpsertDatabaseFailure(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewAccountRepository(db)

	mock.ExpectExec(`INSERT INTO "accounts"`).
		WillReturnError(errors.New("connection reset"))

	err := repo.Upsert(context.Background(), &entity.Account{Email: "a@x.com", PasswordHash: "hash"})

	var appErr domainerrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "DATABASE_EXECUTE_FAILED", appErr.ErrorCode())
}

func TestAccountRepository_UpsertRejectsAccountWithoutCredential(t *testing.T) {
	db, mock := newGormWithMock(t)
	repo := NewAccountRepository(db)

	err := repo.Upsert(context.Background(), &entity.Account{Email: "a@x.com"})
	assert.ErrorIs(t, err, entity.ErrNoCredential)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_LocksAndCommits(t *testing.T) {
	db, mock := newGormWithMock(t)
	tm := NewTransactionManager(db)

	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(accountColumns).
			AddRow(id.String(), "Alice", "alice@x.com", "google-1", nil, true, nil, nil, nil, nil, now, now))
	mock.ExpectExec(`INSERT INTO "accounts"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.Execute(context.Background(), func(f repository.RepositoryFactory) error {
		repo := f.NewAccountRepository()
		account, err := repo.FindByID(context.Background(), id)
		if err != nil {
			return err
		}
		account.Name = "Alice Liddell"

		return repo.Upsert(context.Background(), account)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db, mock := newGormWithMock(t)
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := tm.Execute(context.Background(), func(repository.RepositoryFactory) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionManager_RollsBackOnPanic(t *testing.T) {
	db, mock := newGormWithMock(t)
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = tm.Execute(context.Background(), func(repository.RepositoryFactory) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_UsesEmbeddedMigrations(t *testing.T) {
	original := gooseUp
	t.Cleanup(func() { gooseUp = original })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir

		return nil
	}

	require.NoError(t, Migrate(context.Background(), nil))
	assert.Equal(t, ".", gotDir)

	gooseUp = func(context.Context, *sql.DB, string) error {
		return errors.New("relation exists")
	}
	assert.ErrorContains(t, Migrate(context.Background(), nil), "failed to apply migrations")
}
