package postgres

import (
	"context"
	"time"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// accountRepository implements the domain AccountRepository interface using GORM.
type accountRepository struct {
	db      *gorm.DB
	forLock bool
	now     func() time.Time
}

// NewAccountRepository is the constructor for accountRepository.
// The returned repository runs each call on its own; use the TransactionManager
// for read-modify-write sequences.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return newAccountRepository(db, false)
}

func newAccountRepository(db *gorm.DB, forLock bool) *accountRepository {
	return &accountRepository{db: db, forLock: forLock, now: time.Now}
}

// FindByID retrieves a single account by its unique ID.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return repo.findOne(ctx, "find account by id", "id = ?", id)
}

// FindByEmail retrieves a single account by its normalized email.
func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return repo.findOne(ctx, "find account by email", "email = ?", entity.NormalizeEmail(email))
}

// FindByProviderID retrieves a single account by its federated identity id.
func (repo *accountRepository) FindByProviderID(ctx context.Context, providerID string) (*entity.Account, error) {
	if providerID == "" {
		return nil, repository.ErrAccountNotFound
	}

	return repo.findOne(ctx, "find account by provider id", "provider_id = ?", providerID)
}

// FindByResetTokenHash retrieves the account holding the given reset digest.
func (repo *accountRepository) FindByResetTokenHash(ctx context.Context, tokenHash string) (*entity.Account, error) {
	if tokenHash == "" {
		return nil, repository.ErrAccountNotFound
	}

	return repo.findOne(ctx, "find account by reset token", "reset_token_hash = ?", tokenHash)
}

// Upsert inserts the account or overwrites the row with the same ID.
func (repo *accountRepository) Upsert(ctx context.Context, account *entity.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}

	now := repo.now().UTC()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	account.Email = entity.NormalizeEmail(account.Email)

	accountM := fromAccountDomain(account)

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "email", "provider_id", "password_hash", "verified",
				"otp_code", "otp_expires_at", "reset_token_hash", "reset_expires_at", "updated_at",
			}),
		}).
		Create(accountM).Error
	if err != nil {
		if isUniqueConstraintViolation(err) {
			return errors.Wrap(repository.ErrAccountConflict, "upsert account")
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "missing required account information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to upsert account")
	}

	return nil
}

func (repo *accountRepository) findOne(ctx context.Context, op string, query string, args ...any) (*entity.Account, error) {
	db := repo.db.WithContext(ctx)
	if repo.forLock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var accountM model.AccountModel
	if err := db.Where(query, args...).Take(&accountM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrAccountNotFound
		}

		return nil, errors.Wrap(err, op)
	}

	return toAccountDomain(&accountM), nil
}

// --- Mapper Functions ---
// These helpers convert between domain entities and persistence models.

// toAccountDomain converts a GORM AccountModel to a domain Account entity.
func toAccountDomain(data *model.AccountModel) *entity.Account {
	if data == nil {
		return nil
	}

	account := &entity.Account{
		ID:           data.ID,
		Name:         data.Name,
		Email:        data.Email,
		ProviderID:   deref(data.ProviderID),
		PasswordHash: deref(data.PasswordHash),
		Verified:     data.Verified,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
	if data.OTPCode != nil && data.OTPExpiresAt != nil {
		account.PendingOTP = &entity.PendingOTP{Code: *data.OTPCode, ExpiresAt: *data.OTPExpiresAt}
	}
	if data.ResetTokenHash != nil && data.ResetExpiresAt != nil {
		account.PendingReset = &entity.PendingReset{TokenHash: *data.ResetTokenHash, ExpiresAt: *data.ResetExpiresAt}
	}

	return account
}

// fromAccountDomain converts a domain Account entity to a GORM AccountModel for persistence.
func fromAccountDomain(data *entity.Account) *model.AccountModel {
	if data == nil {
		return nil
	}

	accountM := &model.AccountModel{
		ID:           data.ID,
		Name:         data.Name,
		Email:        data.Email,
		ProviderID:   nullable(data.ProviderID),
		PasswordHash: nullable(data.PasswordHash),
		Verified:     data.Verified,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
	if data.PendingOTP != nil {
		code, expiresAt := data.PendingOTP.Code, data.PendingOTP.ExpiresAt
		accountM.OTPCode = &code
		accountM.OTPExpiresAt = &expiresAt
	}
	if data.PendingReset != nil {
		tokenHash, expiresAt := data.PendingReset.TokenHash, data.PendingReset.ExpiresAt
		accountM.ResetTokenHash = &tokenHash
		accountM.ResetExpiresAt = &expiresAt
	}

	return accountM
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
