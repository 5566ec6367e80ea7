// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrAccountNotFound is returned when no account matches the lookup.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountConflict is returned when a write would break the uniqueness of
	// the email or the federated identity id.
	ErrAccountConflict = errors.New("account conflicts with an existing account")
)

// AccountRepository operates on exactly one account record per call.
// Lookups made through a repository obtained from a RepositoryFactory hold the
// record for the rest of the transaction.
type AccountRepository interface {
	// FindByID retrieves an account by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// FindByEmail retrieves an account by its normalized email address.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// FindByProviderID retrieves an account by its federated identity id.
	FindByProviderID(ctx context.Context, providerID string) (*entity.Account, error)

	// FindByResetTokenHash retrieves the account holding the given reset digest.
	// Expiry is checked by the caller.
	FindByResetTokenHash(ctx context.Context, tokenHash string) (*entity.Account, error)

	// Upsert inserts the account or replaces the stored record with the same ID.
	Upsert(ctx context.Context, account *entity.Account) error
}
