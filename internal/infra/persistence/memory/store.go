// Package memory is an in-process account store for local development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"

	"github.com/google/uuid"
)

// Store holds every account in a map guarded by one mutex. A transaction holds
// the mutex for its whole duration.
type Store struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*entity.Account
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]*entity.Account),
		now:      time.Now,
	}
}

// AccountRepository returns a repository that works outside transactions.
func (s *Store) AccountRepository() repository.AccountRepository {
	return &accountRepository{store: s}
}

// Execute runs fn with exclusive access. Writes become visible only if fn succeeds.
func (s *Store) Execute(ctx context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txRepository{store: s, pending: make(map[uuid.UUID]*entity.Account)}
	if err := fn(tx); err != nil {
		return err
	}

	for id, account := range tx.pending {
		s.accounts[id] = account
	}

	return nil
}

// Len reports how many accounts are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.accounts)
}

// find must be called with mu held. overlay holds uncommitted writes.
func (s *Store) find(overlay map[uuid.UUID]*entity.Account, match func(*entity.Account) bool) (*entity.Account, error) {
	for _, account := range overlay {
		if match(account) {
			return account.Clone(), nil
		}
	}
	for id, account := range s.accounts {
		if _, shadowed := overlay[id]; shadowed {
			continue
		}
		if match(account) {
			return account.Clone(), nil
		}
	}

	return nil, repository.ErrAccountNotFound
}

// prepare validates uniqueness and stamps timestamps. mu must be held.
func (s *Store) prepare(overlay map[uuid.UUID]*entity.Account, account *entity.Account) (*entity.Account, error) {
	if err := account.Validate(); err != nil {
		return nil, err
	}

	email := entity.NormalizeEmail(account.Email)
	conflict, err := s.find(overlay, func(other *entity.Account) bool {
		if other.ID == account.ID {
			return false
		}

		return other.Email == email ||
			(account.ProviderID != "" && other.ProviderID == account.ProviderID)
	})
	if err == nil && conflict != nil {
		return nil, repository.ErrAccountConflict
	}

	now := s.now().UTC()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	account.Email = email

	return account.Clone(), nil
}

func byID(id uuid.UUID) func(*entity.Account) bool {
	return func(a *entity.Account) bool { return a.ID == id }
}

func byEmail(email string) func(*entity.Account) bool {
	email = entity.NormalizeEmail(email)

	return func(a *entity.Account) bool { return a.Email == email }
}

func byProviderID(providerID string) func(*entity.Account) bool {
	return func(a *entity.Account) bool { return providerID != "" && a.ProviderID == providerID }
}

func byResetTokenHash(tokenHash string) func(*entity.Account) bool {
	return func(a *entity.Account) bool {
		return tokenHash != "" && a.PendingReset != nil && a.PendingReset.TokenHash == tokenHash
	}
}
