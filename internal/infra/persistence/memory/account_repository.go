package memory

import (
	"context"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"

	"github.com/google/uuid"
)

// accountRepository takes the store mutex for each call.
type accountRepository struct {
	store *Store
}

func (r *accountRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	return r.lookup(byID(id))
}

func (r *accountRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	return r.lookup(byEmail(email))
}

func (r *accountRepository) FindByProviderID(_ context.Context, providerID string) (*entity.Account, error) {
	return r.lookup(byProviderID(providerID))
}

func (r *accountRepository) FindByResetTokenHash(_ context.Context, tokenHash string) (*entity.Account, error) {
	return r.lookup(byResetTokenHash(tokenHash))
}

func (r *accountRepository) Upsert(_ context.Context, account *entity.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, err := r.store.prepare(nil, account)
	if err != nil {
		return err
	}
	r.store.accounts[stored.ID] = stored

	return nil
}

func (r *accountRepository) lookup(match func(*entity.Account) bool) (*entity.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.find(nil, match)
}

// txRepository runs with the store mutex already held by Execute.
type txRepository struct {
	store   *Store
	pending map[uuid.UUID]*entity.Account
}

func (r *txRepository) NewAccountRepository() repository.AccountRepository {
	return r
}

func (r *txRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	return r.store.find(r.pending, byID(id))
}

func (r *txRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	return r.store.find(r.pending, byEmail(email))
}

func (r *txRepository) FindByProviderID(_ context.Context, providerID string) (*entity.Account, error) {
	return r.store.find(r.pending, byProviderID(providerID))
}

func (r *txRepository) FindByResetTokenHash(_ context.Context, tokenHash string) (*entity.Account, error) {
	return r.store.find(r.pending, byResetTokenHash(tokenHash))
}

func (r *txRepository) Upsert(_ context.Context, account *entity.Account) error {
	stored, err := r.store.prepare(r.pending, account)
	if err != nil {
		return err
	}
	r.pending[stored.ID] = stored

	return nil
}
