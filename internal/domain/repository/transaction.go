package repository

import "context"

// TransactionManager defines the interface for managing atomic units of work.
// This allows the use case layer to handle transactions without depending on a specific storage driver.
type TransactionManager interface {
	// Execute runs fn atomically.
	// If fn returns an error, all writes are discarded. Otherwise they are committed.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances bound to a specific transaction.
type RepositoryFactory interface {
	// NewAccountRepository returns an AccountRepository bound to the current transaction.
	NewAccountRepository() AccountRepository
}
