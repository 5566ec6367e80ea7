// Package persistence selects the account store configured for this process.
package persistence

import (
	"log/slog"
	"strings"

	"gatekeeper/config"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/persistence/memory"
	"gatekeeper/internal/infra/persistence/postgres"

	"go.uber.org/fx"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// Result exposes the account store to the rest of the graph.
type Result struct {
	fx.Out

	AccountRepo repository.AccountRepository
	TxManager   repository.TransactionManager
}

// New builds the account store named by storage.driver.
func New(params Params) (Result, error) {
	driver := DriverPostgres
	if params.Config.Storage != nil && params.Config.Storage.Driver != "" {
		driver = strings.ToLower(params.Config.Storage.Driver)
	}

	switch driver {
	case DriverMemory:
		params.Logger.Warn("Using in-memory account store; accounts are lost on restart")
		store := memory.NewStore()

		return Result{AccountRepo: store.AccountRepository(), TxManager: store}, nil
	case DriverPostgres:
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lifecycle,
			Config:    params.Config,
			Logger:    params.Logger,
		})
		if err != nil {
			return Result{}, err
		}

		return Result{
			AccountRepo: postgres.NewAccountRepository(db),
			TxManager:   postgres.NewTransactionManager(db),
		}, nil
	default:
		return Result{}, errors.Errorf("unknown storage driver %q", driver)
	}
}
