package impl

import (
	"context"
	"testing"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	mockRepo "gatekeeper/internal/mocks/repository"
	"gatekeeper/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// profileServiceFixtures holds all test dependencies for profile service tests.
type profileServiceFixtures struct {
	service   usecase.ProfileUsecase
	txManager *mockRepo.MockTransactionManager
}

func createTestProfileService(t *testing.T) profileServiceFixtures {
	txManager := mockRepo.NewMockTransactionManager(t)

	return profileServiceFixtures{
		service:   NewProfileService(txManager, newDiscardLogger()),
		txManager: txManager,
	}
}

func (f profileServiceFixtures) expectFindByID(t *testing.T, ctx context.Context, accountID uuid.UUID, account *entity.Account, findErr error) {
	f.txManager.EXPECT().
		Execute(ctx, mock.AnythingOfType("func(repository.RepositoryFactory) error")).
		RunAndReturn(func(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
			mockFactory := mockRepo.NewMockRepositoryFactory(t)
			mockAccountRepo := mockRepo.NewMockAccountRepository(t)

			mockFactory.EXPECT().NewAccountRepository().Return(mockAccountRepo)
			mockAccountRepo.EXPECT().FindByID(ctx, accountID).Return(account, findErr)

			return fn(mockFactory)
		})
}

func TestProfileService_GetProfile_Success(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()
	fx.expectFindByID(t, ctx, accountID, &entity.Account{
		ID:           accountID,
		Name:         "Alice",
		Email:        "alice@x.com",
		PasswordHash: "hash",
		Verified:     true,
	}, nil)

	profile, err := fx.service.GetProfile(ctx, accountID)

	require.NoError(t, err)
	assert.Equal(t, &usecase.Profile{ID: accountID, Name: "Alice", Email: "alice@x.com"}, profile)
}

func TestProfileService_GetProfile_NotFound(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()
	fx.expectFindByID(t, ctx, accountID, nil, repository.ErrAccountNotFound)

	profile, err := fx.service.GetProfile(ctx, accountID)

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestProfileService_GetProfile_StoreError(t *testing.T) {
	fx := createTestProfileService(t)

	ctx := context.Background()
	accountID := uuid.New()
	storeErr := domainerrors.NewDatabaseExecuteError(errors.New("connection reset"), "find account")
	fx.expectFindByID(t, ctx, accountID, nil, storeErr)

	profile, err := fx.service.GetProfile(ctx, accountID)

	assert.Nil(t, profile)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domainerrors.ErrNotFound)
}
