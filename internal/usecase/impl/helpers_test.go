package impl

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/infra/auth"
	"gatekeeper/internal/infra/persistence/memory"
	mockService "gatekeeper/internal/mocks/service"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		SecretKey: config.SecretKeyConfig{Access: "test-secret"},
		Token:     &config.TokenConfig{TTL: 30 * 24 * time.Hour, Issuer: "gatekeeper"},
		Auth:      &config.AuthConfig{OTPTTL: 10 * time.Minute, ResetTTL: 10 * time.Minute},
		Frontend:  &config.FrontendConfig{BaseURL: "https://app.example.com/"},
	}
}

// accountFixture wires the engine to the memory store, a fast bcrypt, real
// JWTs and scripted secrets.
type accountFixture struct {
	service *accountService
	store   *memory.Store
	tokens  service.TokenService
	secrets *mockService.MockSecretGenerator
	mailer  *mockService.MockMailDispatcher

	mu      sync.Mutex
	now     time.Time
	otps    []string
	resets  []string
	sent    []*service.Mail
	mailErr error
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()

	cfg := newTestConfig()
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	f := &accountFixture{
		store:   memory.NewStore(),
		tokens:  tokens,
		secrets: mockService.NewMockSecretGenerator(t),
		mailer:  mockService.NewMockMailDispatcher(t),
		now:     time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	realSecrets := auth.NewSecretGenerator()
	f.secrets.EXPECT().GenerateOTP().RunAndReturn(f.nextOTP).Maybe()
	f.secrets.EXPECT().GenerateResetSecret().RunAndReturn(f.nextReset).Maybe()
	f.secrets.EXPECT().HashResetSecret(mock.Anything).RunAndReturn(realSecrets.HashResetSecret).Maybe()
	f.mailer.EXPECT().Send(mock.Anything, mock.Anything).RunAndReturn(f.capture).Maybe()

	srv := NewAccountService(AccountServiceParams{
		TxManager:    f.store,
		Hasher:       auth.NewBcryptHasherWithCost(bcrypt.MinCost, config.PasswordStrengthConfig{MinLength: 6, MaxLength: 72}),
		TokenService: tokens,
		Secrets:      f.secrets,
		Mailer:       f.mailer,
		Config:       cfg,
		Logger:       newDiscardLogger(),
	}).(*accountService)
	srv.now = f.clock
	f.service = srv

	return f
}

// withTxManager swaps the transaction manager, keeping everything else.
func (f *accountFixture) withTxManager(tm repository.TransactionManager) *accountFixture {
	f.service.txManager = tm

	return f
}

func (f *accountFixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *accountFixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *accountFixture) queueOTP(codes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otps = append(f.otps, codes...)
}

func (f *accountFixture) queueReset(secrets ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, secrets...)
}

func (f *accountFixture) nextOTP() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.otps) == 0 {
		return "000000", nil
	}
	code := f.otps[0]
	f.otps = f.otps[1:]

	return code, nil
}

func (f *accountFixture) nextReset() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.resets) == 0 {
		return "0000000000000000000000000000000000000000000000000000000000000000", nil
	}
	secret := f.resets[0]
	f.resets = f.resets[1:]

	return secret, nil
}

func (f *accountFixture) capture(_ context.Context, msg *service.Mail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)

	return f.mailErr
}

func (f *accountFixture) mails() []*service.Mail {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*service.Mail(nil), f.sent...)
}

func (f *accountFixture) account(t *testing.T, email string) *entity.Account {
	t.Helper()

	account, err := f.store.AccountRepository().FindByEmail(context.Background(), email)
	require.NoError(t, err)

	return account
}

// staleReads makes the first n transactions miss every lookup by provider
// id or email, as if a concurrent writer had not committed yet.
type staleReads struct {
	inner repository.TransactionManager
	n     int
}

func (s *staleReads) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	return s.inner.Execute(ctx, func(factory repository.RepositoryFactory) error {
		if s.n > 0 {
			s.n--

			return fn(staleFactory{factory})
		}

		return fn(factory)
	})
}

type staleFactory struct {
	repository.RepositoryFactory
}

func (f staleFactory) NewAccountRepository() repository.AccountRepository {
	return staleRepo{f.RepositoryFactory.NewAccountRepository()}
}

type staleRepo struct {
	repository.AccountRepository
}

func (staleRepo) FindByEmail(context.Context, string) (*entity.Account, error) {
	return nil, repository.ErrAccountNotFound
}

func (staleRepo) FindByProviderID(context.Context, string) (*entity.Account, error) {
	return nil, repository.ErrAccountNotFound
}
