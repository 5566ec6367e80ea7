// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gatekeeper/config"
	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/usecase"
	"gatekeeper/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	msgRegistered    = "Registration successful. Please check your email for an OTP."
	msgVerified      = "Account verified successfully."
	msgLoggedIn      = "Login successful!"
	msgResetAck      = "If an account with that email exists, a password reset link has been sent."
	msgResetComplete = "Password has been reset successfully."

	defaultSecretTTL = 10 * time.Minute
)

// accountService implements the AccountUsecase interface.
type accountService struct {
	txManager    repository.TransactionManager
	hasher       service.PasswordHasher
	tokenService service.TokenService
	secrets      service.SecretGenerator
	mailer       service.MailDispatcher
	otpTTL       time.Duration
	resetTTL     time.Duration
	frontendURL  string
	now          func() time.Time
	logger       *slog.Logger
}

// AccountServiceParams holds dependencies for AccountService, injected by Fx.
type AccountServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Secrets      service.SecretGenerator
	Mailer       service.MailDispatcher
	Config       *config.Config
	Logger       *slog.Logger
}

// NewAccountService is the constructor for accountService.
func NewAccountService(params AccountServiceParams) usecase.AccountUsecase {
	srv := &accountService{
		txManager:    params.TxManager,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		secrets:      params.Secrets,
		mailer:       params.Mailer,
		otpTTL:       defaultSecretTTL,
		resetTTL:     defaultSecretTTL,
		now:          time.Now,
		logger:       params.Logger,
	}

	if cfg := params.Config; cfg != nil {
		if cfg.Auth != nil && cfg.Auth.OTPTTL > 0 {
			srv.otpTTL = cfg.Auth.OTPTTL
		}
		if cfg.Auth != nil && cfg.Auth.ResetTTL > 0 {
			srv.resetTTL = cfg.Auth.ResetTTL
		}
		if cfg.Frontend != nil {
			srv.frontendURL = strings.TrimRight(cfg.Frontend.BaseURL, "/")
		}
	}

	return srv
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a pending account or restarts verification of an unverified one.
func (srv *accountService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	if email == "" {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "email is required")
	}
	srv.log(ctx).Debug("Starting registration", slog.String("email", util.MaskEmail(email)))

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, errors.Wrap(err, "password does not meet security requirements")
	}

	// bcrypt is CPU-bound, keep it out of the transaction.
	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password during registration")
	}

	code, err := srv.secrets.GenerateOTP()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate verification code")
	}

	var registered *entity.Account
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.NewAccountRepository()

		account, err := accountRepo.FindByEmail(ctx, email)
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			account = &entity.Account{Email: email}
		case err != nil:
			return errors.Wrap(err, "failed to find account by email")
		case account.Verified:
			return errors.Wrap(domainerrors.ErrDuplicateAccount, "account already verified")
		}

		account.Name = strings.TrimSpace(input.Name)
		account.PasswordHash = passwordHash
		account.IssueOTP(code, srv.now().Add(srv.otpTTL))

		if err := accountRepo.Upsert(ctx, account); err != nil {
			if errors.Is(err, repository.ErrAccountConflict) {
				return errors.Wrap(domainerrors.ErrDuplicateAccount, "concurrent registration for the same email")
			}

			return errors.Wrap(err, "failed to save account during registration")
		}
		registered = account

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("email", util.MaskEmail(email)), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute registration transaction")
	}

	msg, renderErr := verificationMail(registered, code, srv.otpTTL)
	srv.dispatch(ctx, msg, renderErr)
	srv.log(ctx).Info("Account registered, verification pending", slog.Any("accountID", registered.ID))

	return &usecase.RegisterOutput{Message: msgRegistered}, nil
}

// VerifyOTP consumes the pending code and logs the account in.
func (srv *accountService) VerifyOTP(ctx context.Context, input *usecase.VerifyOTPInput) (*usecase.TokenOutput, error) {
	email := entity.NormalizeEmail(input.Email)

	var verified *entity.Account
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.NewAccountRepository()

		account, err := accountRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return errors.Wrap(domainerrors.ErrInvalidOrExpiredOTP, "unknown email")
			}

			return errors.Wrap(err, "failed to find account by email")
		}

		if !account.OTPMatches(input.OTP, srv.now()) {
			return errors.Wrap(domainerrors.ErrInvalidOrExpiredOTP, "code mismatch or expired")
		}

		account.MarkVerified()
		account.ClearOTP()

		if err := accountRepo.Upsert(ctx, account); err != nil {
			return errors.Wrap(err, "failed to save verified account")
		}
		verified = account

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("OTP verification failed", slog.String("email", util.MaskEmail(email)), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute verification transaction")
	}

	srv.log(ctx).Info("Account verified", slog.Any("accountID", verified.ID))

	return srv.issueToken(verified.ID, msgVerified)
}

// Login checks a password credential.
func (srv *accountService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.TokenOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	srv.log(ctx).Debug("Starting login", slog.String("email", util.MaskEmail(email)))

	account, err := srv.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
		}

		return nil, errors.Wrap(err, "failed to load account for login")
	}

	switch {
	case !account.Verified:
		return nil, errors.Wrap(domainerrors.ErrAccountNotVerified, "login failed")
	case !account.HasPassword():
		return nil, errors.Wrap(domainerrors.ErrFederationOnlyAccount, "login failed")
	case !srv.hasher.Check(input.Password, account.PasswordHash):
		srv.log(ctx).Warn("Login failed", slog.Any("accountID", account.ID), slog.String("reason", "password_mismatch"))

		return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "login failed")
	}

	srv.log(ctx).Debug("Account logged in", slog.Any("accountID", account.ID))

	return srv.issueToken(account.ID, msgLoggedIn)
}

// FederatedLogin resolves an identity vouched for by an external provider to
// a local account, linking or creating one as needed.
func (srv *accountService) FederatedLogin(ctx context.Context, input *usecase.FederatedLoginInput) (*usecase.TokenOutput, error) {
	providerID := strings.TrimSpace(input.ProviderID)
	email := entity.NormalizeEmail(input.Email)
	if providerID == "" || email == "" {
		return nil, errors.Wrap(domainerrors.ErrFederationFailed, "provider identity is incomplete")
	}

	account, err := srv.resolveFederated(ctx, providerID, email, input.Name)
	if errors.Is(err, repository.ErrAccountConflict) {
		// A concurrent login created the record first; it is now visible.
		srv.log(ctx).Debug("Federated account created concurrently, re-reading", slog.String("email", util.MaskEmail(email)))
		account, err = srv.resolveFederated(ctx, providerID, email, input.Name)
	}
	if err != nil {
		srv.log(ctx).Warn("Federated login failed", slog.String("email", util.MaskEmail(email)), slog.Any("error", err))

		if errors.Is(err, repository.ErrAccountConflict) {
			return nil, errors.Wrap(domainerrors.ErrFederationFailed, "federated account conflict")
		}

		return nil, errors.Wrap(err, "failed to execute federated login transaction")
	}

	return srv.issueToken(account.ID, msgLoggedIn)
}

func (srv *accountService) resolveFederated(ctx context.Context, providerID, email, name string) (*entity.Account, error) {
	var resolved *entity.Account

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.NewAccountRepository()

		// 1. Already linked.
		account, err := accountRepo.FindByProviderID(ctx, providerID)
		if err == nil {
			resolved = account

			return nil
		}
		if !errors.Is(err, repository.ErrAccountNotFound) {
			return errors.Wrap(err, "failed to find account by provider id")
		}

		// 2. Same email, link it.
		account, err = accountRepo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			if account.HasFederatedIdentity() {
				return errors.Wrap(domainerrors.ErrFederationFailed, "email is linked to another federated identity")
			}
			account.LinkProvider(providerID)
			srv.log(ctx).Info("Linking federated identity", slog.Any("accountID", account.ID))
		case errors.Is(err, repository.ErrAccountNotFound):
			// 3. New verified federation-only account.
			account = &entity.Account{
				Name:       displayName(name, email),
				Email:      email,
				ProviderID: providerID,
				Verified:   true,
			}
		default:
			return errors.Wrap(err, "failed to find account by email")
		}

		if err := accountRepo.Upsert(ctx, account); err != nil {
			return errors.Wrap(err, "failed to save federated account")
		}
		resolved = account

		return nil
	})
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

// findByEmail reads from the primary in a short transaction.
func (srv *accountService) findByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var account *entity.Account

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.NewAccountRepository().FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		account = found

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

func (srv *accountService) issueToken(accountID uuid.UUID, message string) (*usecase.TokenOutput, error) {
	issued, err := srv.tokenService.Issue(accountID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue session token")
	}

	return &usecase.TokenOutput{
		Message:   message,
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// dispatch sends msg after the triggering change is committed. Delivery
// failures never fail the operation.
func (srv *accountService) dispatch(ctx context.Context, msg *service.Mail, renderErr error) {
	if renderErr != nil {
		srv.log(ctx).Error("Failed to render mail", slog.Any("error", renderErr))

		return
	}

	if err := srv.mailer.Send(ctx, msg); err != nil {
		srv.log(ctx).Error("Failed to dispatch mail",
			slog.String("to", util.MaskEmail(msg.To)),
			slog.String("subject", msg.Subject),
			slog.Any("error", err),
		)
	}
}

func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}

	local, _, _ := strings.Cut(email, "@")

	return local
}
