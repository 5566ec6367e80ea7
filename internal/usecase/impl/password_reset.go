package impl

import (
	"context"
	"log/slog"

	"gatekeeper/internal/domain/entity"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/usecase"
	"gatekeeper/internal/util"

	"github.com/pkg/errors"
)

// RequestPasswordReset issues a reset secret when the email is known. The
// response is the same either way.
func (srv *accountService) RequestPasswordReset(ctx context.Context, input *usecase.PasswordResetRequestInput) (*usecase.MessageOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	ack := &usecase.MessageOutput{Message: msgResetAck}

	raw, err := srv.secrets.GenerateResetSecret()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate reset secret")
	}
	tokenHash := srv.secrets.HashResetSecret(raw)

	var target *entity.Account
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.NewAccountRepository()

		account, err := accountRepo.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil
			}

			return errors.Wrap(err, "failed to find account by email")
		}

		account.IssueReset(tokenHash, srv.now().Add(srv.resetTTL))
		if err := accountRepo.Upsert(ctx, account); err != nil {
			return errors.Wrap(err, "failed to save reset secret")
		}
		target = account

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Password reset request failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute password reset request transaction")
	}

	if target == nil {
		srv.log(ctx).Debug("Password reset requested for unknown email", slog.String("email", util.MaskEmail(email)))

		return ack, nil
	}

	msg, renderErr := resetMail(target, srv.resetLink(raw), srv.resetTTL)
	srv.dispatch(ctx, msg, renderErr)
	srv.log(ctx).Info("Password reset issued", slog.Any("accountID", target.ID))

	return ack, nil
}

// CompletePasswordReset consumes a reset secret and sets the new password.
func (srv *accountService) CompletePasswordReset(ctx context.Context, input *usecase.PasswordResetInput) (*usecase.MessageOutput, error) {
	if input.Token == "" {
		return nil, errors.Wrap(domainerrors.ErrInvalidOrExpiredResetToken, "empty reset token")
	}

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, errors.Wrap(err, "password does not meet security requirements")
	}

	passwordHash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password during reset")
	}
	tokenHash := srv.secrets.HashResetSecret(input.Token)

	var updated *entity.Account
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		accountRepo := repoFactory.NewAccountRepository()

		account, err := accountRepo.FindByResetTokenHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return errors.Wrap(domainerrors.ErrInvalidOrExpiredResetToken, "no pending reset")
			}

			return errors.Wrap(err, "failed to find account by reset token")
		}

		if !account.ResetMatches(tokenHash, srv.now()) {
			return errors.Wrap(domainerrors.ErrInvalidOrExpiredResetToken, "reset token expired")
		}

		account.PasswordHash = passwordHash
		account.ClearReset()

		if err := accountRepo.Upsert(ctx, account); err != nil {
			return errors.Wrap(err, "failed to save new password")
		}
		updated = account

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Password reset failed", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to execute password reset transaction")
	}

	srv.log(ctx).Info("Password reset completed", slog.Any("accountID", updated.ID))

	return &usecase.MessageOutput{Message: msgResetComplete}, nil
}

func (srv *accountService) resetLink(raw string) string {
	return srv.frontendURL + "/reset-password/" + raw
}
