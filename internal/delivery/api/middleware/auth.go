package middleware

import (
	"log/slog"
	"strings"

	"gatekeeper/internal/delivery/api/response"
	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/repository"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const bearerPrefix = "Bearer "

// Rejection reasons; logged only, every one is answered with the same 401.
const (
	reasonMissingToken    = "missing_token"
	reasonInvalidToken    = "invalid_token"
	reasonAccountNotFound = "account_not_found"
)

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	TokenService service.TokenService
	TxManager    repository.TransactionManager
	Logger       *slog.Logger
}

// AuthMiddleware resolves the bearer token of a request to a live account.
type AuthMiddleware struct {
	tokenService service.TokenService
	txManager    repository.TransactionManager
	logger       *slog.Logger
}

func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: params.TokenService,
		txManager:    params.TxManager,
		logger:       params.Logger,
	}
}

// Authenticate admits requests carrying a valid token for an account that
// still exists, and stores that account for the handlers.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		logger := deliverycontext.GetLoggerOrDefault(ctx, m.logger)

		token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if !ok {
			return m.reject(c, logger, reasonMissingToken)
		}

		accountID, err := m.tokenService.Verify(token)
		if err != nil {
			return m.reject(c, logger, reasonInvalidToken)
		}

		var account *entity.Account
		err = m.txManager.Execute(ctx, func(txRepoFactory repository.RepositoryFactory) error {
			found, findErr := txRepoFactory.NewAccountRepository().FindByID(ctx, accountID)
			if findErr != nil {
				return findErr
			}
			account = found

			return nil
		})
		if errors.Is(err, repository.ErrAccountNotFound) {
			return m.reject(c, logger, reasonAccountNotFound, slog.String("account_id", accountID.String()))
		}
		if err != nil {
			return errors.Wrap(err, "load authenticated account")
		}

		deliverycontext.SetAccount(c, account)

		return next(c)
	}
}

func (m *AuthMiddleware) reject(c echo.Context, logger *slog.Logger, reason string, attrs ...any) error {
	logger.Info("Request rejected by authenticator",
		append([]any{slog.String("reason", reason), slog.String("path", c.Path())}, attrs...)...,
	)

	return response.Unauthorized(c)
}

// AccountFromContext returns the account admitted by Authenticate.
func AccountFromContext(c echo.Context) (*entity.Account, bool) {
	return deliverycontext.GetAccount(c)
}

func bearerToken(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])

	return token, token != ""
}
