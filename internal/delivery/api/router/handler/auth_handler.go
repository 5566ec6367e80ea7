package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/delivery/api/response"
	deliverycontext "gatekeeper/internal/delivery/context"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"golang.org/x/oauth2"
)

const defaultStateTTL = 10 * time.Minute

// AuthHandlerParams holds dependencies for AuthHandler, injected by Fx.
type AuthHandlerParams struct {
	fx.In

	AccountUC  usecase.AccountUsecase
	StateStore service.StateStore
	Config     *config.Config
	Logger     *slog.Logger

	// OAuthProvider is absent when Google sign-in is not configured.
	OAuthProvider service.OAuthProvider `optional:"true"`
}

// AuthHandler serves registration, login, Google sign-in and password recovery.
type AuthHandler struct {
	accountUC   usecase.AccountUsecase
	states      service.StateStore
	oauth       service.OAuthProvider
	stateTTL    time.Duration
	frontendURL string
	failurePath string
	logger      *slog.Logger
}

func NewAuthHandler(params AuthHandlerParams) *AuthHandler {
	h := &AuthHandler{
		accountUC:   params.AccountUC,
		states:      params.StateStore,
		oauth:       params.OAuthProvider,
		stateTTL:    defaultStateTTL,
		failurePath: "/login",
		logger:      params.Logger,
	}
	if cfg := params.Config.OAuthState; cfg != nil && cfg.TTL > 0 {
		h.stateTTL = cfg.TTL
	}
	if cfg := params.Config.Frontend; cfg != nil {
		h.frontendURL = strings.TrimRight(cfg.BaseURL, "/")
		if cfg.FailurePath != "" {
			h.failurePath = cfg.FailurePath
		}
	}

	return h
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by the endpoints that start a session.
type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// bindAndValidate decodes the body into req. Failures are left for the HTTP
// error handler, which lists the offending fields.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errors.Wrap(domainerrors.ErrValidationFailed, err.Error())
	}

	return c.Validate(req)
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.accountUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Message(c, http.StatusCreated, out.Message)
}

// VerifyOTP handles POST /api/auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req VerifyOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.accountUC.VerifyOTP(c.Request().Context(), &usecase.VerifyOTPInput{
		Email: req.Email,
		OTP:   req.OTP,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, TokenResponse{Message: out.Message, Token: out.Token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.accountUC.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, TokenResponse{Message: out.Message, Token: out.Token})
}

// ForgotPassword handles POST /api/auth/forgot-password. The answer is the
// same whether or not the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.accountUC.RequestPasswordReset(c.Request().Context(), &usecase.PasswordResetRequestInput{
		Email: req.Email,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Message(c, http.StatusOK, out.Message)
}

// ResetPassword handles PUT /api/auth/reset-password/:token.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.accountUC.CompletePasswordReset(c.Request().Context(), &usecase.PasswordResetInput{
		Token:    c.Param("token"),
		Password: req.Password,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Message(c, http.StatusOK, out.Message)
}

// GoogleLogin handles GET /api/auth/google by sending the browser to the
// consent page with a freshly stored state.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	if h.oauth == nil {
		return h.redirectFailure(c, "provider_not_configured")
	}

	state := oauth2.GenerateVerifier()
	if err := h.states.Save(c.Request().Context(), state, h.stateTTL); err != nil {
		return errors.Wrap(err, "save oauth state")
	}

	return c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthCodeURL(state))
}

// GoogleCallback handles GET /api/auth/google/callback. Every failure lands
// on the client's failure page; success carries the session token.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	ctx := c.Request().Context()
	logger := deliverycontext.GetLoggerOrDefault(ctx, h.logger)

	if h.oauth == nil {
		return h.redirectFailure(c, "provider_not_configured")
	}
	if reason := c.QueryParam("error"); reason != "" {
		return h.redirectFailure(c, "consent_"+reason)
	}

	state, code := c.QueryParam("state"), c.QueryParam("code")
	if state == "" || code == "" {
		return h.redirectFailure(c, "missing_parameters")
	}

	valid, err := h.states.Consume(ctx, state)
	if err != nil {
		logger.Error("Failed to consume oauth state", slog.Any("error", err))

		return h.redirectFailure(c, "state_store_error")
	}
	if !valid {
		return h.redirectFailure(c, "invalid_state")
	}

	user, err := h.oauth.Exchange(ctx, code)
	if err != nil {
		logger.Warn("Google code exchange failed", slog.Any("error", err))

		return h.redirectFailure(c, "exchange_failed")
	}

	out, err := h.accountUC.FederatedLogin(ctx, &usecase.FederatedLoginInput{
		ProviderID: user.ID,
		Email:      user.Email,
		Name:       user.Name,
	})
	if err != nil {
		logger.Warn("Federated login failed", slog.Any("error", err))

		return h.redirectFailure(c, "federated_login_failed")
	}

	return c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/?token="+url.QueryEscape(out.Token))
}

func (h *AuthHandler) redirectFailure(c echo.Context, reason string) error {
	deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
		Info("Google sign-in failed", slog.String("reason", reason))

	return c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+h.failurePath)
}
