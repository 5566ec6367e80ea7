package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gatekeeper/config"
	apimiddleware "gatekeeper/internal/delivery/api/middleware"
	"gatekeeper/internal/delivery/api/validator"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	mockService "gatekeeper/internal/mocks/service"
	mockUsecase "gatekeeper/internal/mocks/usecase"
	"gatekeeper/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testFrontend = "https://app.example.com"
	testStateTTL = 5 * time.Minute
)

type authFixture struct {
	echo      *echo.Echo
	accountUC *mockUsecase.MockAccountUsecase
	states    *mockService.MockStateStore
	oauth     *mockService.MockOAuthProvider
}

func newTestEcho() *echo.Echo {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := echo.New()
	e.Validator = validator.New()
	e.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(logger).HandleHTTPError

	return e
}

func newAuthFixture(t *testing.T, withOAuth bool) *authFixture {
	t.Helper()

	f := &authFixture{
		echo:      newTestEcho(),
		accountUC: mockUsecase.NewMockAccountUsecase(t),
		states:    mockService.NewMockStateStore(t),
	}

	params := AuthHandlerParams{
		AccountUC:  f.accountUC,
		StateStore: f.states,
		Config: &config.Config{
			OAuthState: &config.OAuthStateConfig{TTL: testStateTTL},
			Frontend:   &config.FrontendConfig{BaseURL: testFrontend + "/", FailurePath: "/login"},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if withOAuth {
		f.oauth = mockService.NewMockOAuthProvider(t)
		params.OAuthProvider = f.oauth
	}

	h := NewAuthHandler(params)
	auth := f.echo.Group("/api/auth")
	auth.POST("/register", h.Register)
	auth.POST("/verify-otp", h.VerifyOTP)
	auth.POST("/login", h.Login)
	auth.GET("/google", h.GoogleLogin)
	auth.GET("/google/callback", h.GoogleCallback)
	auth.POST("/forgot-password", h.ForgotPassword)
	auth.PUT("/reset-password/:token", h.ResetPassword)

	return f
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body
}

func TestAuthHandler_Register(t *testing.T) {
	f := newAuthFixture(t, false)
	f.accountUC.EXPECT().
		Register(mock.Anything, &usecase.RegisterInput{Name: "Alice", Email: "alice@x.com", Password: "secret1"}).
		Return(&usecase.RegisterOutput{Message: "Registration successful. Please verify your email with the OTP sent."}, nil)

	rec := serve(f.echo, http.MethodPost, "/api/auth/register", `{"name":"Alice","email":"alice@x.com","password":"secret1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, map[string]any{"message": "Registration successful. Please verify your email with the OTP sent."}, body)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "missing name", body: `{"email":"alice@x.com","password":"secret1"}`, wantField: "name"},
		{name: "malformed email", body: `{"name":"Alice","email":"alice","password":"secret1"}`, wantField: "email"},
		{name: "missing password", body: `{"name":"Alice","email":"alice@x.com"}`, wantField: "password"},
		{name: "not json", body: `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, false)

			rec := serve(f.echo, http.MethodPost, "/api/auth/register", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "VALIDATION_FAILED", body["code"])
			assert.NotEmpty(t, body["message"])
			if tt.wantField != "" {
				assert.Contains(t, rec.Body.String(), `"field":"`+tt.wantField+`"`)
			}
		})
	}
}

func TestAuthHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "invalid credentials", err: domainerrors.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: "INVALID_CREDENTIALS"},
		{name: "not verified", err: domainerrors.ErrAccountNotVerified, wantStatus: http.StatusForbidden, wantCode: "ACCOUNT_NOT_VERIFIED"},
		{name: "federation only", err: domainerrors.ErrFederationOnlyAccount, wantStatus: http.StatusUnauthorized, wantCode: "FEDERATION_ONLY_ACCOUNT"},
		{name: "wrapped kind", err: errors.Wrap(domainerrors.ErrInvalidCredentials, "login"), wantStatus: http.StatusUnauthorized, wantCode: "INVALID_CREDENTIALS"},
		{name: "store failure", err: errors.New("pq: connection refused"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, false)
			f.accountUC.EXPECT().Login(mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := serve(f.echo, http.MethodPost, "/api/auth/login", `{"email":"alice@x.com","password":"secret1"}`)

			require.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotEmpty(t, body["message"])
			assert.NotContains(t, body, "details")
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}

func TestAuthHandler_DuplicateAndWeakPassword(t *testing.T) {
	f := newAuthFixture(t, false)
	f.accountUC.EXPECT().Register(mock.Anything, mock.Anything).Return(nil, errors.Wrap(domainerrors.ErrDuplicateAccount, "register")).Once()
	f.accountUC.EXPECT().Register(mock.Anything, mock.Anything).
		Return(nil, domainerrors.ErrPasswordStrength.WithDetails("password must be at least 6 characters long")).Once()

	rec := serve(f.echo, http.MethodPost, "/api/auth/register", `{"name":"Alice","email":"alice@x.com","password":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DUPLICATE_ACCOUNT", decode(t, rec)["code"])

	rec = serve(f.echo, http.MethodPost, "/api/auth/register", `{"name":"Alice","email":"alice@x.com","password":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", body["code"])
	assert.Equal(t, "password must be at least 6 characters long", body["details"])
}

func TestAuthHandler_VerifyOTPAndLoginReturnToken(t *testing.T) {
	f := newAuthFixture(t, false)
	f.accountUC.EXPECT().
		VerifyOTP(mock.Anything, &usecase.VerifyOTPInput{Email: "alice@x.com", OTP: "123456"}).
		Return(&usecase.TokenOutput{Message: "Account verified successfully.", Token: "jwt-1"}, nil)
	f.accountUC.EXPECT().
		Login(mock.Anything, &usecase.LoginInput{Email: "alice@x.com", Password: "secret1"}).
		Return(&usecase.TokenOutput{Message: "Login successful.", Token: "jwt-2"}, nil)

	rec := serve(f.echo, http.MethodPost, "/api/auth/verify-otp", `{"email":"alice@x.com","otp":"123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jwt-1", decode(t, rec)["token"])

	rec = serve(f.echo, http.MethodPost, "/api/auth/login", `{"email":"alice@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"message": "Login successful.", "token": "jwt-2"}, decode(t, rec))
}

func TestAuthHandler_PasswordRecovery(t *testing.T) {
	f := newAuthFixture(t, false)
	f.accountUC.EXPECT().
		RequestPasswordReset(mock.Anything, &usecase.PasswordResetRequestInput{Email: "nobody@x.com"}).
		Return(&usecase.MessageOutput{Message: "If that email is registered, a reset link has been sent."}, nil)
	f.accountUC.EXPECT().
		CompletePasswordReset(mock.Anything, &usecase.PasswordResetInput{Token: "raw-secret", Password: "newpass1"}).
		Return(&usecase.MessageOutput{Message: "Password has been reset."}, nil)

	rec := serve(f.echo, http.MethodPost, "/api/auth/forgot-password", `{"email":"nobody@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["message"])

	rec = serve(f.echo, http.MethodPut, "/api/auth/reset-password/raw-secret", `{"password":"newpass1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password has been reset.", decode(t, rec)["message"])
}

func TestAuthHandler_ResetPasswordInvalidToken(t *testing.T) {
	f := newAuthFixture(t, false)
	f.accountUC.EXPECT().CompletePasswordReset(mock.Anything, mock.Anything).
		Return(nil, errors.Wrap(domainerrors.ErrInvalidOrExpiredResetToken, "complete reset"))

	rec := serve(f.echo, http.MethodPut, "/api/auth/reset-password/stale", `{"password":"newpass1"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_OR_EXPIRED_RESET_TOKEN", decode(t, rec)["code"])
}

func TestAuthHandler_GoogleLogin(t *testing.T) {
	f := newAuthFixture(t, true)

	var saved string
	f.states.EXPECT().Save(mock.Anything, mock.AnythingOfType("string"), testStateTTL).
		RunAndReturn(func(_ context.Context, state string, _ time.Duration) error {
			saved = state

			return nil
		})
	f.oauth.EXPECT().AuthCodeURL(mock.AnythingOfType("string")).
		RunAndReturn(func(state string) string {
			return "https://accounts.google.com/o/oauth2/auth?state=" + state
		})

	rec := serve(f.echo, http.MethodGet, "/api/auth/google", "")

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	require.NotEmpty(t, saved)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?state="+saved, rec.Header().Get(echo.HeaderLocation))
}

func TestAuthHandler_GoogleLoginStateStoreDown(t *testing.T) {
	f := newAuthFixture(t, true)
	f.states.EXPECT().Save(mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis: connection refused"))

	rec := serve(f.echo, http.MethodGet, "/api/auth/google", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthHandler_GoogleCallback(t *testing.T) {
	f := newAuthFixture(t, true)
	f.states.EXPECT().Consume(mock.Anything, "state-1").Return(true, nil)
	f.oauth.EXPECT().Exchange(mock.Anything, "code-1").
		Return(&service.OAuthUser{ID: "sub-1", Email: "alice@x.com", Name: "Alice", EmailVerified: true}, nil)
	f.accountUC.EXPECT().
		FederatedLogin(mock.Anything, &usecase.FederatedLoginInput{ProviderID: "sub-1", Email: "alice@x.com", Name: "Alice"}).
		Return(&usecase.TokenOutput{Token: "jwt-3"}, nil)

	rec := serve(f.echo, http.MethodGet, "/api/auth/google/callback?state=state-1&code=code-1", "")

	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, testFrontend+"/?token=jwt-3", rec.Header().Get(echo.HeaderLocation))
}

func TestAuthHandler_GoogleCallbackFailures(t *testing.T) {
	tests := []struct {
		name  string
		query string
		setup func(f *authFixture)
	}{
		{name: "consent denied", query: "?error=access_denied&state=state-1"},
		{name: "missing code", query: "?state=state-1"},
		{name: "missing state", query: "?code=code-1"},
		{
			name:  "unknown state",
			query: "?state=forged&code=code-1",
			setup: func(f *authFixture) {
				f.states.EXPECT().Consume(mock.Anything, "forged").Return(false, nil)
			},
		},
		{
			name:  "state store down",
			query: "?state=state-1&code=code-1",
			setup: func(f *authFixture) {
				f.states.EXPECT().Consume(mock.Anything, "state-1").Return(false, errors.New("redis down"))
			},
		},
		{
			name:  "exchange fails",
			query: "?state=state-1&code=code-1",
			setup: func(f *authFixture) {
				f.states.EXPECT().Consume(mock.Anything, "state-1").Return(true, nil)
				f.oauth.EXPECT().Exchange(mock.Anything, "code-1").Return(nil, errors.New("invalid ID token"))
			},
		},
		{
			name:  "engine rejects identity",
			query: "?state=state-1&code=code-1",
			setup: func(f *authFixture) {
				f.states.EXPECT().Consume(mock.Anything, "state-1").Return(true, nil)
				f.oauth.EXPECT().Exchange(mock.Anything, "code-1").Return(&service.OAuthUser{ID: "sub-1", Email: "a@x.com"}, nil)
				f.accountUC.EXPECT().FederatedLogin(mock.Anything, mock.Anything).Return(nil, domainerrors.ErrFederationFailed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, true)
			if tt.setup != nil {
				tt.setup(f)
			}

			rec := serve(f.echo, http.MethodGet, "/api/auth/google/callback"+tt.query, "")

			require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
			assert.Equal(t, testFrontend+"/login", rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestAuthHandler_GoogleNotConfigured(t *testing.T) {
	f := newAuthFixture(t, false)

	for _, target := range []string{"/api/auth/google", "/api/auth/google/callback?state=s&code=c"} {
		rec := serve(f.echo, http.MethodGet, target, "")

		assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Equal(t, testFrontend+"/login", rec.Header().Get(echo.HeaderLocation))
	}
}
