package handler

import (
	"log/slog"
	"net/http"

	"gatekeeper/internal/delivery/api/middleware"
	"gatekeeper/internal/delivery/api/response"
	"gatekeeper/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	ProfileUC usecase.ProfileUsecase
	Logger    *slog.Logger
}

// UserHandler serves the endpoints of the signed-in account.
type UserHandler struct {
	profileUC usecase.ProfileUsecase
	logger    *slog.Logger
}

func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{
		profileUC: params.ProfileUC,
		logger:    params.Logger,
	}
}

type ProfileResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GetProfile handles GET /api/users/profile. It runs behind AuthMiddleware.
func (h *UserHandler) GetProfile(c echo.Context) error {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		return response.Unauthorized(c)
	}

	profile, err := h.profileUC.GetProfile(c.Request().Context(), account.ID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, ProfileResponse{
		ID:    profile.ID.String(),
		Name:  profile.Name,
		Email: profile.Email,
	})
}

// HealthCheck reports that the process is serving.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
