// Package response writes the JSON bodies of the API endpoints.
package response

import (
	"net/http"

	deliverycontext "gatekeeper/internal/delivery/context"
	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"

	"github.com/labstack/echo/v4"
)

const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternalError    = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every failed request. Message sits at the top
// level next to the machine-readable code.
type ErrorResponse struct {
	Message   string `json:"message"`
	Code      string `json:"code"`              // e.g. "VALIDATION_FAILED"
	Details   any    `json:"details,omitempty"` // Only for caller-correctable errors
	RequestID string `json:"request_id,omitempty"`
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// Success writes data as the response body.
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, data)
}

// Message returns a successful response carrying only a confirmation message.
func Message(c echo.Context, statusCode int, message string) error {
	return Success(c, statusCode, MessageResponse{Message: message})
}

// Error returns an error response. Details are dropped for server and
// authentication failures so they never describe internals or account facts.
func Error(c echo.Context, statusCode int, errorCode string, message string, details any) error {
	if statusCode >= http.StatusInternalServerError ||
		statusCode == http.StatusUnauthorized ||
		statusCode == http.StatusForbidden {
		details = nil
	}

	return c.JSON(statusCode, ErrorResponse{
		Message:   message,
		Code:      errorCode,
		Details:   details,
		RequestID: deliverycontext.GetRequestID(c),
	})
}

// ValidationFailed returns a 400 listing the rejected fields.
func ValidationFailed(c echo.Context, details any) error {
	return Error(c, http.StatusBadRequest, CodeValidationFailed, domainerrors.ErrValidationFailed.Message(), details)
}

// Unauthorized returns a 401 error
func Unauthorized(c echo.Context) error {
	return Error(c, http.StatusUnauthorized, CodeUnauthorized, domainerrors.ErrUnauthorized.Message(), nil)
}

// InternalServerError returns a 500 error
func InternalServerError(c echo.Context) error {
	return Error(c, http.StatusInternalServerError, CodeInternalError, "Internal server error, please try again later", nil)
}

// HandleAppError writes err when it is a domain error. Anything else is
// returned with a stack so the HTTP error handler logs it and answers 500.
func HandleAppError(c echo.Context, err error) error {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPCode() >= http.StatusInternalServerError {
			return errors.WithStack(err)
		}

		var details any
		if d := appErr.Details(); d != "" {
			details = d
		}

		return Error(c, appErr.HTTPCode(), appErr.ErrorCode(), appErr.Message(), details)
	}

	return errors.WithStack(err)
}
