package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"gatekeeper/config"
	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/constants"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/pubsub"
	"gatekeeper/internal/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

// tokenValidator checks a Google-signed OIDC token against an audience.
type tokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// MailHandlerParams holds dependencies for the MailHandler
type MailHandlerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	Mailer service.MailDispatcher
}

// MailHandler delivers mail events pushed by Pub/Sub
type MailHandler struct {
	verifyPushAuth      bool
	audience            string
	serviceAccountEmail string
	validate            tokenValidator
	mailer              service.MailDispatcher
	logger              *slog.Logger
}

// NewMailHandler creates a new Pub/Sub push handler for queued mail
func NewMailHandler(params MailHandlerParams) *MailHandler {
	h := &MailHandler{
		validate: idtoken.Validate,
		mailer:   params.Mailer,
		logger:   params.Logger,
	}
	if cfg := params.Config.PubSub; cfg != nil {
		h.verifyPushAuth = cfg.PushAuth.Enabled
		h.audience = cfg.PushAuth.Audience
		h.serviceAccountEmail = cfg.PushAuth.ServiceAccountEmail
	}

	return h
}

// HandlePush handles POST /pubsub/push/mail. Malformed messages are answered
// 400, send failures 503 so Pub/Sub redelivers, and everything else 200.
func (h *MailHandler) HandlePush(c echo.Context) error {
	ctx := c.Request().Context()

	if h.verifyPushAuth {
		if err := h.verifyPushToken(c.Request()); err != nil {
			h.logger.Warn("[Worker] Invalid Pub/Sub token", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	var pushMsg pubsub.PushMessage
	if err := c.Bind(&pushMsg); err != nil {
		h.logger.Error("[Worker] Failed to parse push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	if eventType := pushMsg.Message.Attributes[constants.AttributeEventType]; eventType != "" && eventType != constants.EventTypeMail {
		h.logger.Warn("[Worker] Ignoring unexpected event type",
			slog.String("event_type", eventType),
			slog.String("message_id", pushMsg.Message.MessageID),
		)

		return c.NoContent(http.StatusOK)
	}

	data, err := base64.StdEncoding.DecodeString(pushMsg.Message.Data)
	if err != nil {
		h.logger.Error("[Worker] Failed to decode message data", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	var event service.MailEvent
	if err := json.Unmarshal(data, &event); err != nil {
		h.logger.Error("[Worker] Failed to parse mail event", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	requestID := h.extractRequestID(ctx, &pushMsg, &event)
	reqLogger := h.logger.With(slog.String("request_id", requestID))
	ctx = deliverycontext.WithRequestID(ctx, requestID)
	ctx = deliverycontext.WithLogger(ctx, reqLogger)

	if event.To == "" {
		reqLogger.Error("[Worker] Dropping mail without recipient",
			slog.String("message_id", pushMsg.Message.MessageID),
		)

		return c.NoContent(http.StatusOK)
	}

	if err := h.mailer.Send(ctx, &event.Mail); err != nil {
		reqLogger.Error("[Worker] Failed to deliver mail",
			slog.String("message_id", pushMsg.Message.MessageID),
			slog.String("to", util.MaskEmail(event.To)),
			slog.Any("error", err),
		)

		return c.NoContent(http.StatusServiceUnavailable)
	}

	reqLogger.Info("[Worker] Mail delivered",
		slog.String("message_id", pushMsg.Message.MessageID),
		slog.String("subject", event.Subject),
	)

	return c.NoContent(http.StatusOK)
}

// extractRequestID prefers the message attribute, then the event field, then
// the incoming request, and finally generates one.
func (h *MailHandler) extractRequestID(ctx context.Context, pushMsg *pubsub.PushMessage, event *service.MailEvent) string {
	if requestID := pushMsg.Message.Attributes[constants.AttributeRequestID]; requestID != "" {
		return requestID
	}
	if event.RequestID != "" {
		return event.RequestID
	}
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		return requestID
	}

	return uuid.NewString()
}

// verifyPushToken verifies the OIDC token Pub/Sub attaches to authenticated pushes.
// Reference: https://cloud.google.com/pubsub/docs/authenticate-push-subscriptions
func (h *MailHandler) verifyPushToken(req *http.Request) error {
	authHeader := req.Header.Get(echo.HeaderAuthorization)
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || token == "" {
		return errors.New("missing bearer token")
	}

	audience := h.audience
	if audience == "" {
		scheme := "https"
		if req.TLS == nil {
			scheme = "http"
		}
		audience = fmt.Sprintf("%s://%s%s", scheme, req.Host, req.URL.Path)
	}

	payload, err := h.validate(req.Context(), token, audience)
	if err != nil {
		return errors.Wrap(err, "failed to validate token")
	}

	if payload.Issuer != "accounts.google.com" && payload.Issuer != "https://accounts.google.com" {
		return errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	if emailVerified, ok := payload.Claims["email_verified"].(bool); ok && !emailVerified {
		return errors.New("email not verified")
	}

	if h.serviceAccountEmail != "" {
		if email, _ := payload.Claims["email"].(string); email != h.serviceAccountEmail {
			return errors.Errorf("unexpected push service account: %s", email)
		}
	}

	return nil
}
