package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"gatekeeper/config"
	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/constants"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/errors"
	"gatekeeper/internal/infra/pubsub"
	mockService "gatekeeper/internal/mocks/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func newMailHandler(t *testing.T, cfg *config.Config) (*MailHandler, *mockService.MockMailDispatcher) {
	t.Helper()

	if cfg == nil {
		cfg = &config.Config{}
	}
	mailer := mockService.NewMockMailDispatcher(t)
	h := NewMailHandler(MailHandlerParams{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Mailer: mailer,
	})

	return h, mailer
}

func pushBody(t *testing.T, event *service.MailEvent, attributes map[string]string) []byte {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var msg pubsub.PushMessage
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.Attributes = attributes
	msg.Message.MessageID = "msg-1"
	msg.Subscription = "projects/local/subscriptions/mail-sub"

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return body
}

func push(h *MailHandler, body []byte, authorization string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/pubsub/push/mail", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	_ = h.HandlePush(e.NewContext(req, rec))

	return rec
}

func TestMailHandler_DeliversEvent(t *testing.T) {
	h, mailer := newMailHandler(t, nil)
	event := &service.MailEvent{
		RequestID: "req-from-event",
		Mail:      service.Mail{To: "alice@x.com", Subject: "Your Account Verification Code", Body: "<p>123456</p>"},
	}

	mailer.EXPECT().Send(mock.Anything, &event.Mail).
		Run(func(ctx context.Context, _ *service.Mail) {
			assert.Equal(t, "req-from-attr", deliverycontext.GetRequestIDFromContext(ctx))
		}).
		Return(nil)

	rec := push(h, pushBody(t, event, map[string]string{
		constants.AttributeEventType: constants.EventTypeMail,
		constants.AttributeRequestID: "req-from-attr",
	}), "")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMailHandler_Outcomes(t *testing.T) {
	valid := &service.MailEvent{Mail: service.Mail{To: "alice@x.com", Subject: "s", Body: "b"}}

	tests := []struct {
		name       string
		body       func(t *testing.T) []byte
		sendErr    error
		expectSend bool
		wantStatus int
	}{
		{
			name:       "send failure asks for redelivery",
			body:       func(t *testing.T) []byte { return pushBody(t, valid, nil) },
			sendErr:    errors.New("smtp: 421 try later"),
			expectSend: true,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "missing recipient is dropped",
			body:       func(t *testing.T) []byte { return pushBody(t, &service.MailEvent{}, nil) },
			wantStatus: http.StatusOK,
		},
		{
			name: "other event types are acknowledged",
			body: func(t *testing.T) []byte {
				return pushBody(t, valid, map[string]string{constants.AttributeEventType: "notification"})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "envelope is not json",
			body:       func(*testing.T) []byte { return []byte("{") },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "data is not base64",
			body:       func(*testing.T) []byte { return []byte(`{"message":{"data":"%%%"}}`) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "data is not a mail event",
			body: func(*testing.T) []byte {
				return []byte(`{"message":{"data":"` + base64.StdEncoding.EncodeToString([]byte("[]")) + `"}}`)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mailer := newMailHandler(t, nil)
			if tt.expectSend {
				mailer.EXPECT().Send(mock.Anything, mock.Anything).Return(tt.sendErr)
			}

			rec := push(h, tt.body(t), "")

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestMailHandler_PushAuth(t *testing.T) {
	cfg := &config.Config{PubSub: &config.PubSubConfig{Provider: constants.PubSubProviderGoogle}}
	cfg.PubSub.PushAuth.Enabled = true
	cfg.PubSub.PushAuth.Audience = "https://worker.example.com/pubsub/push/mail"
	cfg.PubSub.PushAuth.ServiceAccountEmail = "push@project.iam.gserviceaccount.com"

	googlePayload := func(email string) *idtoken.Payload {
		return &idtoken.Payload{
			Issuer: "https://accounts.google.com",
			Claims: map[string]any{"email": email, "email_verified": true},
		}
	}

	tests := []struct {
		name          string
		authorization string
		payload       *idtoken.Payload
		validateErr   error
		wantStatus    int
	}{
		{name: "valid token", authorization: "Bearer good", payload: googlePayload("push@project.iam.gserviceaccount.com"), wantStatus: http.StatusOK},
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{name: "rejected signature", authorization: "Bearer bad", validateErr: errors.New("invalid signature"), wantStatus: http.StatusUnauthorized},
		{name: "foreign issuer", authorization: "Bearer good", payload: &idtoken.Payload{Issuer: "https://evil.example.com"}, wantStatus: http.StatusUnauthorized},
		{name: "other service account", authorization: "Bearer good", payload: googlePayload("other@project.iam.gserviceaccount.com"), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mailer := newMailHandler(t, cfg)
			h.validate = func(_ context.Context, _, audience string) (*idtoken.Payload, error) {
				assert.Equal(t, cfg.PubSub.PushAuth.Audience, audience)

				return tt.payload, tt.validateErr
			}
			if tt.wantStatus == http.StatusOK {
				mailer.EXPECT().Send(mock.Anything, mock.Anything).Return(nil)
			}

			body := pushBody(t, &service.MailEvent{Mail: service.Mail{To: "alice@x.com"}}, nil)
			rec := push(h, body, tt.authorization)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
