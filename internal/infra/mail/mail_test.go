package mail

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"gatekeeper/config"
	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/constants"
	"gatekeeper/internal/domain/service"
	mockService "gatekeeper/internal/mocks/service"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingDispatcher struct {
	mu    sync.Mutex
	sent  []service.Mail
	err   error
	block chan struct{}
}

func (r *recordingDispatcher) Send(ctx context.Context, msg *service.Mail) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, *msg)

	return r.err
}

func (r *recordingDispatcher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.sent)
}

type recordingPublisher struct {
	events []*service.MailEvent
	err    error
}

func (p *recordingPublisher) PublishMailEvent(_ context.Context, event *service.MailEvent) error {
	p.events = append(p.events, event)

	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func TestLogDispatcher_HidesBodyAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	err := NewLogDispatcher(logger).Send(context.Background(), &service.Mail{
		To:      "alice@x.com",
		Subject: "Your Account Verification Code",
		Body:    "<p>123456</p>",
	})

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "a***@x.com")
	assert.NotContains(t, buf.String(), "123456")
}

func TestSMTPDispatcher_Send(t *testing.T) {
	d, err := NewSMTPDispatcher(&config.SMTPConfig{
		Host:     "smtp.example.com",
		Username: "user",
		Password: "pass",
		From:     "no-reply@example.com",
	}, discardLogger())
	require.NoError(t, err)

	sd := d.(*smtpDispatcher)
	sd.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	sd.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)

		return nil
	}

	err = d.Send(context.Background(), &service.Mail{To: "alice@x.com", Subject: "Password Reset Request", Body: "<a>link</a>"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "no-reply@example.com", gotFrom)
	assert.Equal(t, []string{"alice@x.com"}, gotTo)

	raw := string(gotMsg)
	assert.Contains(t, raw, "To: alice@x.com\r\n")
	assert.Contains(t, raw, "Subject: Password Reset Request\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=\"utf-8\"\r\n")
	assert.Contains(t, raw, "@example.com>\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<a>link</a>"))
}

func TestSMTPDispatcher_Errors(t *testing.T) {
	_, err := NewSMTPDispatcher(nil, discardLogger())
	assert.ErrorContains(t, err, "smtp host is required")

	_, err = NewSMTPDispatcher(&config.SMTPConfig{Host: "h"}, discardLogger())
	assert.ErrorContains(t, err, "from address is required")

	d, err := NewSMTPDispatcher(&config.SMTPConfig{Host: "h", Port: 25, From: "a@h"}, discardLogger())
	require.NoError(t, err)
	sd := d.(*smtpDispatcher)
	assert.Nil(t, sd.auth)
	sd.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err = d.Send(context.Background(), &service.Mail{To: "b@x.com"})
	assert.ErrorContains(t, err, "send mail via h:25")

	err = d.Send(context.Background(), &service.Mail{})
	assert.ErrorContains(t, err, "recipient is required")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.Send(ctx, &service.Mail{To: "b@x.com"}), context.Canceled)
}

func TestPubSubDispatcher_CarriesRequestID(t *testing.T) {
	publisher := &recordingPublisher{}
	ctx := deliverycontext.WithRequestID(context.Background(), "req-42")

	err := NewPubSubDispatcher(publisher).Send(ctx, &service.Mail{To: "a@x.com", Subject: "s", Body: "b"})
	require.NoError(t, err)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "req-42", publisher.events[0].RequestID)
	assert.Equal(t, "a@x.com", publisher.events[0].To)

	publisher.err = errors.New("unavailable")
	err = NewPubSubDispatcher(publisher).Send(ctx, &service.Mail{To: "a@x.com"})
	assert.ErrorContains(t, err, "publish mail event")
}

func TestPubSubDispatcher_QueuesWholeMail(t *testing.T) {
	publisher := mockService.NewMockEventPublisher(t)
	msg := &service.Mail{To: "a@x.com", Subject: "Password Reset Request", Body: "<a>link</a>"}
	publisher.EXPECT().
		PublishMailEvent(mock.Anything, &service.MailEvent{Mail: *msg}).
		Return(nil)

	require.NoError(t, NewPubSubDispatcher(publisher).Send(context.Background(), msg))
}

func TestAsyncDispatcher_SendsInBackground(t *testing.T) {
	next := &recordingDispatcher{block: make(chan struct{}), err: errors.New("smtp down")}
	async := NewAsyncDispatcher(next, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, async.Send(ctx, &service.Mail{To: "a@x.com"}))
	cancel()

	assert.Equal(t, 0, next.count())

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer drainCancel()
	assert.ErrorIs(t, async.Drain(drainCtx), context.DeadlineExceeded)

	close(next.block)
	require.NoError(t, async.Drain(context.Background()))
	assert.Equal(t, 1, next.count())
}

func TestAsyncDispatcher_SendDuringDrainIsSynchronous(t *testing.T) {
	next := &recordingDispatcher{block: make(chan struct{})}
	async := NewAsyncDispatcher(next, time.Second, discardLogger())

	require.NoError(t, async.Send(context.Background(), &service.Mail{To: "a@x.com"}))

	drained := make(chan error, 1)
	go func() { drained <- async.Drain(context.Background()) }()

	require.Eventually(t, func() bool {
		async.mu.Lock()
		defer async.mu.Unlock()

		return async.draining
	}, time.Second, time.Millisecond)

	close(next.block)
	require.NoError(t, <-drained)
	assert.Equal(t, 1, next.count())

	require.NoError(t, async.Send(context.Background(), &service.Mail{To: "b@x.com"}))
	assert.Equal(t, 2, next.count(), "a send after drain started is delivered before Send returns")
}

func TestNewMailDispatcher(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *config.Config
		publisher service.EventPublisher
		wantErr   string
		wantAsync bool
	}{
		{name: "default log", cfg: &config.Config{}},
		{name: "log async", cfg: &config.Config{Mail: &config.MailConfig{Driver: constants.MailDriverLog, Async: true}}, wantAsync: true},
		{name: "smtp", cfg: &config.Config{Mail: &config.MailConfig{Driver: constants.MailDriverSMTP}, SMTP: &config.SMTPConfig{Host: "h", From: "a@h"}}},
		{name: "smtp missing", cfg: &config.Config{Mail: &config.MailConfig{Driver: constants.MailDriverSMTP}}, wantErr: "smtp host is required"},
		{name: "pubsub", cfg: &config.Config{Mail: &config.MailConfig{Driver: constants.MailDriverPubSub}}, publisher: &recordingPublisher{}},
		{name: "pubsub without publisher", cfg: &config.Config{Mail: &config.MailConfig{Driver: constants.MailDriverPubSub}}, wantErr: "requires an event publisher"},
		{name: "unknown", cfg: &config.Config{Mail: &config.MailConfig{Driver: "fax"}}, wantErr: "unknown mail driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := fxtest.NewLifecycle(t)
			dispatcher, err := NewMailDispatcher(Params{
				Lc:        lc,
				Config:    tt.cfg,
				Logger:    discardLogger(),
				Publisher: tt.publisher,
			})

			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)

				return
			}
			require.NoError(t, err)

			_, isAsync := dispatcher.(*AsyncDispatcher)
			assert.Equal(t, tt.wantAsync, isAsync)
			lc.RequireStart().RequireStop()
		})
	}
}
