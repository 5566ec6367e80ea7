// Package mail delivers verification and password reset mail.
package mail

import (
	"context"
	"log/slog"

	"gatekeeper/config"
	"gatekeeper/internal/domain/constants"
	"gatekeeper/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Params holds dependencies for the mail dispatcher, injected by Fx
type Params struct {
	fx.In

	Lc        fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
	Publisher service.EventPublisher `optional:"true"`
}

// NewMailDispatcher selects a transport by mail.driver and optionally makes it asynchronous
func NewMailDispatcher(params Params) (service.MailDispatcher, error) {
	cfg := params.Config.Mail
	if cfg == nil {
		cfg = &config.MailConfig{Driver: constants.MailDriverLog}
	}

	var dispatcher service.MailDispatcher
	var err error

	switch cfg.Driver {
	case constants.MailDriverLog, "":
		dispatcher = NewLogDispatcher(params.Logger)
	case constants.MailDriverSMTP:
		dispatcher, err = NewSMTPDispatcher(params.Config.SMTP, params.Logger)
		if err != nil {
			return nil, err
		}
	case constants.MailDriverPubSub:
		if params.Publisher == nil {
			return nil, errors.New("pubsub mail driver requires an event publisher")
		}
		dispatcher = NewPubSubDispatcher(params.Publisher)
	default:
		return nil, errors.Errorf("unknown mail driver: %s", cfg.Driver)
	}

	params.Logger.Info("Mail dispatcher configured",
		slog.String("driver", cfg.Driver),
		slog.Bool("async", cfg.Async),
	)

	if !cfg.Async {
		return dispatcher, nil
	}

	async := NewAsyncDispatcher(dispatcher, cfg.SendTimeout, params.Logger)
	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Draining pending mail")

			return async.Drain(ctx)
		},
	})

	return async, nil
}
