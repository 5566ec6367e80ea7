package mail

import (
	"context"
	"log/slog"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/util"
)

// logDispatcher writes mail to the log instead of sending it. Bodies carry
// live secrets, so they only appear at debug level.
type logDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a dispatcher for local development
func NewLogDispatcher(logger *slog.Logger) service.MailDispatcher {
	return &logDispatcher{logger: logger}
}

func (d *logDispatcher) Send(ctx context.Context, msg *service.Mail) error {
	logger := deliverycontext.GetLoggerOrDefault(ctx, d.logger)

	logger.InfoContext(ctx, "[LogMail] Mail dispatched",
		slog.String("to", util.MaskEmail(msg.To)),
		slog.String("subject", msg.Subject),
	)
	logger.DebugContext(ctx, "[LogMail] Mail body",
		slog.String("to", msg.To),
		slog.String("body", msg.Body),
	)

	return nil
}
