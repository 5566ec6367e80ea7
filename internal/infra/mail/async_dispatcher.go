package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/util"
)

// AsyncDispatcher sends mail in the background so requests never wait on
// the mail transport. Failures are logged. Drain waits for in-flight sends;
// once it has started, Send delivers in the caller's goroutine instead.
type AsyncDispatcher struct {
	next    service.MailDispatcher
	timeout time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	draining bool
	wg       sync.WaitGroup
}

const defaultSendTimeout = 15 * time.Second

func NewAsyncDispatcher(next service.MailDispatcher, timeout time.Duration, logger *slog.Logger) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	return &AsyncDispatcher{next: next, timeout: timeout, logger: logger}
}

// Send always returns nil; the outcome is only visible in the logs.
func (d *AsyncDispatcher) Send(ctx context.Context, msg *service.Mail) error {
	detached := context.WithoutCancel(ctx)
	cp := *msg

	// Add must not race with the Wait in Drain.
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		d.deliver(detached, &cp)

		return nil
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.deliver(detached, &cp)
	}()

	return nil
}

func (d *AsyncDispatcher) deliver(ctx context.Context, msg *service.Mail) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.next.Send(sendCtx, msg); err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, d.logger).Error("Failed to send mail",
			slog.String("to", util.MaskEmail(msg.To)),
			slog.String("subject", msg.Subject),
			slog.Any("error", err),
		)
	}
}

// Drain blocks until pending sends finish or ctx is done.
func (d *AsyncDispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	d.draining = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
