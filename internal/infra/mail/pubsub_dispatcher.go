package mail

import (
	"context"

	deliverycontext "gatekeeper/internal/delivery/context"
	"gatekeeper/internal/domain/service"

	"github.com/pkg/errors"
)

// pubsubDispatcher hands mail to the worker through the event publisher
type pubsubDispatcher struct {
	publisher service.EventPublisher
}

// NewPubSubDispatcher queues mail on publisher
func NewPubSubDispatcher(publisher service.EventPublisher) service.MailDispatcher {
	return &pubsubDispatcher{publisher: publisher}
}

func (d *pubsubDispatcher) Send(ctx context.Context, msg *service.Mail) error {
	event := &service.MailEvent{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		Mail:      *msg,
	}

	if err := d.publisher.PublishMailEvent(ctx, event); err != nil {
		return errors.Wrap(err, "publish mail event")
	}

	return nil
}
