package service

import (
	"context"
	"time"
)

// StateStore keeps the anti-forgery state values of in-flight OAuth redirects.
type StateStore interface {
	// Save records state as valid for ttl.
	Save(ctx context.Context, state string, ttl time.Duration) error

	// Consume reports whether state was valid and removes it. A state is accepted at most once.
	Consume(ctx context.Context, state string) (bool, error)
}
