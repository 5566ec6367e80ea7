package service

import (
	"context"
)

// Mail is an outbound message. Body is HTML.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MailDispatcher delivers notification mail (verification codes, reset links).
type MailDispatcher interface {
	// Send delivers msg or returns why it could not.
	Send(ctx context.Context, msg *Mail) error
}
