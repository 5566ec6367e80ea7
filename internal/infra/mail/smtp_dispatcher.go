package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"gatekeeper/config"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// smtpDispatcher sends HTML mail through an SMTP relay
type smtpDispatcher struct {
	addr   string
	from   string
	auth   smtp.Auth
	send   sendFunc
	now    func() time.Time
	logger *slog.Logger
}

// NewSMTPDispatcher creates a dispatcher for the configured relay
func NewSMTPDispatcher(cfg *config.SMTPConfig, logger *slog.Logger) (service.MailDispatcher, error) {
	if cfg == nil || cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("smtp from address is required")
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &smtpDispatcher{
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		from:   cfg.From,
		auth:   auth,
		send:   smtp.SendMail,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Send delivers msg. net/smtp has no context support, so ctx is only
// checked before dialing.
func (d *smtpDispatcher) Send(ctx context.Context, msg *service.Mail) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	if msg.To == "" {
		return errors.New("mail recipient is required")
	}

	if err := d.send(d.addr, d.auth, d.from, []string{msg.To}, d.compose(msg)); err != nil {
		return errors.Wrapf(err, "send mail via %s", d.addr)
	}

	d.logger.InfoContext(ctx, "[SMTP] Mail sent",
		slog.String("to", util.MaskEmail(msg.To)),
		slog.String("subject", msg.Subject),
	)

	return nil
}

func (d *smtpDispatcher) compose(msg *service.Mail) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "From: %s\r\n", d.from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", d.now().UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "Message-ID: <%s@%s>\r\n", uuid.NewString(), hostOf(d.from))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.Body)

	return buf.Bytes()
}

func hostOf(address string) string {
	if at := strings.LastIndex(address, "@"); at >= 0 {
		return strings.Trim(address[at+1:], "> ")
	}

	return "localhost"
}
