package impl

import (
	"bytes"
	"html/template"
	"time"

	"gatekeeper/internal/domain/entity"
	"gatekeeper/internal/domain/service"
	"gatekeeper/internal/util"

	"github.com/pkg/errors"
)

const (
	subjectVerification = "Your Account Verification Code"
	subjectReset        = "Password Reset Request"
)

//nolint:gochecknoglobals
var (
	verificationTemplate = template.Must(template.New("verification").Parse(
		`<p>Hello {{.Name}},</p>` +
			`<p>Your verification code is <strong>{{.Code}}</strong>.</p>` +
			`<p>It expires in {{.ExpiresIn}}.</p>`))

	resetTemplate = template.Must(template.New("reset").Parse(
		`<p>Hello {{.Name}},</p>` +
			`<p>You requested a password reset. Click the link below to choose a new password:</p>` +
			`<p><a href="{{.Link}}">{{.Link}}</a></p>` +
			`<p>This link expires in {{.ExpiresIn}}. If you did not request it, ignore this email.</p>`))
)

func verificationMail(account *entity.Account, code string, ttl time.Duration) (*service.Mail, error) {
	return renderMail(account.Email, subjectVerification, verificationTemplate, map[string]string{
		"Name":      greetingName(account),
		"Code":      code,
		"ExpiresIn": util.FormatDuration(ttl),
	})
}

func resetMail(account *entity.Account, link string, ttl time.Duration) (*service.Mail, error) {
	return renderMail(account.Email, subjectReset, resetTemplate, map[string]string{
		"Name":      greetingName(account),
		"Link":      link,
		"ExpiresIn": util.FormatDuration(ttl),
	})
}

func renderMail(to, subject string, tmpl *template.Template, data map[string]string) (*service.Mail, error) {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return nil, errors.Wrapf(err, "render %s mail", tmpl.Name())
	}

	return &service.Mail{To: to, Subject: subject, Body: body.String()}, nil
}

func greetingName(account *entity.Account) string {
	if account.Name != "" {
		return account.Name
	}

	return displayName("", account.Email)
}
