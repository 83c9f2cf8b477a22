package notify

import (
	"context"

	"accessible-backend/pkg/logger"
)

// Mailer delivers account emails. Tokens are passed in plain form and must
// only ever appear in the message sent to the user.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, token string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

// LogMailer writes outgoing mail to the application log instead of sending
// it. The token is only logged at debug level.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendVerification(ctx context.Context, to, name, token string) error {
	return m.send(ctx, "email_verification", to, name, token)
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to, name, token string) error {
	return m.send(ctx, "password_reset", to, name, token)
}

func (m *LogMailer) send(ctx context.Context, kind, to, name, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fields := logger.Fields{
		"mail": kind,
		"to":   to,
		"name": name,
	}
	if logger.IsDebug() {
		fields["token"] = token
	}
	logger.WithFields(fields).Info("outgoing email")
	return nil
}
