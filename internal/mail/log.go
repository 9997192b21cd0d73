package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes mail to the log instead of sending it. Used in dev mode
// where no SMTP relay is configured; the code still shows up somewhere a
// developer can copy it from.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.Logger.Info("outbound mail (dev mode, not sent)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
