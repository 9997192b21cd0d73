// Package mail sends the one-time codes to users. Delivery is best-effort;
// callers fire-and-forget and the auth flows never block on SMTP.
package mail

import "context"

// Mailer delivers a plain-text message to a single recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
