package model

import "context"

// MailSender delivers transactional email. Implementations may block on
// network I/O; callers apply their own timeouts via ctx.
type MailSender interface {
	// SendCode delivers a numeric verification or login code.
	SendCode(ctx context.Context, to, subject, code string) error
	// SendResetLink delivers a password reset link.
	SendResetLink(ctx context.Context, to, link string) error
	// SendWelcome delivers the post-verification welcome email.
	SendWelcome(ctx context.Context, to, name string) error
}
