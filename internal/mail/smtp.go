// Package mail sends transactional email over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/maggiegpt/server/internal/model"
)

// SMTPConfig holds connection parameters for the SMTP sender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPSender implements model.MailSender over net/smtp with multipart
// MIME bodies.
type SMTPSender struct {
	cfg SMTPConfig
}

var _ model.MailSender = (*SMTPSender)(nil)

// NewSMTPSender creates a new SMTP sender. It fails when the config is
// missing credentials so misconfiguration surfaces at startup rather than
// on the first registration.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("mail service is not configured: missing SMTP credentials")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &SMTPSender{cfg: cfg}, nil
}

var codeTemplate = template.Must(template.New("code").Parse(
	`<div style="font-family:Arial,sans-serif"><h2>{{.Subject}}</h2><p>Your code is:</p><div style="font-size:32px;font-weight:bold;letter-spacing:4px">{{.Code}}</div><p>This code expires in 5 minutes.</p><p>&mdash; MaggieGPT</p></div>`))

var resetTemplate = template.Must(template.New("reset").Parse(
	`<div style="font-family:Arial,sans-serif"><h2>Reset your password</h2><p>Click the link below to choose a new password. It expires in 1 hour.</p><p><a href="{{.Link}}">Reset password</a></p><p>If you did not request this, you can ignore this email.</p><p>&mdash; MaggieGPT</p></div>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(
	`<div style="font-family:Arial,sans-serif"><h2>Welcome to MaggieGPT</h2><p>Hi {{.Name}},</p><p>Thanks for joining MaggieGPT.</p><ul><li>Smart chat with code and markdown support</li><li>Image generation</li><li>Session-based history</li><li>Secure 2FA and Google login</li></ul><p>Enjoy!</p><p>&mdash; Team MaggieGPT</p></div>`))

// SendCode delivers a verification or login code.
func (s *SMTPSender) SendCode(ctx context.Context, to, subject, code string) error {
	body, err := render(codeTemplate, map[string]string{"Subject": subject, "Code": code})
	if err != nil {
		return err
	}
	return s.send(ctx, to, subject, body)
}

// SendResetLink delivers a password reset link.
func (s *SMTPSender) SendResetLink(ctx context.Context, to, link string) error {
	body, err := render(resetTemplate, map[string]string{"Link": link})
	if err != nil {
		return err
	}
	return s.send(ctx, to, "Reset your MaggieGPT password", body)
}

// SendWelcome delivers the post-verification welcome email.
func (s *SMTPSender) SendWelcome(ctx context.Context, to, name string) error {
	body, err := render(welcomeTemplate, map[string]string{"Name": name})
	if err != nil {
		return err
	}
	return s.send(ctx, to, "Welcome to MaggieGPT", body)
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email body: %w", err)
	}
	return buf.String(), nil
}

func (s *SMTPSender) send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(s.cfg.From, s.cfg.FromName, to, subject, htmlBody)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func buildMessage(from, fromName, to, subject, htmlBody string) []byte {
	var buf bytes.Buffer

	fromHeader := from
	if fromName != "" {
		fromHeader = fmt.Sprintf("%s <%s>", fromName, from)
	}

	fmt.Fprintf(&buf, "From: %s\r\n", fromHeader)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(htmlBody)
	buf.WriteString("\r\n")

	return buf.Bytes()
}
