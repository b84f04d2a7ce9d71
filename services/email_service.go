package services

import (
	"context"
	"fmt"
	"net/smtp"
	"sort"
	"strings"
)

// EmailService sends templated emails via SMTP
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg EmailConfig) *EmailService {
	if cfg.From == "" {
		cfg.From = "noreply@englishmaster.com"
	}
	return &EmailService{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.host != "" && e.username != "" && e.password != ""
}

// SendTemplate renders the named template with the interpolation data and
// sends it to a single recipient.
func (e *EmailService) SendTemplate(ctx context.Context, to, subject, templateID string, data map[string]interface{}) error {
	if !e.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	body := buildTemplateBody(templateID, data)
	return e.send(to, subject, body)
}

// SendPasswordResetEmail sends a password reset link to the user
func (e *EmailService) SendPasswordResetEmail(ctx context.Context, to, name, resetLink string) error {
	if !e.IsConfigured() {
		return fmt.Errorf("SMTP not configured")
	}

	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2 style="color: #1E40AF;">EnglishMaster</h2>
  <p>Hi %s,</p>
  <p>We received a request to reset your password. Click the link below to choose a new one. The link expires in one hour.</p>
  <p><a href="%s">Reset your password</a></p>
  <p>If you did not request this, you can safely ignore this email.</p>
</body>
</html>`, name, resetLink)

	return e.send(to, "Reset Your Password - EnglishMaster", body)
}

func (e *EmailService) send(to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.username, e.password, e.host)

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", e.from))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(addr, auth, e.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}

// buildTemplateBody renders a minimal HTML body for a template id: a branded
// header followed by the interpolation data as a two-column table. The
// delivery templates proper live with the email provider; this body is the
// self-contained fallback rendering.
func buildTemplateBody(templateID string, data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows strings.Builder
	for _, k := range keys {
		rows.WriteString(fmt.Sprintf(
			"<tr><td style=\"padding:4px 12px 4px 0; color:#666;\">%s</td><td style=\"padding:4px 0;\">%v</td></tr>\n",
			k, data[k]))
	}

	var heading string
	switch templateID {
	case "enrollment-confirmation":
		heading = "Your enrollment is confirmed!"
	case "admin-enrollment-notification":
		heading = "New enrollment received"
	default:
		heading = "Notification"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333;">
  <h2 style="color: #1E40AF;">EnglishMaster</h2>
  <h3>%s</h3>
  <table>%s</table>
  <p style="font-size: 12px; color: #666;">For any queries, contact support@englishmaster.com</p>
</body>
</html>`, heading, rows.String())
}
