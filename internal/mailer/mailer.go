// Package mailer sends transactional notification emails over SMTP.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/ateliercms/api/internal/models"
)

// Mailer composes and sends notification emails.
type Mailer struct {
	host      string
	port      int
	user      string
	password  string
	from      string
	recipient string
	logger    *slog.Logger

	// send is swappable in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Config carries the SMTP connection settings.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	From      string
	Recipient string
}

// New creates a Mailer. When cfg.Recipient is empty, notifications are
// logged and dropped instead of sent.
func New(cfg Config, logger *slog.Logger) *Mailer {
	return &Mailer{
		host:      cfg.Host,
		port:      cfg.Port,
		user:      cfg.User,
		password:  cfg.Password,
		from:      cfg.From,
		recipient: cfg.Recipient,
		logger:    logger,
		send:      smtp.SendMail,
	}
}

// contactSubject builds the notification subject from the sender's name
// and organization.
func contactSubject(c models.Contact) string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		name = "Unknown"
	}
	subject := "New contact inquiry from " + name
	if c.OrganizationName != "" {
		subject += " at " + c.OrganizationName
	}
	return subject
}

var contactTmpl = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1e293b;">
  <h2>New contact inquiry</h2>
  <table cellpadding="6">
    <tr><td><b>First name</b></td><td>{{.FirstName}}</td></tr>
    <tr><td><b>Last name</b></td><td>{{.LastName}}</td></tr>
    <tr><td><b>Phone</b></td><td>{{.Phone}}</td></tr>
    <tr><td><b>Email</b></td><td>{{.Email}}</td></tr>
    <tr><td><b>Organization</b></td><td>{{.OrganizationName}}</td></tr>
  </table>
  <h3>Message</h3>
  <p style="white-space: pre-wrap;">{{.Message}}</p>
</body>
</html>`))

// NotifyContact emails the configured recipient about a new inquiry.
// A missing recipient is not an error; the inquiry is already persisted.
func (m *Mailer) NotifyContact(c models.Contact) error {
	if m.recipient == "" {
		m.logger.Info("contact notification skipped, no recipient configured", "contact_id", c.ID)
		return nil
	}

	var body bytes.Buffer
	if err := contactTmpl.Execute(&body, c); err != nil {
		return fmt.Errorf("rendering contact email: %w", err)
	}

	msg := m.buildMessage(m.recipient, contactSubject(c), body.Bytes())

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := m.send(addr, auth, m.from, []string{m.recipient}, msg); err != nil {
		return fmt.Errorf("sending contact notification: %w", err)
	}

	m.logger.Info("contact notification sent", "contact_id", c.ID, "to", m.recipient)
	return nil
}

func (m *Mailer) buildMessage(to, subject string, htmlBody []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.Write(htmlBody)
	return b.Bytes()
}
