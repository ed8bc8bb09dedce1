package services

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/dimitrije/orbit-api/internal/config"
)

var inviteTemplate = template.Must(template.New("invite").Parse(`<html>
<body>
	<h2>Organization invitation</h2>
	<p>Hi,</p>
	<p><strong>{{.Inviter}}</strong> has invited you to join <strong>{{.Organization}}</strong> on Orbit.</p>
	<p><a href="{{.AcceptURL}}">Accept the invitation</a></p>
	<p>If you weren't expecting this, you can ignore this email.</p>
</body>
</html>`))

type EmailService struct {
	cfg      config.SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg, sendMail: smtp.SendMail, now: time.Now}
}

func (s *EmailService) IsConfigured() bool {
	return s.cfg.Host != "" && s.cfg.Username != "" && s.cfg.Password != "" && s.cfg.From != ""
}

// Send delivers an HTML message. It is a no-op when SMTP is not configured.
func (s *EmailService) Send(to, subject, body string) error {
	if !s.IsConfigured() {
		return nil
	}

	addr := s.cfg.Host + ":" + s.cfg.Port
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := s.sendMail(addr, auth, s.cfg.From, []string{to}, s.message(to, subject, body)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *EmailService) SendOrganizationInvite(to, orgName, inviterName, acceptURL string) error {
	var body bytes.Buffer
	err := inviteTemplate.Execute(&body, struct {
		Inviter      string
		Organization string
		AcceptURL    string
	}{inviterName, orgName, acceptURL})
	if err != nil {
		return fmt.Errorf("failed to render invitation: %w", err)
	}

	return s.Send(to, fmt.Sprintf("You've been invited to join %s", orgName), body.String())
}

func (s *EmailService) message(to, subject, body string) []byte {
	var b strings.Builder
	headers := [][2]string{
		{"From", s.cfg.From},
		{"To", to},
		{"Subject", mime.QEncoding.Encode("utf-8", subject)},
		{"Date", s.now().Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", `text/html; charset="UTF-8"`},
	}
	for _, h := range headers {
		b.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
