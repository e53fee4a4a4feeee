// Package notify is the outbound delivery contract. The workflow only ever
// asks it to send a short one-time code and to report success or failure;
// a failure must abort the operation that requested the send.
package notify

import (
	"fmt"
	"net/smtp"

	"shuttle_desk/internal/config"
)

// Mailer delivers a password-reset code to an address.
type Mailer interface {
	SendOTP(to, code string) error
}

// Default is the mailer the controllers use; tests swap in a fake.
var Default Mailer = &SMTPMailer{}

// SMTPMailer sends through the SMTP relay named in the environment.
type SMTPMailer struct{}

func (m *SMTPMailer) SendOTP(to, code string) error {
	host := config.GetEnv("SMTP_HOST", "localhost")
	port := config.GetEnv("SMTP_PORT", "25")
	from := config.GetEnv("SMTP_FROM", "no-reply@shuttle-desk.local")

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Shuttle Desk password reset\r\n\r\n"+
		"Your password reset code is %s. It expires in 15 minutes.\r\n", from, to, code)

	addr := host + ":" + port
	var auth smtp.Auth
	if user := config.GetEnv("SMTP_USER", ""); user != "" {
		auth = smtp.PlainAuth("", user, config.GetEnv("SMTP_PASSWORD", ""), host)
	}
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("otp delivery failed: %w", err)
	}
	return nil
}
