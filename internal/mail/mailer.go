package mail

import (
	"fmt"
	"net/smtp"
)

// Mailer delivers transactional mail. Delivery failure is a hard error for
// the caller; it is never swallowed.
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	addr string
	from string
}

// NewSMTPMailer sends mail through the SMTP server at addr ("host:port").
func NewSMTPMailer(addr, from string) Mailer {
	return &smtpMailer{addr: addr, from: from}
}

func (m *smtpMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, body)
	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
