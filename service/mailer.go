package application

import (
	"os"

	"gopkg.in/gomail.v2"
)

var (
	smtpServer     = "smtp.office365.com"
	smtpServerPort = 587
	smtpEmail      = os.Getenv("SMTP_AUTH_MAIL")
	smtpPassword   = os.Getenv("SMTP_AUTH_PASSWORD")
)

// Mailer sends the optional email ping that accompanies in-app notifications.
// Callers treat every send as best effort.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailer() *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(smtpServer, smtpServerPort, smtpEmail, smtpPassword),
		from:   smtpEmail,
	}
}

func (mailer *Mailer) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", mailer.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	return mailer.dialer.DialAndSend(m)
}
