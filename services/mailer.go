package services

import (
	"io"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer delivers a rendered invoice to a customer. Delivery failures never
// roll back persisted state; the caller surfaces them to the user.
type Mailer interface {
	Send(to, subject, body, attachmentName string, attachment []byte) error
}

// SMTPMailer sends mail through the SMTP server configured in the MAIL_*
// environment variables.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailerFromEnv() *SMTPMailer {
	port := 587
	if env := os.Getenv("MAIL_PORT"); env != "" {
		if p, err := strconv.Atoi(env); err == nil {
			port = p
		}
	}
	host := os.Getenv("MAIL_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = os.Getenv("MAIL_USERNAME")
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: os.Getenv("MAIL_USERNAME"),
		password: os.Getenv("MAIL_PASSWORD"),
		from:     from,
	}
}

func (m *SMTPMailer) Send(to, subject, body, attachmentName string, attachment []byte) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	if len(attachment) > 0 {
		msg.Attach(attachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(attachment)
			return err
		}))
	}

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	return dialer.DialAndSend(msg)
}
