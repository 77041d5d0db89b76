package mail

import (
	"fmt"
	"net/smtp"
	"strings"
)

type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

type Mailer interface {
	Send(msg Message) error
}

// SMTP経由の送信。キューのemail workerからだけ呼ばれる。
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(host string, port int, username string, password string, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: auth,
		from: from,
	}
}

func (m *SMTPMailer) Send(msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail: recipient is required")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)

	return smtp.SendMail(m.addr, m.auth, m.from, []string{msg.To}, []byte(b.String()))
}
