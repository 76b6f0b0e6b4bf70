package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultDialTimeout = 10 * time.Second

// SMTPSender entrega los codigos de recuperacion por SMTP.
// Con implicitTLS abre la conexion ya cifrada (puerto 465); si no, negocia
// STARTTLS cuando el servidor lo ofrece.
type SMTPSender struct {
	addr        string
	host        string
	auth        smtp.Auth
	from        mail.Address
	implicitTLS bool
	dialTimeout time.Duration
	now         func() time.Time
}

func NewSMTPSender(host string, port int, username, password, from, fromName string, implicitTLS bool) (*SMTPSender, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	fromAddr, err := mail.ParseAddress(strings.TrimSpace(from))
	if err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if name := strings.TrimSpace(fromName); name != "" {
		fromAddr.Name = name
	}
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPSender{
		addr:        net.JoinHostPort(host, strconv.Itoa(port)),
		host:        host,
		auth:        auth,
		from:        *fromAddr,
		implicitTLS: implicitTLS,
		dialTimeout: defaultDialTimeout,
		now:         time.Now,
	}, nil
}

func (s *SMTPSender) SendPasswordResetCode(ctx context.Context, toEmail string, code string, expiresAt time.Time) error {
	to, err := mail.ParseAddress(strings.TrimSpace(toEmail))
	if err != nil {
		return fmt.Errorf("recipient: %w", err)
	}
	msg := resetCodeMessage{
		from:      s.from,
		to:        *to,
		code:      code,
		expiresAt: expiresAt,
		sentAt:    s.now(),
		messageID: uuid.NewString() + "@" + s.host,
	}
	return s.deliver(ctx, to.Address, msg.bytes())
}

// deliver respeta el deadline del contexto en el dial y en toda la conversacion SMTP.
func (s *SMTPSender) deliver(ctx context.Context, rcpt string, body []byte) error {
	dialer := &net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if s.implicitTLS {
		conn = tls.Client(conn, &tls.Config{ServerName: s.host})
	}

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if !s.implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}
	if s.auth != nil {
		if err := client.Auth(s.auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(s.from.Address); err != nil {
		return err
	}
	if err := client.Rcpt(rcpt); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

// resetCodeMessage arma el correo con el codigo de recuperacion.
type resetCodeMessage struct {
	from      mail.Address
	to        mail.Address
	code      string
	expiresAt time.Time
	sentAt    time.Time
	messageID string
}

const resetCodeSubject = "Código de recuperación CSI"

func (m resetCodeMessage) body() string {
	return fmt.Sprintf(
		"Tu código para restablecer la contraseña es %s.\r\nVence el %s UTC.\r\nSi no lo solicitaste, ignora este mensaje.\r\n",
		m.code,
		m.expiresAt.UTC().Format(time.RFC3339),
	)
}

func (m resetCodeMessage) bytes() []byte {
	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}
	header("From", m.from.String())
	header("To", m.to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", resetCodeSubject))
	header("Date", m.sentAt.Format(time.RFC1123Z))
	header("Message-ID", "<"+m.messageID+">")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="UTF-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(m.body())
	return []byte(b.String())
}
