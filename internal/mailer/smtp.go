package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/kursadbilgin/mailflow/internal/domain"
)

const defaultSendTimeout = 30 * time.Second

// SMTPTransport delivers mail over per-user SMTP connections. A connection
// is opened per send and the whole exchange runs under one deadline.
type SMTPTransport struct {
	timeout time.Duration
	now     func() time.Time
}

func NewSMTPTransport(timeout time.Duration) *SMTPTransport {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	return &SMTPTransport{
		timeout: timeout,
		now:     time.Now,
	}
}

var _ Transport = (*SMTPTransport)(nil)

func (t *SMTPTransport) Send(ctx context.Context, params domain.SMTPTransportParams, mail Mail) error {
	message, err := composeMessage(mail, t.now())
	if err != nil {
		return &DeliveryError{Message: "message composition failed", Cause: err}
	}

	dialer := &net.Dialer{Timeout: t.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", params.Addr())
	if err != nil {
		return classify("dial", err)
	}

	// One deadline bounds the entire SMTP exchange, not just the dial.
	if err := conn.SetDeadline(t.now().Add(t.timeout)); err != nil {
		_ = conn.Close()
		return classify("deadline", err)
	}

	if params.UseSSL {
		conn = tls.Client(conn, &tls.Config{ServerName: params.Host})
	}

	client, err := smtp.NewClient(conn, params.Host)
	if err != nil {
		_ = conn.Close()
		return classify("handshake", err)
	}
	defer client.Close()

	if params.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return &DeliveryError{Message: "server does not support STARTTLS"}
		}
		if err := client.StartTLS(&tls.Config{ServerName: params.Host}); err != nil {
			return classify("starttls", err)
		}
	}

	if ok, _ := client.Extension("AUTH"); ok {
		auth := smtp.PlainAuth("", params.Username, params.Password, params.Host)
		if err := client.Auth(auth); err != nil {
			return classify("auth", err)
		}
	}

	if err := client.Mail(mail.Sender); err != nil {
		return classify("mail from", err)
	}
	if err := client.Rcpt(mail.To); err != nil {
		return classify("rcpt to", err)
	}

	writer, err := client.Data()
	if err != nil {
		return classify("data", err)
	}
	if _, err := writer.Write(message); err != nil {
		_ = writer.Close()
		return classify("data write", err)
	}
	if err := writer.Close(); err != nil {
		return classify("data close", err)
	}

	if err := client.Quit(); err != nil {
		// The message is accepted once DATA closes cleanly; a failed QUIT
		// must not fail the delivery.
		return nil
	}

	return nil
}

// String implements fmt.Stringer for log fields.
func (t *SMTPTransport) String() string {
	return fmt.Sprintf("smtp transport (timeout %s)", t.timeout)
}
