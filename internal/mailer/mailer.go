package mailer

import (
	"context"

	"github.com/kursadbilgin/mailflow/internal/domain"
)

// Mail is one fully-composed outbound message.
type Mail struct {
	Sender      string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment is a resolvable file to attach to a mail.
type Attachment struct {
	FileName string
	FilePath string
}

// Transport is the outbound SMTP delivery port. Implementations must apply
// a bounded connect/send timeout and send the message all-or-nothing.
type Transport interface {
	Send(ctx context.Context, params domain.SMTPTransportParams, mail Mail) error
}
