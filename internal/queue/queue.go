package queue

import "context"

const (
	// MailQueue is the work queue carrying one message per mail job.
	MailQueue = "mail.outgoing"

	// MailDLQ receives messages the consumer rejected as unprocessable.
	MailDLQ = "dlq.mail.outgoing"
)

// Publisher publishes mail job messages to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg MailMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg MailMessage) error

// Consumer consumes mail job messages from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}
