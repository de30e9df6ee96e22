package audit

import "context"

// Queue transports serialized audit events to the durable sink.
type Queue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// Message is one queued event with its delivery handle.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
}
