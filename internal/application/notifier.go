package application

import "context"

// Notifier alerts an operator. Delivery failures never affect the sender's reply.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}
