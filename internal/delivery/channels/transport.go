package channels

import (
	"context"

	"tamil_society/internal/notification"
)

// Envelope is one rendered email for one recipient
type Envelope struct {
	To       string
	ToName   string
	Subject  string
	Template string
	Payload  notification.Payload
	HTML     string
	Text     string
}

// Transport sends rendered emails. Implementations must honour ctx cancellation.
type Transport interface {
	Send(ctx context.Context, env Envelope) error
	Name() string
}
