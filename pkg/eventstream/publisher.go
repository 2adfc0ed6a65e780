// Package eventstream publishes card lifecycle events to an external stream.
package eventstream

import "context"

// Publisher publishes card events to an event stream backend.
type Publisher interface {
	PublishCard(ctx context.Context, event *CardEvent) error
	Close() error
}
