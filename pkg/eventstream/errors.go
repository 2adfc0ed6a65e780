package eventstream

import "errors"

var (
	// ErrNilCardEvent indicates a nil card event was provided to a publisher.
	ErrNilCardEvent = errors.New("nil card event")

	// ErrPublisherClosed is returned when publishing after Close.
	ErrPublisherClosed = errors.New("publisher closed")
)
