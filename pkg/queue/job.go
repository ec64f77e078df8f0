package queue

import "context"

// Job handles every message of one type.
type Job interface {
	// Type is the message type the job consumes.
	Type() string

	// Handle processes one payload. A non-nil error schedules a retry.
	Handle(ctx context.Context, payload []byte) error
}
