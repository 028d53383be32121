package analytics

import "context"

// Store is where the analytics consumers land events. Streams deliver at
// least once, so implementations should tolerate replays of the same event.
type Store interface {
	// SaveURLCreated records a new short link and its owner, if any.
	SaveURLCreated(ctx context.Context, event *URLCreatedEvent) error
	// SaveURLAccessed counts one resolution of a short link.
	SaveURLAccessed(ctx context.Context, event *URLAccessedEvent) error
}
