package message

import "context"

// Repository is the data-access contract for messages. Implementations exist
// per driver, and a routed implementation picks one of them per call.
type Repository interface {
	// Create stores msg and fills in its ID and CreatedAt.
	Create(ctx context.Context, msg *Message) error
	// Latest returns the newest message or ErrNotFound.
	Latest(ctx context.Context) (*Message, error)
	// List returns messages newest first.
	List(ctx context.Context, limit, offset int) ([]*Message, error)
	// Count returns the total number of messages.
	Count(ctx context.Context) (int64, error)
}
