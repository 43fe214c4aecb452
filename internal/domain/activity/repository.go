package activity

import "context"

// Appender writes entries. Implementations must write inside the caller's
// transaction and assign Seq.
type Appender interface {
	AppendActivity(ctx context.Context, e *Entry) error
}

// Reader pages through a user's log newest-first.
type Reader interface {
	// ListActivity returns up to pageSize entries strictly past cursor,
	// ordered by CreatedAt then Seq, both descending.
	ListActivity(ctx context.Context, userID string, cursor Cursor, pageSize int) ([]*Entry, error)
}
