package activity

import (
	"context"
	"iter"

	"github.com/learnquest/ledger/internal/domain/shared"
)

// DefaultPageSize bounds a single storage round trip during Query.
const DefaultPageSize = 50

// Record is the caller-supplied part of an entry.
type Record struct {
	UserID        string
	Type          Type
	Title         string
	XPDelta       int
	AppliedXP     int
	AppliedPoints int
	Reason        string
}

// Recorder appends entries and reads them back lazily.
type Recorder struct {
	reader   Reader
	clock    shared.Clock
	newID    func() string
	pageSize int
}

// NewRecorder creates a Recorder. newID must return unique identifiers.
func NewRecorder(reader Reader, clock shared.Clock, newID func() string, pageSize int) *Recorder {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Recorder{reader: reader, clock: clock, newID: newID, pageSize: pageSize}
}

// Append stamps and validates the record, then writes it through w,
// which is expected to be the caller's open transaction.
func (r *Recorder) Append(ctx context.Context, w Appender, rec Record) (*Entry, error) {
	e := &Entry{
		ID:            r.newID(),
		UserID:        rec.UserID,
		Type:          rec.Type,
		Title:         rec.Title,
		XPDelta:       rec.XPDelta,
		AppliedXP:     rec.AppliedXP,
		AppliedPoints: rec.AppliedPoints,
		Reason:        rec.Reason,
		CreatedAt:     r.clock.Now(),
	}
	if err := e.Validate(); err != nil {
		return nil, shared.WrapError("activity", "Append", shared.ErrInvalidInput, "invalid activity entry", err)
	}
	if err := w.AppendActivity(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Query yields a user's entries newest-first, at most limit of them
// (limit <= 0 means all). Pages are fetched on demand, and every range
// over the returned sequence starts again from the newest entry.
// A storage error is yielded once, unwrapped, and ends the sequence; callers
// wrap it.
func (r *Recorder) Query(ctx context.Context, userID string, limit int) iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		var cursor Cursor
		emitted := 0
		for {
			size := r.pageSize
			if limit > 0 && limit-emitted < size {
				size = limit - emitted
			}
			page, err := r.reader.ListActivity(ctx, userID, cursor, size)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
				emitted++
			}
			if len(page) < size || (limit > 0 && emitted >= limit) {
				return
			}
			cursor = After(page[len(page)-1])
		}
	}
}

// Collect drains a sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[*Entry, error]) ([]*Entry, error) {
	out := make([]*Entry, 0)
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
