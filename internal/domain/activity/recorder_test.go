package activity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/ledger/internal/domain/shared"
)

// sliceLog is an in-test Reader/Appender that counts page fetches.
type sliceLog struct {
	entries []*Entry
	seq     int64
	fetches int
	failAt  int
}

func (l *sliceLog) AppendActivity(_ context.Context, e *Entry) error {
	l.seq++
	e.Seq = l.seq
	l.entries = append(l.entries, e)
	return nil
}

func (l *sliceLog) ListActivity(_ context.Context, userID string, cursor Cursor, pageSize int) ([]*Entry, error) {
	l.fetches++
	if l.failAt > 0 && l.fetches == l.failAt {
		return nil, errors.New("connection reset")
	}
	var out []*Entry
	for _, e := range l.entries {
		if e.UserID == userID && cursor.Admits(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) })
	if pageSize > 0 && len(out) > pageSize {
		out = out[:pageSize]
	}
	return out, nil
}

type frozenClock struct{ t time.Time }

func (c frozenClock) Now() time.Time { return c.t }

func counterIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("e%d", n)
	}
}

func seedLog(t *testing.T, r *Recorder, log *sliceLog, userID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := r.Append(context.Background(), log, Record{
			UserID: userID, Type: TypeQuestion, Title: fmt.Sprintf("entry %d", i), XPDelta: 10,
		})
		require.NoError(t, err)
	}
}

func titles(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func TestRecorder_AppendStampsEntry(t *testing.T) {
	log := &sliceLog{}
	at := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	r := NewRecorder(log, frozenClock{t: at}, counterIDs(), 0)

	e, err := r.Append(context.Background(), log, Record{
		UserID: "u1", Type: TypePenalty, Title: "Penalty applied", XPDelta: -50,
		AppliedPoints: -30, AppliedXP: -30, Reason: "late",
	})
	require.NoError(t, err)
	assert.Equal(t, "e1", e.ID)
	assert.Equal(t, at, e.CreatedAt)
	assert.Equal(t, int64(1), e.Seq)
	assert.Equal(t, -50, e.XPDelta)

	_, err = r.Append(context.Background(), log, Record{UserID: "u1", Type: TypePenalty, Title: "Penalty applied"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.ErrorIs(t, err, ErrMissingReason)

	_, err = r.Append(context.Background(), log, Record{UserID: "u1", Type: "bogus", Title: "x"})
	assert.ErrorIs(t, err, ErrInvalidType)
	assert.Len(t, log.entries, 1)
}

func TestRecorder_QueryNewestFirstWithTies(t *testing.T) {
	log := &sliceLog{}
	// same timestamp for every entry: insertion order must decide
	r := NewRecorder(log, frozenClock{t: time.Now()}, counterIDs(), 2)
	seedLog(t, r, log, "u1", 5)
	seedLog(t, r, log, "u2", 1)

	got, err := Collect(r.Query(context.Background(), "u1", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"entry 4", "entry 3", "entry 2", "entry 1", "entry 0"}, titles(got))

	got, err = Collect(r.Query(context.Background(), "u1", 3))
	require.NoError(t, err)
	assert.Equal(t, []string{"entry 4", "entry 3", "entry 2"}, titles(got))
}

func TestRecorder_QueryIsLazy(t *testing.T) {
	log := &sliceLog{}
	r := NewRecorder(log, frozenClock{t: time.Now()}, counterIDs(), 2)
	seedLog(t, r, log, "u1", 10)

	seq := r.Query(context.Background(), "u1", 0)
	assert.Equal(t, 0, log.fetches, "building the sequence must not touch storage")

	for range seq {
		break
	}
	assert.Equal(t, 1, log.fetches)
}

func TestRecorder_QueryIsRestartable(t *testing.T) {
	log := &sliceLog{}
	r := NewRecorder(log, frozenClock{t: time.Now()}, counterIDs(), 3)
	seedLog(t, r, log, "u1", 4)

	seq := r.Query(context.Background(), "u1", 0)
	first, err := Collect(seq)
	require.NoError(t, err)

	seedLog(t, r, log, "u1", 1)
	second, err := Collect(seq)
	require.NoError(t, err)

	assert.Len(t, first, 4)
	assert.Len(t, second, 5)
	assert.Equal(t, "entry 0", second[0].Title, "restart begins at the newest entry")
}

func TestRecorder_QueryEmptyAndError(t *testing.T) {
	log := &sliceLog{}
	r := NewRecorder(log, frozenClock{t: time.Now()}, counterIDs(), 2)

	got, err := Collect(r.Query(context.Background(), "nobody", 0))
	require.NoError(t, err)
	assert.Empty(t, got)

	seedLog(t, r, log, "u1", 5)
	log.fetches = 0
	log.failAt = 2
	_, err = Collect(r.Query(context.Background(), "u1", 0))
	assert.Error(t, err)
}

func TestCursor(t *testing.T) {
	at := time.Now()
	older := &Entry{CreatedAt: at, Seq: 1}
	newer := &Entry{CreatedAt: at, Seq: 2}
	newest := &Entry{CreatedAt: at.Add(time.Second), Seq: 0}

	assert.True(t, Cursor{}.IsZero())
	assert.True(t, Cursor{}.Admits(newest))

	c := After(newer)
	assert.True(t, c.Admits(older))
	assert.False(t, c.Admits(newer))
	assert.False(t, c.Admits(newest))
}
