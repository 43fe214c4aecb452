package progress

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/ledger/internal/domain/shared"
)

type mapStats map[string]*UserStats

func (m mapStats) GetStats(_ context.Context, userID string) (*UserStats, error) {
	s, ok := m[userID]
	if !ok {
		return nil, shared.ErrStatsNotFound
	}
	return s.Clone(), nil
}

func (m mapStats) CreateStats(_ context.Context, s *UserStats) error {
	m[s.UserID] = s.Clone()
	return nil
}

func (m mapStats) SaveStats(_ context.Context, s *UserStats) error {
	m[s.UserID] = s.Clone()
	return nil
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func newTestLedger(clock *fixedClock) *Ledger {
	return NewLedger(DefaultLedgerConfig(), clock)
}

func TestLedger_ProvisionDefaults(t *testing.T) {
	store := mapStats{}
	l := newTestLedger(&fixedClock{t: time.Now()})

	s, err := l.Provision(context.Background(), store, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Points)
	assert.Equal(t, 0, s.XP)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 0, s.Streak)
	assert.Nil(t, s.LastActivityAt)
}

func TestLedger_ApplyDeltaClampsAtZero(t *testing.T) {
	ctx := context.Background()
	store := mapStats{"u1": {UserID: "u1", Points: 30, XP: 30, Level: 1}}
	l := newTestLedger(&fixedClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)})

	ch, err := l.ApplyDelta(ctx, store, "u1", -50, -50)
	require.NoError(t, err)
	assert.Equal(t, 0, ch.After.Points)
	assert.Equal(t, 0, ch.After.XP)
	assert.Equal(t, -30, ch.AppliedPoints)
	assert.Equal(t, -30, ch.AppliedXP)
	assert.Equal(t, 30, ch.Before.Points)
	assert.NotNil(t, ch.After.LastActivityAt)
}

func TestLedger_ApplyDeltaRecomputesLevel(t *testing.T) {
	ctx := context.Background()
	store := mapStats{"u1": NewUserStats("u1")}
	l := newTestLedger(&fixedClock{t: time.Now()})

	ch, err := l.ApplyDelta(ctx, store, "u1", 650, 650)
	require.NoError(t, err)
	assert.Equal(t, 3, ch.After.Level)
	assert.True(t, ch.LeveledUp())

	ch, err = l.ApplyDelta(ctx, store, "u1", -400, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, ch.After.Level)
	assert.False(t, ch.LeveledUp())
	assert.Equal(t, 650, ch.After.Points)
}

func TestLedger_ApplyDeltaMissingStats(t *testing.T) {
	l := newTestLedger(&fixedClock{t: time.Now()})
	_, err := l.ApplyDelta(context.Background(), mapStats{}, "ghost", 10, 10)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLedger_Streak(t *testing.T) {
	ctx := context.Background()
	store := mapStats{"u1": NewUserStats("u1")}
	clock := &fixedClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	l := newTestLedger(clock)

	step := func(xp int) int {
		ch, err := l.ApplyDelta(ctx, store, "u1", xp, xp)
		require.NoError(t, err)
		return ch.After.Streak
	}

	assert.Equal(t, 1, step(10))

	clock.t = clock.t.Add(3 * time.Hour)
	assert.Equal(t, 1, step(10), "same day keeps the streak")

	clock.t = clock.t.Add(24 * time.Hour)
	assert.Equal(t, 2, step(10), "next day extends it")

	clock.t = clock.t.Add(24 * time.Hour)
	assert.Equal(t, 2, step(-5), "losses never touch the streak")

	clock.t = clock.t.Add(72 * time.Hour)
	assert.Equal(t, 1, step(10), "a gap resets it")
}

func TestLedger_StreakUsesConfiguredTimezone(t *testing.T) {
	ctx := context.Background()
	loc := time.FixedZone("UTC+5", 5*60*60)
	store := mapStats{"u1": NewUserStats("u1")}
	clock := &fixedClock{t: time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)} // 22:00 local
	cfg := DefaultLedgerConfig()
	cfg.StreakLocation = loc
	l := NewLedger(cfg, clock)

	_, err := l.ApplyDelta(ctx, store, "u1", 10, 10)
	require.NoError(t, err)

	// 20:00 UTC is already the next local day
	clock.t = time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)
	ch, err := l.ApplyDelta(ctx, store, "u1", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.After.Streak)
}

func TestLedger_StreakDisabled(t *testing.T) {
	ctx := context.Background()
	store := mapStats{"u1": NewUserStats("u1")}
	cfg := DefaultLedgerConfig()
	cfg.TrackStreak = false
	l := NewLedger(cfg, &fixedClock{t: time.Now()})

	ch, err := l.ApplyDelta(ctx, store, "u1", 10, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, ch.After.Streak)
}

func TestUserChallenge_SetProgress(t *testing.T) {
	uc := &UserChallenge{}
	require.NoError(t, uc.SetProgress(0))
	require.NoError(t, uc.SetProgress(MaxOpenProgress))
	assert.ErrorIs(t, uc.SetProgress(100), ErrInvalidProgress)
	assert.ErrorIs(t, uc.SetProgress(-1), ErrInvalidProgress)

	at := time.Now()
	uc.Complete(at)
	assert.True(t, uc.Completed)
	assert.Equal(t, 100, uc.Progress)
	assert.Equal(t, at, *uc.CompletedAt)
}
