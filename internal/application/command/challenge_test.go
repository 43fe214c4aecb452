package command

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
)

func TestCompleteChallenge_GrantsXPAndPointsOnce(t *testing.T) {
	f := newFixture(t)
	userID := f.registerUser(t)
	ch := f.seedChallenge(t, 150, true)

	started, err := NewStartChallengeHandler(f.deps).Handle(f.ctx, StartChallengeCommand{UserID: userID, ChallengeID: ch.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, started.UserChallenge.Progress)
	assert.False(t, started.UserChallenge.Completed)

	h := NewCompleteChallengeHandler(f.deps)
	res, err := h.Handle(f.ctx, CompleteChallengeCommand{UserID: userID, UserChallengeID: started.UserChallenge.ID})
	require.NoError(t, err)

	assert.True(t, res.UserChallenge.Completed)
	assert.Equal(t, 100, res.UserChallenge.Progress)
	assert.NotNil(t, res.UserChallenge.CompletedAt)
	assert.Equal(t, 150, res.Stats.Points)
	assert.Equal(t, 150, res.Stats.XP)
	assert.Equal(t, 1, res.Stats.Level)

	entries := f.log(t, userID)
	require.Len(t, entries, 1)
	assert.Equal(t, activity.TypeChallenge, entries[0].Type)
	assert.Equal(t, 150, entries[0].XPDelta)
	assert.Equal(t, "Completed 'Number Master'", entries[0].Title)

	_, err = h.Handle(f.ctx, CompleteChallengeCommand{UserID: userID, UserChallengeID: started.UserChallenge.ID})
	assert.ErrorIs(t, err, shared.ErrAlreadyCompleted)
	assert.True(t, shared.NothingApplied(err))

	st := f.stats(t, userID)
	assert.Equal(t, 150, st.Points)
	assert.Equal(t, 150, st.XP)
	assert.Len(t, f.log(t, userID), 1)
}

func TestCompleteChallenge_ConcurrentCompletionsGrantOnce(t *testing.T) {
	f := newFixture(t)
	userID := f.registerUser(t)
	ch := f.seedChallenge(t, 150, true)
	started, err := NewStartChallengeHandler(f.deps).Handle(f.ctx, StartChallengeCommand{UserID: userID, ChallengeID: ch.ID})
	require.NoError(t, err)
	h := NewCompleteChallengeHandler(f.deps)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		repeated  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.Handle(f.ctx, CompleteChallengeCommand{UserID: userID, UserChallengeID: started.UserChallenge.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, shared.ErrAlreadyCompleted):
				repeated++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, repeated)
	st := f.stats(t, userID)
	assert.Equal(t, 150, st.XP)
	assert.Equal(t, 150, st.Points)
	assert.Len(t, f.log(t, userID), 1)
}

func TestStartChallenge_UnknownUser(t *testing.T) {
	f := newFixture(t)
	ch := f.seedChallenge(t, 100, true)

	_, err := NewStartChallengeHandler(f.deps).Handle(f.ctx, StartChallengeCommand{UserID: "ghost", ChallengeID: ch.ID})
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
	assert.True(t, shared.NothingApplied(err))

	n, err := f.store.CountUserChallenges(f.ctx, "ghost", progress.ChallengeFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCompleteChallenge_Errors(t *testing.T) {
	f := newFixture(t)
	owner := f.registerUser(t)
	other := f.registerUser(t)
	ch := f.seedChallenge(t, 100, true)

	started, err := NewStartChallengeHandler(f.deps).Handle(f.ctx, StartChallengeCommand{UserID: owner, ChallengeID: ch.ID})
	require.NoError(t, err)

	h := NewCompleteChallengeHandler(f.deps)

	_, err = h.Handle(f.ctx, CompleteChallengeCommand{UserID: owner, UserChallengeID: "missing"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = h.Handle(f.ctx, CompleteChallengeCommand{UserID: other, UserChallengeID: started.UserChallenge.ID})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = h.Handle(f.ctx, CompleteChallengeCommand{UserID: "", UserChallengeID: started.UserChallenge.ID})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	assert.Equal(t, 0, f.stats(t, owner).XP)
	assert.Equal(t, 0, f.stats(t, other).XP)
	assert.Empty(t, f.log(t, owner))
	assert.Empty(t, f.log(t, other))
}

func TestStartChallenge_RejectsDuplicatesAndInactive(t *testing.T) {
	f := newFixture(t)
	userID := f.registerUser(t)
	ch := f.seedChallenge(t, 100, true)
	inactive := f.seedChallenge(t, 100, false)

	start := NewStartChallengeHandler(f.deps)
	first, err := start.Handle(f.ctx, StartChallengeCommand{UserID: userID, ChallengeID: ch.ID})
	require.NoError(t, err)

	_, err = start.Handle(f.ctx, StartChallengeCommand{UserID: userID, ChallengeID: ch.ID})
	assert.ErrorIs(t, err, shared.ErrAlreadyStarted)

	_, err = start.Handle(f.ctx, StartChallengeCommand{UserID: userID, ChallengeID: inactive.ID})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = start.Handle(f.ctx, StartChallengeCommand{UserID: userID, ChallengeID: "nope"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// a completed enrollment no longer blocks a new one
	_, err = NewCompleteChallengeHandler(f.deps).Handle(f.ctx, CompleteChallengeCommand{UserID: userID, UserChallengeID: first.UserChallenge.ID})
	require.NoError(t, err)
	_, err = start.Handle(f.ctx, StartChallengeCommand{UserID: userID, ChallengeID: ch.ID})
	assert.NoError(t, err)
}

func TestUpdateChallengeProgress(t *testing.T) {
	f := newFixture(t)
	userID := f.registerUser(t)
	other := f.registerUser(t)
	ch := f.seedChallenge(t, 100, true)

	started, err := NewStartChallengeHandler(f.deps).Handle(f.ctx, StartChallengeCommand{UserID: userID, ChallengeID: ch.ID})
	require.NoError(t, err)
	id := started.UserChallenge.ID

	h := NewUpdateChallengeProgressHandler(f.deps)
	uc, err := h.Handle(f.ctx, UpdateChallengeProgressCommand{UserID: userID, UserChallengeID: id, Progress: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, uc.Progress)

	_, err = h.Handle(f.ctx, UpdateChallengeProgressCommand{UserID: userID, UserChallengeID: id, Progress: 100})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = h.Handle(f.ctx, UpdateChallengeProgressCommand{UserID: other, UserChallengeID: id, Progress: 50})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = NewCompleteChallengeHandler(f.deps).Handle(f.ctx, CompleteChallengeCommand{UserID: userID, UserChallengeID: id})
	require.NoError(t, err)

	_, err = h.Handle(f.ctx, UpdateChallengeProgressCommand{UserID: userID, UserChallengeID: id, Progress: 10})
	assert.ErrorIs(t, err, shared.ErrAlreadyCompleted)

	// progress updates never touch the balance
	assert.Equal(t, 100, f.stats(t, userID).Points)
	assert.Len(t, f.log(t, userID), 1)
}

func TestCompleteChallenge_PublishesEvents(t *testing.T) {
	f := newFixture(t)
	userID := f.registerUser(t)
	ch := f.seedChallenge(t, 300, true)

	started, err := NewStartChallengeHandler(f.deps).Handle(f.ctx, StartChallengeCommand{UserID: userID, ChallengeID: ch.ID})
	require.NoError(t, err)
	res, err := NewCompleteChallengeHandler(f.deps).Handle(f.ctx, CompleteChallengeCommand{
		UserID: userID, UserChallengeID: started.UserChallenge.ID, CorrelationID: "req-1",
	})
	require.NoError(t, err)
	assert.True(t, res.LeveledUp)
	assert.Equal(t, 2, res.Stats.Level)

	assert.Equal(t, []shared.EventType{
		shared.EventUserRegistered,
		shared.EventChallengeStarted,
		shared.EventChallengeCompleted,
		shared.EventXPGained,
		shared.EventLevelUp,
	}, f.bus.types())
}
