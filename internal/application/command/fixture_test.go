package command

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/infrastructure/persistence/memory"
)

// stepClock advances one second on every read so entries never tie.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(e shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type fixture struct {
	ctx   context.Context
	store *memory.Store
	deps  Deps
	bus   *recordingPublisher
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := &stepClock{t: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	bus := &recordingPublisher{}
	deps := Deps{
		Repo:      store,
		Catalog:   store,
		Publisher: bus,
		Clock:     clock,
	}.withDefaults()
	return &fixture{ctx: context.Background(), store: store, deps: deps, bus: bus}
}

func (f *fixture) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fixture) registerUser(t *testing.T) string {
	t.Helper()
	res, err := NewRegisterUserHandler(f.deps, 4).Handle(f.ctx, RegisterUserCommand{
		DisplayName: "Learner " + f.nextID("n"),
	})
	require.NoError(t, err)
	return res.User.ID
}

// setBalance forces a user's balances, bypassing the ledger.
func (f *fixture) setBalance(t *testing.T, userID string, points, xp int) {
	t.Helper()
	err := f.store.WithinUserTx(f.ctx, userID, func(ctx context.Context, tx progress.Tx) error {
		st, err := tx.GetStats(ctx, userID)
		if err != nil {
			return err
		}
		st.Points = points
		st.XP = xp
		st.Level = f.deps.Ledger.Policy().Level(xp)
		return tx.SaveStats(ctx, st)
	})
	require.NoError(t, err)
}

func (f *fixture) stats(t *testing.T, userID string) *progress.UserStats {
	t.Helper()
	st, err := f.store.GetStats(f.ctx, userID)
	require.NoError(t, err)
	return st
}

func (f *fixture) seedChallenge(t *testing.T, xp int, active bool) *catalog.Challenge {
	t.Helper()
	c := &catalog.Challenge{
		ID: f.nextID("challenge"), Title: "Number Master", Description: "Solve ten problems",
		XPReward: xp, Category: "learning", Difficulty: 2, DurationDays: 2, IsActive: active,
	}
	require.NoError(t, f.store.SaveChallenge(f.ctx, c))
	return c
}

func (f *fixture) seedReward(t *testing.T, cost int, active bool) *catalog.Reward {
	t.Helper()
	r := &catalog.Reward{
		ID: f.nextID("reward"), Title: "Extra screen time", Description: "30 minutes",
		PointsRequired: cost, Category: "fun", IsActive: active,
	}
	require.NoError(t, f.store.SaveReward(f.ctx, r))
	return r
}

func (f *fixture) seedAchievement(t *testing.T, xp int) *catalog.Achievement {
	t.Helper()
	a := &catalog.Achievement{
		ID: f.nextID("achievement"), Title: "First Steps", Description: "Complete a challenge",
		Icon: "star", XPReward: xp, Rarity: catalog.RarityCommon,
	}
	require.NoError(t, f.store.SaveAchievement(f.ctx, a))
	return a
}

func (f *fixture) seedQuestion(t *testing.T, correct, xp int) *catalog.Question {
	t.Helper()
	q := &catalog.Question{
		ID: f.nextID("question"), Subject: "math", Text: "2 + 2 = ?",
		Options: []string{"3", "4", "5"}, CorrectAnswer: correct, XPReward: xp, Difficulty: 1,
	}
	require.NoError(t, f.store.SaveQuestion(f.ctx, q))
	return q
}

func (f *fixture) log(t *testing.T, userID string) []*activity.Entry {
	t.Helper()
	entries, err := f.store.ListActivity(f.ctx, userID, activity.Cursor{}, 0)
	require.NoError(t, err)
	return entries
}
