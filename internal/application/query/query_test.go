package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/domain/user"
	"github.com/learnquest/ledger/internal/infrastructure/persistence/memory"
)

var base = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

type seeded struct {
	ctx   context.Context
	store *memory.Store
}

func newSeeded(t *testing.T) *seeded {
	t.Helper()
	return &seeded{ctx: context.Background(), store: memory.NewStore()}
}

func (s *seeded) tx(t *testing.T, userID string, fn progress.TxFunc) {
	t.Helper()
	require.NoError(t, s.store.WithinUserTx(s.ctx, userID, fn))
}

func (s *seeded) user(t *testing.T, id, name string, xp int) {
	t.Helper()
	s.tx(t, id, func(ctx context.Context, tx progress.Tx) error {
		u, err := user.NewUser(user.NewUserParams{ID: id, DisplayName: name, JoinedAt: base})
		if err != nil {
			return err
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		st := progress.NewUserStats(id)
		st.XP = xp
		st.Points = xp
		st.Level = progress.NewLinearLevelPolicy(0).Level(xp)
		return tx.CreateStats(ctx, st)
	})
}

func TestGetDashboard(t *testing.T) {
	s := newSeeded(t)
	s.user(t, "u1", "Ana", 450)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.store.SaveChallenge(s.ctx, &catalog.Challenge{
			ID: fmt.Sprintf("c%d", i), Title: fmt.Sprintf("Challenge %d", i), XPReward: 100,
			Category: "learning", Difficulty: 1, DurationDays: 1, IsActive: true,
		}))
	}
	for i := 0; i < 7; i++ {
		require.NoError(t, s.store.SaveAchievement(s.ctx, &catalog.Achievement{
			ID: fmt.Sprintf("a%d", i), Title: fmt.Sprintf("Badge %d", i), XPReward: 10, Rarity: catalog.RarityRare,
		}))
	}

	s.tx(t, "u1", func(ctx context.Context, tx progress.Tx) error {
		for i := 0; i < 3; i++ {
			uc := &progress.UserChallenge{
				ID: fmt.Sprintf("uc%d", i), UserID: "u1", ChallengeID: fmt.Sprintf("c%d", i),
				StartedAt: base.Add(time.Duration(i) * time.Hour),
			}
			if i == 0 {
				uc.Complete(base.Add(10 * time.Hour))
			}
			if err := tx.CreateUserChallenge(ctx, uc); err != nil {
				return err
			}
		}
		for i := 0; i < 7; i++ {
			err := tx.CreateUserAchievement(ctx, &progress.UserAchievement{
				ID: fmt.Sprintf("ua%d", i), UserID: "u1", AchievementID: fmt.Sprintf("a%d", i),
				UnlockedAt: base.Add(time.Duration(i) * time.Minute),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	h := NewGetDashboardHandler(s.store, s.store, nil, 0)
	d, err := h.Handle(s.ctx, GetDashboardQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, "Ana", d.Name)
	assert.Equal(t, 450, d.Stats.Points)
	assert.Equal(t, 2, d.Stats.Level)
	assert.Equal(t, 600, d.NextLevelXP)
	assert.Equal(t, 50, d.LevelProgress)
	assert.Equal(t, 1, d.ChallengesCompleted)
	assert.Equal(t, 7, d.AchievementsUnlocked)

	require.Len(t, d.ActiveChallenges, 2)
	for _, v := range d.ActiveChallenges {
		assert.False(t, v.Completed)
		require.NotNil(t, v.Challenge)
	}

	require.Len(t, d.RecentAchievements, DefaultRecentAchievements)
	assert.Equal(t, "a6", d.RecentAchievements[0].AchievementID)
	assert.Equal(t, "Badge 6", d.RecentAchievements[0].Achievement.Title)
	assert.Equal(t, "a2", d.RecentAchievements[4].AchievementID)
}

func TestGetDashboard_Errors(t *testing.T) {
	s := newSeeded(t)
	h := NewGetDashboardHandler(s.store, s.store, nil, 3)

	_, err := h.Handle(s.ctx, GetDashboardQuery{UserID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = h.Handle(s.ctx, GetDashboardQuery{UserID: " "})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestGetDashboard_EmptyUser(t *testing.T) {
	s := newSeeded(t)
	s.user(t, "u1", "Bo", 0)

	d, err := NewGetDashboardHandler(s.store, s.store, nil, 0).Handle(s.ctx, GetDashboardQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, d.ActiveChallenges)
	assert.Empty(t, d.RecentAchievements)
	assert.Equal(t, 1, d.Stats.Level)
	assert.Equal(t, 300, d.NextLevelXP)
}

func TestGetActivityLog(t *testing.T) {
	s := newSeeded(t)
	s.user(t, "u1", "Ana", 0)

	clockAt, n := base, 0
	recorder := activity.NewRecorder(s.store, shared.ClockFunc(func() time.Time {
		clockAt = clockAt.Add(time.Minute)
		return clockAt
	}), func() string {
		n++
		return fmt.Sprintf("e-%d", n)
	}, 2)

	s.tx(t, "u1", func(ctx context.Context, tx progress.Tx) error {
		for i := 0; i < 5; i++ {
			if _, err := recorder.Append(ctx, tx, activity.Record{
				UserID: "u1", Type: activity.TypeChallenge, Title: fmt.Sprintf("Completed '%d'", i), XPDelta: 10,
			}); err != nil {
				return err
			}
		}
		return nil
	})

	h := NewGetActivityLogHandler(recorder)

	all, err := h.Handle(s.ctx, GetActivityLogQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "Completed '4'", all[0].Title)
	assert.Equal(t, "Completed '0'", all[4].Title)

	some, err := h.Handle(s.ctx, GetActivityLogQuery{UserID: "u1", Limit: 2})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, all[:2], some)

	none, err := h.Handle(s.ctx, GetActivityLogQuery{UserID: "u2"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetActivityLog_CapsAtMaxLimit(t *testing.T) {
	s := newSeeded(t)
	s.user(t, "u1", "Ana", 0)

	clockAt, n := base, 0
	recorder := activity.NewRecorder(s.store, shared.ClockFunc(func() time.Time {
		clockAt = clockAt.Add(time.Second)
		return clockAt
	}), func() string {
		n++
		return fmt.Sprintf("e-%d", n)
	}, 0)

	s.tx(t, "u1", func(ctx context.Context, tx progress.Tx) error {
		for i := 0; i < MaxActivityLimit+5; i++ {
			if _, err := recorder.Append(ctx, tx, activity.Record{
				UserID: "u1", Type: activity.TypeQuestion, Title: fmt.Sprintf("Answer %d", i), XPDelta: 1,
			}); err != nil {
				return err
			}
		}
		return nil
	})

	h := NewGetActivityLogHandler(recorder)
	for _, limit := range []int{0, MaxActivityLimit + 1} {
		got, err := h.Handle(s.ctx, GetActivityLogQuery{UserID: "u1", Limit: limit})
		require.NoError(t, err)
		require.Len(t, got, MaxActivityLimit, "limit %d", limit)
		assert.Equal(t, fmt.Sprintf("Answer %d", MaxActivityLimit+4), got[0].Title)
	}
}

func TestCatalogQuestionsHideAnswers(t *testing.T) {
	s := newSeeded(t)
	require.NoError(t, s.store.SaveQuestion(s.ctx, &catalog.Question{
		ID: "q1", Subject: "science", Text: "Which planet is red?",
		Options: []string{"Venus", "Mars"}, CorrectAnswer: 1, XPReward: 10, Difficulty: 1,
	}))

	views, err := NewCatalogHandler(s.store).Questions(s.ctx, "Science")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Which planet is red?", views[0].Question)
	assert.Equal(t, []string{"Venus", "Mars"}, views[0].Options)
}
