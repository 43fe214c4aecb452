package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/domain/user"
)

var joined = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func TestTx_JoinRowsRequireUser(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	tests := []struct {
		name  string
		write func(ctx context.Context, tx progress.Tx) error
	}{
		{"challenge", func(ctx context.Context, tx progress.Tx) error {
			return tx.CreateUserChallenge(ctx, &progress.UserChallenge{ID: "uc-1", UserID: "ghost", ChallengeID: "c-1", StartedAt: joined})
		}},
		{"answer", func(ctx context.Context, tx progress.Tx) error {
			return tx.CreateUserAnswer(ctx, &progress.UserAnswer{ID: "ans-1", UserID: "ghost", QuestionID: "q-1", AnsweredAt: joined})
		}},
		{"reward", func(ctx context.Context, tx progress.Tx) error {
			return tx.CreateUserReward(ctx, &progress.UserReward{ID: "ur-1", UserID: "ghost", RewardID: "r-1", RedeemedAt: joined})
		}},
		{"achievement", func(ctx context.Context, tx progress.Tx) error {
			return tx.CreateUserAchievement(ctx, &progress.UserAchievement{ID: "ua-1", UserID: "ghost", AchievementID: "a-1", UnlockedAt: joined})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.WithinUserTx(ctx, "ghost", tt.write)
			assert.ErrorIs(t, err, shared.ErrUserNotFound)
		})
	}

	assert.Empty(t, s.userChallenges)
	assert.Empty(t, s.userAnswers)
	assert.Empty(t, s.userRewards)
	assert.Empty(t, s.userAchievements)
}

func TestTx_JoinRowsAcceptUserStagedInSameTx(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	err := s.WithinUserTx(ctx, "u-1", func(ctx context.Context, tx progress.Tx) error {
		u, err := user.NewUser(user.NewUserParams{ID: "u-1", DisplayName: "Ana", JoinedAt: joined})
		if err != nil {
			return err
		}
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		return tx.CreateUserAnswer(ctx, &progress.UserAnswer{ID: "ans-1", UserID: "u-1", QuestionID: "q-1", AnsweredAt: joined})
	})
	require.NoError(t, err)

	err = s.WithinUserTx(ctx, "u-1", func(ctx context.Context, tx progress.Tx) error {
		return tx.CreateUserChallenge(ctx, &progress.UserChallenge{ID: "uc-1", UserID: "u-1", ChallengeID: "c-1", StartedAt: joined})
	})
	require.NoError(t, err)

	assert.Len(t, s.userAnswers, 1)
	assert.Len(t, s.userChallenges, 1)
}
