package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/domain/user"
)

// txStore implements progress.Tx on an open pgx transaction. The caller
// already holds the user's advisory lock.
type txStore struct {
	tx pgx.Tx
}

var _ progress.Tx = (*txStore)(nil)

// CreateUser implements progress.Tx.
func (t *txStore) CreateUser(ctx context.Context, u *user.User) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO users (id, username, display_name, email, profile_image_url, password_hash, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, u.ID, nullIfEmpty(u.Username), u.DisplayName, u.Email, u.ProfileImageURL, u.PasswordHash, u.JoinedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserExists
		}
		return err
	}
	return nil
}

// GetStats implements progress.StatsStore. The row is locked until commit.
func (t *txStore) GetStats(ctx context.Context, userID string) (*progress.UserStats, error) {
	return scanStats(t.tx.QueryRow(ctx,
		`SELECT `+statsColumns+` FROM user_stats WHERE user_id = $1 FOR UPDATE`, userID))
}

// CreateStats implements progress.StatsStore.
func (t *txStore) CreateStats(ctx context.Context, st *progress.UserStats) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO user_stats (user_id, points, xp, level, streak, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, st.UserID, st.Points, st.XP, st.Level, st.Streak, st.LastActivityAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.WrapError("ledger", "CreateStats", shared.ErrAlreadyExists, "user stats already exist", err)
		}
		return err
	}
	return nil
}

// SaveStats implements progress.StatsStore.
func (t *txStore) SaveStats(ctx context.Context, st *progress.UserStats) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE user_stats SET points = $2, xp = $3, level = $4, streak = $5, last_activity_at = $6
		WHERE user_id = $1
	`, st.UserID, st.Points, st.XP, st.Level, st.Streak, st.LastActivityAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrStatsNotFound
	}
	return nil
}

// GetUserChallenge implements progress.Tx.
func (t *txStore) GetUserChallenge(ctx context.Context, id string) (*progress.UserChallenge, error) {
	uc := &progress.UserChallenge{}
	err := t.tx.QueryRow(ctx, `
		SELECT id, user_id, challenge_id, progress, completed, started_at, completed_at
		FROM user_challenges WHERE id = $1 FOR UPDATE
	`, id).Scan(&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Progress, &uc.Completed, &uc.StartedAt, &uc.CompletedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserChallengeNotFound
		}
		return nil, err
	}
	return uc, nil
}

// HasOpenChallenge implements progress.Tx.
func (t *txStore) HasOpenChallenge(ctx context.Context, userID, challengeID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_challenges WHERE user_id = $1 AND challenge_id = $2 AND NOT completed)
	`, userID, challengeID).Scan(&exists)
	return exists, err
}

// CreateUserChallenge implements progress.Tx.
func (t *txStore) CreateUserChallenge(ctx context.Context, uc *progress.UserChallenge) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO user_challenges (id, user_id, challenge_id, progress, completed, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uc.ID, uc.UserID, uc.ChallengeID, uc.Progress, uc.Completed, uc.StartedAt, uc.CompletedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrChallengeStarted
		}
		if IsForeignKeyViolation(err) {
			return shared.ErrUserNotFound
		}
		return err
	}
	return nil
}

// SaveUserChallenge implements progress.Tx.
func (t *txStore) SaveUserChallenge(ctx context.Context, uc *progress.UserChallenge) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE user_challenges SET progress = $2, completed = $3, completed_at = $4 WHERE id = $1
	`, uc.ID, uc.Progress, uc.Completed, uc.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserChallengeNotFound
	}
	return nil
}

// CreateUserReward implements progress.Tx.
func (t *txStore) CreateUserReward(ctx context.Context, ur *progress.UserReward) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO user_rewards (id, user_id, reward_id, redeemed_at) VALUES ($1, $2, $3, $4)
	`, ur.ID, ur.UserID, ur.RewardID, ur.RedeemedAt)
	return err
}

// HasAchievement implements progress.Tx.
func (t *txStore) HasAchievement(ctx context.Context, userID, achievementID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_achievements WHERE user_id = $1 AND achievement_id = $2)
	`, userID, achievementID).Scan(&exists)
	return exists, err
}

// CreateUserAchievement implements progress.Tx.
func (t *txStore) CreateUserAchievement(ctx context.Context, ua *progress.UserAchievement) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO user_achievements (id, user_id, achievement_id, unlocked_at) VALUES ($1, $2, $3, $4)
	`, ua.ID, ua.UserID, ua.AchievementID, ua.UnlockedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAchievementUnlocked
		}
		return err
	}
	return nil
}

// CreateUserAnswer implements progress.Tx.
func (t *txStore) CreateUserAnswer(ctx context.Context, ua *progress.UserAnswer) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO user_answers (id, user_id, question_id, selected_answer, is_correct, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, ua.ID, ua.UserID, ua.QuestionID, ua.SelectedAnswer, ua.IsCorrect, ua.AnsweredAt)
	if err != nil && IsForeignKeyViolation(err) {
		return shared.ErrUserNotFound
	}
	return err
}

// AppendActivity implements activity.Appender and fills in e.Seq.
func (t *txStore) AppendActivity(ctx context.Context, e *activity.Entry) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO activity_log (id, user_id, type, title, xp, applied_xp, applied_points, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq
	`, e.ID, e.UserID, string(e.Type), e.Title, e.XPDelta, e.AppliedXP, e.AppliedPoints, e.Reason, e.CreatedAt).Scan(&e.Seq)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
