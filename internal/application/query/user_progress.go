package query

import (
	"context"

	"github.com/learnquest/ledger/internal/domain/progress"
)

// UserProgressHandler serves the per-user listing endpoints.
type UserProgressHandler struct {
	repo progress.Repository
}

// NewUserProgressHandler creates a new UserProgressHandler.
func NewUserProgressHandler(repo progress.Repository) *UserProgressHandler {
	return &UserProgressHandler{repo: repo}
}

// Stats returns the user's current stats.
func (h *UserProgressHandler) Stats(ctx context.Context, userID string) (*progress.UserStats, error) {
	stats, err := h.repo.GetStats(ctx, userID)
	if err != nil {
		return nil, storageErr("stats", err)
	}
	return stats, nil
}

// Challenges returns the user's enrollments, optionally filtered.
func (h *UserProgressHandler) Challenges(ctx context.Context, userID string, filter progress.ChallengeFilter) ([]*progress.ChallengeView, error) {
	out, err := h.repo.ListUserChallenges(ctx, userID, filter)
	if err != nil {
		return nil, storageErr("challenges", err)
	}
	return out, nil
}

// Rewards returns the user's redemptions.
func (h *UserProgressHandler) Rewards(ctx context.Context, userID string) ([]*progress.RewardView, error) {
	out, err := h.repo.ListUserRewards(ctx, userID)
	if err != nil {
		return nil, storageErr("rewards", err)
	}
	return out, nil
}

// Achievements returns every unlocked achievement, newest first.
func (h *UserProgressHandler) Achievements(ctx context.Context, userID string) ([]*progress.AchievementView, error) {
	out, err := h.repo.ListUserAchievements(ctx, userID, 0)
	if err != nil {
		return nil, storageErr("achievements", err)
	}
	return out, nil
}
