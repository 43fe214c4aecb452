package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/pkg/logger"
)

// UnlockAchievementCommand grants an achievement to a user.
type UnlockAchievementCommand struct {
	UserID        string
	AchievementID string
	CorrelationID string
}

// Validate validates the command.
func (c UnlockAchievementCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return invalidInput("unlock_achievement", "user_id is required")
	}
	if strings.TrimSpace(c.AchievementID) == "" {
		return invalidInput("unlock_achievement", "achievement_id is required")
	}
	return nil
}

// UnlockAchievementResult contains the outcome of an unlock.
type UnlockAchievementResult struct {
	UserAchievement *progress.UserAchievement
	Achievement     *catalog.Achievement
	Stats           *progress.UserStats
	Entry           *activity.Entry
	LeveledUp       bool
}

// UnlockAchievementHandler handles UnlockAchievementCommand.
type UnlockAchievementHandler struct {
	deps Deps
}

// NewUnlockAchievementHandler creates a new UnlockAchievementHandler.
func NewUnlockAchievementHandler(deps Deps) *UnlockAchievementHandler {
	return &UnlockAchievementHandler{deps: deps.withDefaults()}
}

// Handle executes the command. Errors: NotFound, AlreadyUnlocked.
func (h *UnlockAchievementHandler) Handle(ctx context.Context, cmd UnlockAchievementCommand) (*UnlockAchievementResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	a, err := h.deps.Catalog.GetAchievement(ctx, cmd.AchievementID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrAchievementNotFound
		}
		return nil, shared.WrapError("unlock_achievement", "GetAchievement", shared.ErrStorage, "internal error", err)
	}

	result := &UnlockAchievementResult{Achievement: a}
	var change *progress.Change

	err = runInUserTx(ctx, h.deps, "unlock_achievement", cmd.UserID, func(ctx context.Context, tx progress.Tx) error {
		has, err := tx.HasAchievement(ctx, cmd.UserID, a.ID)
		if err != nil {
			return err
		}
		if has {
			return shared.ErrAchievementUnlocked
		}

		ua := &progress.UserAchievement{
			ID:            h.deps.NewID(),
			UserID:        cmd.UserID,
			AchievementID: a.ID,
			UnlockedAt:    h.deps.Clock.Now(),
		}
		if err := tx.CreateUserAchievement(ctx, ua); err != nil {
			return err
		}

		change, err = h.deps.Ledger.ApplyDelta(ctx, tx, cmd.UserID, a.XPReward, a.XPReward)
		if err != nil {
			return err
		}

		entry, err := h.deps.Recorder.Append(ctx, tx, activity.Record{
			UserID:        cmd.UserID,
			Type:          activity.TypeAchievement,
			Title:         fmt.Sprintf("Unlocked '%s'", a.Title),
			XPDelta:       a.XPReward,
			AppliedXP:     change.AppliedXP,
			AppliedPoints: change.AppliedPoints,
		})
		if err != nil {
			return err
		}

		result.UserAchievement = ua
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Stats = change.After
	result.LeveledUp = change.LeveledUp()

	h.deps.Logger.Info("achievement unlocked",
		logger.UserID(cmd.UserID),
		logger.EntityID("achievement", a.ID),
		logger.XPDelta(change.AppliedXP))

	at := result.UserAchievement.UnlockedAt
	events := []shared.Event{
		shared.NewAchievementUnlockedEvent(cmd.UserID, a.ID, a.Title, a.XPReward, at),
	}
	events = append(events, ledgerEvents(cmd.UserID, change, activity.TypeAchievement, at)...)
	publish(h.deps, cmd.CorrelationID, events...)

	return result, nil
}
