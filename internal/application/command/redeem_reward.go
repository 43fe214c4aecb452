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

// ══════════════════════════════════════════════════════════════════════════════
// REDEEM REWARD COMMAND
// Debits pointsRequired and records the purchase. The balance check and the
// debit happen under the same user lock, so two concurrent redemptions can
// never both pass a check that only one of them can afford.
// ══════════════════════════════════════════════════════════════════════════════

// RedeemRewardCommand contains the data to redeem a reward.
type RedeemRewardCommand struct {
	UserID        string
	RewardID      string
	CorrelationID string
}

// Validate validates the command.
func (c RedeemRewardCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return invalidInput("redeem_reward", "user_id is required")
	}
	if strings.TrimSpace(c.RewardID) == "" {
		return invalidInput("redeem_reward", "reward_id is required")
	}
	return nil
}

// RedeemRewardResult contains the outcome of a redemption.
type RedeemRewardResult struct {
	UserReward *progress.UserReward
	Reward     *catalog.Reward
	Stats      *progress.UserStats
	Entry      *activity.Entry
}

// RedeemRewardHandler handles RedeemRewardCommand.
type RedeemRewardHandler struct {
	deps Deps
}

// NewRedeemRewardHandler creates a new RedeemRewardHandler.
func NewRedeemRewardHandler(deps Deps) *RedeemRewardHandler {
	return &RedeemRewardHandler{deps: deps.withDefaults()}
}

// Handle executes the command. Errors: NotFound (reward missing or inactive,
// stats missing), *shared.InsufficientFundsError carrying the shortfall.
func (h *RedeemRewardHandler) Handle(ctx context.Context, cmd RedeemRewardCommand) (*RedeemRewardResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	reward, err := h.deps.Catalog.GetReward(ctx, cmd.RewardID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrRewardNotFound
		}
		return nil, shared.WrapError("redeem_reward", "GetReward", shared.ErrStorage, "internal error", err)
	}
	if !reward.IsActive {
		return nil, shared.ErrRewardInactive
	}

	result := &RedeemRewardResult{Reward: reward}
	cost := reward.PointsRequired

	err = runInUserTx(ctx, h.deps, "redeem_reward", cmd.UserID, func(ctx context.Context, tx progress.Tx) error {
		stats, err := tx.GetStats(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		if !stats.CanAfford(cost) {
			return shared.NewInsufficientFunds(cost, stats.Points)
		}

		now := h.deps.Clock.Now()
		ur := &progress.UserReward{
			ID:         h.deps.NewID(),
			UserID:     cmd.UserID,
			RewardID:   reward.ID,
			RedeemedAt: now,
		}
		if err := tx.CreateUserReward(ctx, ur); err != nil {
			return err
		}

		change, err := h.deps.Ledger.ApplyDelta(ctx, tx, cmd.UserID, 0, -cost)
		if err != nil {
			return err
		}

		entry, err := h.deps.Recorder.Append(ctx, tx, activity.Record{
			UserID:        cmd.UserID,
			Type:          activity.TypeReward,
			Title:         fmt.Sprintf("Redeemed '%s'", reward.Title),
			XPDelta:       -cost,
			AppliedXP:     change.AppliedXP,
			AppliedPoints: change.AppliedPoints,
		})
		if err != nil {
			return err
		}

		result.UserReward = ur
		result.Stats = change.After
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("reward redeemed",
		logger.UserID(cmd.UserID),
		logger.EntityID("reward", reward.ID),
		logger.PointsDelta(-cost))
	publish(h.deps, cmd.CorrelationID, shared.NewRewardRedeemedEvent(
		cmd.UserID, result.UserReward.ID, reward.ID, cost, result.Stats.Points, result.UserReward.RedeemedAt))

	return result, nil
}
