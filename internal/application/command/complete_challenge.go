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
// COMPLETE CHALLENGE COMMAND
// Marks an enrollment completed and grants the challenge's XP reward as both
// XP and points. A given enrollment pays out at most once.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteChallengeCommand contains the data to complete a challenge.
type CompleteChallengeCommand struct {
	UserID          string
	UserChallengeID string
	CorrelationID   string
}

// Validate validates the command.
func (c CompleteChallengeCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return invalidInput("complete_challenge", "user_id is required")
	}
	if strings.TrimSpace(c.UserChallengeID) == "" {
		return invalidInput("complete_challenge", "user_challenge_id is required")
	}
	return nil
}

// CompleteChallengeResult contains the outcome of a completion.
type CompleteChallengeResult struct {
	UserChallenge *progress.UserChallenge
	Challenge     *catalog.Challenge
	Stats         *progress.UserStats
	Entry         *activity.Entry
	XPEarned      int
	LeveledUp     bool
}

// CompleteChallengeHandler handles CompleteChallengeCommand.
type CompleteChallengeHandler struct {
	deps Deps
}

// NewCompleteChallengeHandler creates a new CompleteChallengeHandler.
func NewCompleteChallengeHandler(deps Deps) *CompleteChallengeHandler {
	return &CompleteChallengeHandler{deps: deps.withDefaults()}
}

// Handle executes the command. Errors: NotFound (enrollment, challenge or
// stats missing), Forbidden (enrollment owned by another user),
// AlreadyCompleted.
func (h *CompleteChallengeHandler) Handle(ctx context.Context, cmd CompleteChallengeCommand) (*CompleteChallengeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	result := &CompleteChallengeResult{}
	var change *progress.Change

	err := runInUserTx(ctx, h.deps, "complete_challenge", cmd.UserID, func(ctx context.Context, tx progress.Tx) error {
		uc, err := tx.GetUserChallenge(ctx, cmd.UserChallengeID)
		if err != nil {
			return err
		}
		if uc.UserID != cmd.UserID {
			return shared.ErrChallengeNotOwned
		}
		if uc.Completed {
			return shared.ErrChallengeCompleted
		}

		ch, err := h.deps.Catalog.GetChallenge(ctx, uc.ChallengeID)
		if err != nil {
			return err
		}

		now := h.deps.Clock.Now()
		uc.Complete(now)
		if err := tx.SaveUserChallenge(ctx, uc); err != nil {
			return err
		}

		change, err = h.deps.Ledger.ApplyDelta(ctx, tx, cmd.UserID, ch.XPReward, ch.XPReward)
		if err != nil {
			return err
		}

		entry, err := h.deps.Recorder.Append(ctx, tx, activity.Record{
			UserID:        cmd.UserID,
			Type:          activity.TypeChallenge,
			Title:         fmt.Sprintf("Completed '%s'", ch.Title),
			XPDelta:       ch.XPReward,
			AppliedXP:     change.AppliedXP,
			AppliedPoints: change.AppliedPoints,
		})
		if err != nil {
			return err
		}

		result.UserChallenge = uc
		result.Challenge = ch
		result.Entry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Stats = change.After
	result.XPEarned = result.Challenge.XPReward
	result.LeveledUp = change.LeveledUp()

	h.deps.Logger.Info("challenge completed",
		logger.UserID(cmd.UserID),
		logger.EntityID("user_challenge", cmd.UserChallengeID),
		logger.XPDelta(change.AppliedXP),
		logger.PointsDelta(change.AppliedPoints))

	at := result.UserChallenge.CompletedAt
	events := []shared.Event{
		shared.NewChallengeCompletedEvent(cmd.UserID, cmd.UserChallengeID, result.Challenge.ID, result.XPEarned, *at),
	}
	events = append(events, ledgerEvents(cmd.UserID, change, activity.TypeChallenge, *at)...)
	publish(h.deps, cmd.CorrelationID, events...)

	return result, nil
}
