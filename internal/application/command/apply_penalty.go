package command

import (
	"context"
	"strings"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/pkg/logger"
)

// PenaltyTitle is the activity title of every penalty entry.
const PenaltyTitle = "Penalty applied"

// ApplyPenaltyCommand deducts the same amount from XP and points.
// Issued by operators, not by the penalised user.
type ApplyPenaltyCommand struct {
	UserID        string
	Points        int
	Reason        string
	CorrelationID string
}

// Validate validates the command.
func (c ApplyPenaltyCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return invalidInput("apply_penalty", "user_id is required")
	}
	if c.Points <= 0 {
		return invalidInput("apply_penalty", "points must be positive")
	}
	if strings.TrimSpace(c.Reason) == "" {
		return invalidInput("apply_penalty", "reason is required")
	}
	return nil
}

// ApplyPenaltyResult holds the activity entry and the stats after clamping.
type ApplyPenaltyResult struct {
	Entry *activity.Entry
	Stats *progress.UserStats
}

// ApplyPenaltyHandler handles ApplyPenaltyCommand.
type ApplyPenaltyHandler struct {
	deps Deps
}

// NewApplyPenaltyHandler creates a new ApplyPenaltyHandler.
func NewApplyPenaltyHandler(deps Deps) *ApplyPenaltyHandler {
	return &ApplyPenaltyHandler{deps: deps.withDefaults()}
}

// Handle executes the command. Balances clamp at zero; the entry's XPDelta
// is the requested -Points while AppliedXP/AppliedPoints show what was
// actually removed.
func (h *ApplyPenaltyHandler) Handle(ctx context.Context, cmd ApplyPenaltyCommand) (*ApplyPenaltyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(cmd.Reason)

	result := &ApplyPenaltyResult{}
	err := runInUserTx(ctx, h.deps, "apply_penalty", cmd.UserID, func(ctx context.Context, tx progress.Tx) error {
		change, err := h.deps.Ledger.ApplyDelta(ctx, tx, cmd.UserID, -cmd.Points, -cmd.Points)
		if err != nil {
			return err
		}
		entry, err := h.deps.Recorder.Append(ctx, tx, activity.Record{
			UserID:        cmd.UserID,
			Type:          activity.TypePenalty,
			Title:         PenaltyTitle,
			XPDelta:       -cmd.Points,
			AppliedXP:     change.AppliedXP,
			AppliedPoints: change.AppliedPoints,
			Reason:        reason,
		})
		if err != nil {
			return err
		}
		result.Entry = entry
		result.Stats = change.After
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("penalty applied",
		logger.UserID(cmd.UserID),
		logger.Int("requested", cmd.Points),
		logger.PointsDelta(result.Entry.AppliedPoints),
		logger.String("reason", reason))
	publish(h.deps, cmd.CorrelationID, shared.NewPenaltyAppliedEvent(
		cmd.UserID, cmd.Points, -result.Entry.AppliedPoints, reason, result.Entry.CreatedAt))

	return result, nil
}
