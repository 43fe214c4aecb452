package command

import (
	"context"
	"strings"

	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// START CHALLENGE COMMAND
// Enrolls a user in an active challenge. No balance change, no activity entry.
// ══════════════════════════════════════════════════════════════════════════════

// StartChallengeCommand contains the data to start a challenge.
type StartChallengeCommand struct {
	UserID        string
	ChallengeID   string
	CorrelationID string
}

// Validate validates the command.
func (c StartChallengeCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return invalidInput("start_challenge", "user_id is required")
	}
	if strings.TrimSpace(c.ChallengeID) == "" {
		return invalidInput("start_challenge", "challenge_id is required")
	}
	return nil
}

// StartChallengeResult contains the new enrollment.
type StartChallengeResult struct {
	UserChallenge *progress.UserChallenge
	Challenge     *catalog.Challenge
}

// StartChallengeHandler handles StartChallengeCommand.
type StartChallengeHandler struct {
	deps Deps
}

// NewStartChallengeHandler creates a new StartChallengeHandler.
func NewStartChallengeHandler(deps Deps) *StartChallengeHandler {
	return &StartChallengeHandler{deps: deps.withDefaults()}
}

// Handle executes the command. Errors: NotFound when the user is unknown or
// the challenge is missing or inactive, AlreadyStarted when an open
// enrollment exists.
func (h *StartChallengeHandler) Handle(ctx context.Context, cmd StartChallengeCommand) (*StartChallengeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ch, err := h.deps.Catalog.GetChallenge(ctx, cmd.ChallengeID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrChallengeNotFound
		}
		return nil, shared.WrapError("start_challenge", "GetChallenge", shared.ErrStorage, "internal error", err)
	}
	if !ch.IsActive {
		return nil, shared.ErrChallengeInactive
	}

	var uc *progress.UserChallenge
	err = runInUserTx(ctx, h.deps, "start_challenge", cmd.UserID, func(ctx context.Context, tx progress.Tx) error {
		open, err := tx.HasOpenChallenge(ctx, cmd.UserID, cmd.ChallengeID)
		if err != nil {
			return err
		}
		if open {
			return shared.ErrChallengeStarted
		}

		uc = &progress.UserChallenge{
			ID:          h.deps.NewID(),
			UserID:      cmd.UserID,
			ChallengeID: cmd.ChallengeID,
			Progress:    0,
			StartedAt:   h.deps.Clock.Now(),
		}
		return tx.CreateUserChallenge(ctx, uc)
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("challenge started",
		logger.UserID(cmd.UserID), logger.EntityID("challenge", ch.ID), logger.EntityID("user_challenge", uc.ID))
	publish(h.deps, cmd.CorrelationID,
		shared.NewChallengeStartedEvent(cmd.UserID, uc.ID, ch.ID, uc.StartedAt))

	return &StartChallengeResult{UserChallenge: uc, Challenge: ch}, nil
}
