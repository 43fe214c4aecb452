package command

import (
	"context"
	"strings"

	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
)

// UpdateChallengeProgressCommand records partial progress on an open enrollment.
// Reaching 100 is only possible through CompleteChallengeCommand.
type UpdateChallengeProgressCommand struct {
	UserID          string
	UserChallengeID string
	Progress        int
}

// Validate validates the command.
func (c UpdateChallengeProgressCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return invalidInput("update_challenge_progress", "user_id is required")
	}
	if strings.TrimSpace(c.UserChallengeID) == "" {
		return invalidInput("update_challenge_progress", "user_challenge_id is required")
	}
	if c.Progress < 0 || c.Progress > progress.MaxOpenProgress {
		return invalidInput("update_challenge_progress", "progress must be between 0 and 99")
	}
	return nil
}

// UpdateChallengeProgressHandler handles UpdateChallengeProgressCommand.
type UpdateChallengeProgressHandler struct {
	deps Deps
}

// NewUpdateChallengeProgressHandler creates a new UpdateChallengeProgressHandler.
func NewUpdateChallengeProgressHandler(deps Deps) *UpdateChallengeProgressHandler {
	return &UpdateChallengeProgressHandler{deps: deps.withDefaults()}
}

// Handle executes the command.
func (h *UpdateChallengeProgressHandler) Handle(ctx context.Context, cmd UpdateChallengeProgressCommand) (*progress.UserChallenge, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var out *progress.UserChallenge
	err := runInUserTx(ctx, h.deps, "update_challenge_progress", cmd.UserID, func(ctx context.Context, tx progress.Tx) error {
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
		if err := uc.SetProgress(cmd.Progress); err != nil {
			return shared.WrapError("challenge", "SetProgress", shared.ErrInvalidInput, "invalid progress", err)
		}
		out = uc
		return tx.SaveUserChallenge(ctx, uc)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
