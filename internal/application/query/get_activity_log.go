package query

import (
	"context"
	"strings"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/shared"
)

// MaxActivityLimit caps a single request. Older entries past the cap are not
// reachable through this query.
const MaxActivityLimit = 500

// GetActivityLogQuery asks for a user's newest entries. A Limit <= 0 or
// above MaxActivityLimit is treated as MaxActivityLimit.
type GetActivityLogQuery struct {
	UserID string
	Limit  int
}

// GetActivityLogHandler handles GetActivityLogQuery.
type GetActivityLogHandler struct {
	recorder *activity.Recorder
}

// NewGetActivityLogHandler creates a new GetActivityLogHandler.
func NewGetActivityLogHandler(recorder *activity.Recorder) *GetActivityLogHandler {
	return &GetActivityLogHandler{recorder: recorder}
}

// Handle executes the query.
func (h *GetActivityLogHandler) Handle(ctx context.Context, q GetActivityLogQuery) ([]*activity.Entry, error) {
	if strings.TrimSpace(q.UserID) == "" {
		return nil, shared.NewDomainError("activity", "Validate", shared.ErrInvalidInput, "user_id is required")
	}
	limit := q.Limit
	if limit <= 0 || limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	entries, err := activity.Collect(h.recorder.Query(ctx, q.UserID, limit))
	if err != nil {
		return nil, storageErr("activity", err)
	}
	return entries, nil
}
