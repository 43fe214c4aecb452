package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/pkg/logger"
)

// SubmitAnswerCommand records a quiz attempt. Correctness is decided here
// against the answer key, never taken from the caller.
type SubmitAnswerCommand struct {
	UserID         string
	QuestionID     string
	SelectedAnswer int
	CorrelationID  string
}

// Validate validates the command.
func (c SubmitAnswerCommand) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return invalidInput("submit_answer", "user_id is required")
	}
	if strings.TrimSpace(c.QuestionID) == "" {
		return invalidInput("submit_answer", "question_id is required")
	}
	if c.SelectedAnswer < 0 {
		return invalidInput("submit_answer", "selected_answer must be non-negative")
	}
	return nil
}

// SubmitAnswerResult contains the recorded answer. Entry and Stats are nil
// for wrong answers, which change no balance.
type SubmitAnswerResult struct {
	Answer   *progress.UserAnswer
	Stats    *progress.UserStats
	Entry    *activity.Entry
	XPEarned int
}

// SubmitAnswerHandler handles SubmitAnswerCommand.
type SubmitAnswerHandler struct {
	deps Deps
}

// NewSubmitAnswerHandler creates a new SubmitAnswerHandler.
func NewSubmitAnswerHandler(deps Deps) *SubmitAnswerHandler {
	return &SubmitAnswerHandler{deps: deps.withDefaults()}
}

// Handle executes the command. Every attempt is stored; only correct ones
// grant the question's XP reward (as XP and points) and log an entry.
func (h *SubmitAnswerHandler) Handle(ctx context.Context, cmd SubmitAnswerCommand) (*SubmitAnswerResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	q, err := h.deps.Catalog.GetQuestion(ctx, cmd.QuestionID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrQuestionNotFound
		}
		return nil, shared.WrapError("submit_answer", "GetQuestion", shared.ErrStorage, "internal error", err)
	}
	if cmd.SelectedAnswer >= len(q.Options) {
		return nil, invalidInput("submit_answer", "selected_answer is out of range")
	}

	result := &SubmitAnswerResult{}
	var change *progress.Change

	err = runInUserTx(ctx, h.deps, "submit_answer", cmd.UserID, func(ctx context.Context, tx progress.Tx) error {
		answer := &progress.UserAnswer{
			ID:             h.deps.NewID(),
			UserID:         cmd.UserID,
			QuestionID:     q.ID,
			SelectedAnswer: cmd.SelectedAnswer,
			IsCorrect:      q.IsCorrect(cmd.SelectedAnswer),
			AnsweredAt:     h.deps.Clock.Now(),
		}
		if err := tx.CreateUserAnswer(ctx, answer); err != nil {
			return err
		}
		result.Answer = answer

		if !answer.IsCorrect {
			return nil
		}

		var err error
		change, err = h.deps.Ledger.ApplyDelta(ctx, tx, cmd.UserID, q.XPReward, q.XPReward)
		if err != nil {
			return err
		}
		entry, err := h.deps.Recorder.Append(ctx, tx, activity.Record{
			UserID:        cmd.UserID,
			Type:          activity.TypeQuestion,
			Title:         fmt.Sprintf("Answered correctly in %s", q.Subject),
			XPDelta:       q.XPReward,
			AppliedXP:     change.AppliedXP,
			AppliedPoints: change.AppliedPoints,
		})
		if err != nil {
			return err
		}
		result.Entry = entry
		result.Stats = change.After
		result.XPEarned = q.XPReward
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.deps.Logger.Info("answer submitted",
		logger.UserID(cmd.UserID),
		logger.EntityID("question", q.ID),
		logger.Bool("correct", result.Answer.IsCorrect))

	at := result.Answer.AnsweredAt
	events := []shared.Event{
		shared.NewAnswerSubmittedEvent(cmd.UserID, q.ID, result.Answer.IsCorrect, result.XPEarned, at),
	}
	if change != nil {
		events = append(events, ledgerEvents(cmd.UserID, change, activity.TypeQuestion, at)...)
	}
	publish(h.deps, cmd.CorrelationID, events...)

	return result, nil
}
