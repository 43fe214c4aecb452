// Package command contains write operations (CQRS - Commands).
// Every handler runs its reads and writes inside one per-user transaction,
// so a failed call leaves no trace.
package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/pkg/logger"
)

// Deps bundles the ports shared by all ledger commands.
type Deps struct {
	Repo      progress.Repository
	Catalog   catalog.Repository
	Ledger    *progress.Ledger
	Recorder  *activity.Recorder
	Publisher shared.EventPublisher
	Clock     shared.Clock
	NewID     func() string
	Logger    *logger.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = shared.SystemClock{}
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	if d.Publisher == nil {
		d.Publisher = shared.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Ledger == nil {
		d.Ledger = progress.NewLedger(progress.DefaultLedgerConfig(), d.Clock)
	}
	if d.Recorder == nil {
		d.Recorder = activity.NewRecorder(d.Repo, d.Clock, d.NewID, activity.DefaultPageSize)
	}
	return d
}

// runInUserTx executes fn in the user's transaction and normalises errors:
// domain rejections pass through untouched, anything else becomes ErrStorage.
func runInUserTx(ctx context.Context, d Deps, op, userID string, fn progress.TxFunc) error {
	start := time.Now()
	err := d.Repo.WithinUserTx(ctx, userID, fn)
	if err == nil {
		d.Logger.Debug("transaction committed",
			logger.Operation(op), logger.UserID(userID), logger.Latency(time.Since(start)))
		return nil
	}
	if isDomainRejection(err) {
		d.Logger.Debug("command rejected",
			logger.Operation(op), logger.UserID(userID), logger.Err(err))
		return err
	}
	d.Logger.Error("command failed",
		logger.Operation(op), logger.UserID(userID), logger.Err(err))
	if errors.Is(err, shared.ErrStorage) || errors.Is(err, shared.ErrOutcomeUnknown) {
		return err
	}
	return shared.WrapError(op, "Handle", shared.ErrStorage, "internal error", err)
}

func isDomainRejection(err error) bool {
	if errors.Is(err, shared.ErrStorage) || errors.Is(err, shared.ErrOutcomeUnknown) {
		return false
	}
	var de *shared.DomainError
	var funds *shared.InsufficientFundsError
	return errors.As(err, &de) || errors.As(err, &funds)
}

// publish sends events after commit. Failures are logged, never returned.
func publish(d Deps, correlationID string, events ...shared.Event) {
	for _, ev := range events {
		if err := d.Publisher.Publish(withCorrelation(ev, correlationID)); err != nil {
			d.Logger.Warn("event publish failed",
				logger.String("event_type", string(ev.EventType())), logger.Err(err))
		}
	}
}

// ledgerEvents derives the XP and level events of a committed change.
func ledgerEvents(userID string, ch *progress.Change, source activity.Type, at time.Time) []shared.Event {
	events := make([]shared.Event, 0, 2)
	if ch.AppliedXP > 0 {
		events = append(events, shared.NewXPGainedEvent(userID, ch.AppliedXP, ch.After.XP, source.String(), at))
	}
	if ch.LeveledUp() {
		events = append(events, shared.NewLevelUpEvent(userID, ch.Before.Level, ch.After.Level, at))
	}
	return events
}

func withCorrelation(ev shared.Event, id string) shared.Event {
	if id == "" {
		return ev
	}
	switch e := ev.(type) {
	case shared.XPGainedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
		return e
	case shared.LevelUpEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
		return e
	case shared.ChallengeStartedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
		return e
	case shared.ChallengeCompletedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
		return e
	case shared.RewardRedeemedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
		return e
	case shared.AnswerSubmittedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
		return e
	case shared.AchievementUnlockedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
		return e
	case shared.PenaltyAppliedEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
		return e
	case shared.UserRegisteredEvent:
		e.BaseEvent = e.BaseEvent.WithCorrelationID(id)
		return e
	}
	return ev
}

func invalidInput(op, message string) error {
	return shared.NewDomainError(op, "Validate", shared.ErrInvalidInput, message)
}
