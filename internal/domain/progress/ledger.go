package progress

import (
	"context"
	"time"

	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER
// Единственный путь изменения UserStats. Ledger не берёт блокировок сам:
// вызывающий обязан работать внутри Repository.WithinUserTx.
// ══════════════════════════════════════════════════════════════════════════════

// Change - результат применения дельты.
type Change struct {
	Before *UserStats
	After  *UserStats

	// AppliedXP и AppliedPoints - фактическое изменение после обрезки по нулю.
	AppliedXP     int
	AppliedPoints int
}

// LeveledUp сообщает, вырос ли уровень.
func (c *Change) LeveledUp() bool {
	return c.After.Level > c.Before.Level
}

// LedgerConfig настраивает Ledger.
type LedgerConfig struct {
	Policy LevelPolicy

	// StreakLocation - часовой пояс, в котором считаются дни серии.
	StreakLocation *time.Location

	// TrackStreak включает обновление серии при начислениях.
	TrackStreak bool
}

// DefaultLedgerConfig возвращает конфигурацию по умолчанию.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		Policy:         NewLinearLevelPolicy(DefaultXPPerLevel),
		StreakLocation: time.UTC,
		TrackStreak:    true,
	}
}

// Ledger применяет изменения XP и очков.
type Ledger struct {
	policy      LevelPolicy
	loc         *time.Location
	trackStreak bool
	clock       shared.Clock
}

// NewLedger создаёт Ledger.
func NewLedger(cfg LedgerConfig, clock shared.Clock) *Ledger {
	if cfg.Policy == nil {
		cfg.Policy = NewLinearLevelPolicy(DefaultXPPerLevel)
	}
	if cfg.StreakLocation == nil {
		cfg.StreakLocation = time.UTC
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Ledger{
		policy:      cfg.Policy,
		loc:         cfg.StreakLocation,
		trackStreak: cfg.TrackStreak,
		clock:       clock,
	}
}

// Policy возвращает политику уровней.
func (l *Ledger) Policy() LevelPolicy {
	return l.policy
}

// Provision создаёт статистику по умолчанию для нового пользователя.
func (l *Ledger) Provision(ctx context.Context, store StatsStore, userID string) (*UserStats, error) {
	stats := NewUserStats(userID)
	stats.Level = l.policy.Level(0)
	if err := store.CreateStats(ctx, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// ApplyDelta прибавляет дельты к XP и очкам, обрезая результат по нулю,
// и пересчитывает уровень. Возвращает shared.ErrStatsNotFound, если
// статистики нет. Положительная дельта XP продлевает серию.
func (l *Ledger) ApplyDelta(ctx context.Context, store StatsStore, userID string, xpDelta, pointsDelta int) (*Change, error) {
	current, err := store.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	before := current.Clone()
	next := current.Clone()
	now := l.clock.Now()

	next.XP = clampAdd(next.XP, xpDelta)
	next.Points = clampAdd(next.Points, pointsDelta)
	next.Level = l.policy.Level(next.XP)

	if l.trackStreak && xpDelta > 0 {
		next.Streak = l.nextStreak(before, now)
	}
	next.LastActivityAt = &now

	if err := store.SaveStats(ctx, next); err != nil {
		return nil, err
	}

	return &Change{
		Before:        before,
		After:         next,
		AppliedXP:     next.XP - before.XP,
		AppliedPoints: next.Points - before.Points,
	}, nil
}

// nextStreak: тот же день - без изменений, следующий день - +1, пропуск - заново с 1.
func (l *Ledger) nextStreak(s *UserStats, now time.Time) int {
	if s.LastActivityAt == nil || s.Streak == 0 {
		return 1
	}
	last := *s.LastActivityAt
	switch {
	case timeutil.IsSameDay(last, now, l.loc):
		return s.Streak
	case timeutil.IsConsecutiveDay(last, now, l.loc):
		return s.Streak + 1
	default:
		return 1
	}
}

func clampAdd(v, delta int) int {
	v += delta
	if v < 0 {
		return 0
	}
	return v
}
