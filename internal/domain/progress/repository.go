package progress

import (
	"context"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Реализации находятся в infrastructure/persistence (memory и postgres).
// ══════════════════════════════════════════════════════════════════════════════

// StatsStore - доступ к UserStats, которым пользуется Ledger.
type StatsStore interface {
	// GetStats возвращает статистику; shared.ErrStatsNotFound, если её нет.
	GetStats(ctx context.Context, userID string) (*UserStats, error)

	// CreateStats создаёт статистику нового пользователя.
	CreateStats(ctx context.Context, stats *UserStats) error

	// SaveStats перезаписывает статистику.
	SaveStats(ctx context.Context, stats *UserStats) error
}

// Tx - единица работы над данными одного пользователя.
// Все записи внутри Tx фиксируются вместе или не фиксируются вовсе.
type Tx interface {
	StatsStore
	activity.Appender

	// CreateUser сохраняет пользователя; shared.ErrUserExists при занятом логине.
	CreateUser(ctx context.Context, u *user.User) error

	// GetUserChallenge возвращает участие по ID; shared.ErrUserChallengeNotFound, если нет.
	GetUserChallenge(ctx context.Context, id string) (*UserChallenge, error)

	// HasOpenChallenge проверяет, есть ли у пользователя незавершённое участие в челлендже.
	HasOpenChallenge(ctx context.Context, userID, challengeID string) (bool, error)

	CreateUserChallenge(ctx context.Context, uc *UserChallenge) error
	SaveUserChallenge(ctx context.Context, uc *UserChallenge) error

	CreateUserReward(ctx context.Context, ur *UserReward) error

	// HasAchievement проверяет, получено ли уже достижение.
	HasAchievement(ctx context.Context, userID, achievementID string) (bool, error)
	CreateUserAchievement(ctx context.Context, ua *UserAchievement) error

	CreateUserAnswer(ctx context.Context, ua *UserAnswer) error
}

// TxFunc - тело транзакции.
type TxFunc func(ctx context.Context, tx Tx) error

// ChallengeFilter выбирает подмножество участий.
type ChallengeFilter int

const (
	ChallengesAll ChallengeFilter = iota
	ChallengesActive
	ChallengesCompleted
)

// Repository - чтение прогресса и запуск транзакций.
type Repository interface {
	activity.Reader

	// WithinUserTx выполняет fn с эксклюзивным доступом к данным userID.
	// Для разных пользователей вызовы идут параллельно. Если fn вернула ошибку,
	// ни одна запись не фиксируется.
	WithinUserTx(ctx context.Context, userID string, fn TxFunc) error

	// GetStats читает статистику вне транзакции.
	GetStats(ctx context.Context, userID string) (*UserStats, error)

	// ListUserChallenges возвращает участия вместе с челленджами, новые первыми.
	ListUserChallenges(ctx context.Context, userID string, filter ChallengeFilter) ([]*ChallengeView, error)

	// CountUserChallenges считает участия по фильтру.
	CountUserChallenges(ctx context.Context, userID string, filter ChallengeFilter) (int, error)

	// ListUserRewards возвращает покупки вместе с наградами, новые первыми.
	ListUserRewards(ctx context.Context, userID string) ([]*RewardView, error)

	// ListUserAchievements возвращает достижения по убыванию UnlockedAt; limit <= 0 - все.
	ListUserAchievements(ctx context.Context, userID string, limit int) ([]*AchievementView, error)

	// CountUserAchievements считает полученные достижения.
	CountUserAchievements(ctx context.Context, userID string) (int, error)
}
