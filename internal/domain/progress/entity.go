package progress

import (
	"errors"
	"time"

	"github.com/learnquest/ledger/internal/domain/catalog"
)

// Ошибки прогресса по челленджу.
var (
	ErrInvalidProgress = errors.New("progress: challenge progress must be between 0 and 99")
)

// MaxOpenProgress - максимальный прогресс незавершённого челленджа.
// 100 означает завершение и выставляется только CompleteChallenge.
const MaxOpenProgress = 99

// ══════════════════════════════════════════════════════════════════════════════
// JOIN RECORDS
// ══════════════════════════════════════════════════════════════════════════════

// UserChallenge - участие пользователя в челлендже.
type UserChallenge struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	ChallengeID string     `json:"challengeId"`
	Progress    int        `json:"progress"`
	Completed   bool       `json:"completed"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// Complete переводит участие в завершённое состояние. Вызывать один раз.
func (uc *UserChallenge) Complete(at time.Time) {
	uc.Completed = true
	uc.Progress = 100
	uc.CompletedAt = &at
}

// SetProgress обновляет прогресс незавершённого участия.
func (uc *UserChallenge) SetProgress(p int) error {
	if p < 0 || p > MaxOpenProgress {
		return ErrInvalidProgress
	}
	uc.Progress = p
	return nil
}

// UserReward - факт покупки награды.
type UserReward struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	RewardID   string    `json:"rewardId"`
	RedeemedAt time.Time `json:"redeemedAt"`
}

// UserAchievement - полученное достижение; не больше одного на пару (пользователь, достижение).
type UserAchievement struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	AchievementID string    `json:"achievementId"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}

// UserAnswer - ответ на вопрос; сохраняется каждая попытка.
type UserAnswer struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	QuestionID     string    `json:"questionId"`
	SelectedAnswer int       `json:"selectedAnswer"`
	IsCorrect      bool      `json:"isCorrect"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEWS (join record + catalog entry)
// ══════════════════════════════════════════════════════════════════════════════

// ChallengeView - участие вместе с описанием челленджа.
type ChallengeView struct {
	UserChallenge
	Challenge *catalog.Challenge `json:"challenge"`
}

// RewardView - покупка вместе с описанием награды.
type RewardView struct {
	UserReward
	Reward *catalog.Reward `json:"reward"`
}

// AchievementView - достижение пользователя вместе с описанием.
type AchievementView struct {
	UserAchievement
	Achievement *catalog.Achievement `json:"achievement"`
}
