package query

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Одна сводка для главного экрана: баланс, активные челленджи и последние
// достижения. Чтения независимы и выполняются параллельно.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRecentAchievements - сколько последних достижений показывать.
const DefaultRecentAchievements = 5

// GetDashboardQuery содержит параметры запроса.
type GetDashboardQuery struct {
	UserID string
}

// Dashboard - ответ запроса.
type Dashboard struct {
	Stats              *progress.UserStats         `json:"stats"`
	ActiveChallenges   []*progress.ChallengeView   `json:"activeChallenges"`
	RecentAchievements []*progress.AchievementView `json:"recentAchievements"`

	Name                 string `json:"name"`
	NextLevelXP          int    `json:"nextLevelXP"`
	LevelProgress        int    `json:"levelProgress"`
	ChallengesCompleted  int    `json:"challengesCompleted"`
	AchievementsUnlocked int    `json:"achievementsUnlocked"`
}

// GetDashboardHandler обрабатывает GetDashboardQuery.
type GetDashboardHandler struct {
	repo   progress.Repository
	users  user.Repository
	policy progress.LevelPolicy
	recent int
}

// NewGetDashboardHandler создаёт обработчик. recent <= 0 даёт значение по умолчанию.
func NewGetDashboardHandler(repo progress.Repository, users user.Repository, policy progress.LevelPolicy, recent int) *GetDashboardHandler {
	if recent <= 0 {
		recent = DefaultRecentAchievements
	}
	if policy == nil {
		policy = progress.NewLinearLevelPolicy(progress.DefaultXPPerLevel)
	}
	return &GetDashboardHandler{repo: repo, users: users, policy: policy, recent: recent}
}

// Handle выполняет запрос. NotFound, если у пользователя нет статистики.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*Dashboard, error) {
	if strings.TrimSpace(q.UserID) == "" {
		return nil, shared.NewDomainError("dashboard", "Validate", shared.ErrInvalidInput, "user_id is required")
	}

	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := h.repo.GetStats(gctx, q.UserID)
		if err != nil {
			return err
		}
		d.Stats = stats
		return nil
	})
	g.Go(func() error {
		active, err := h.repo.ListUserChallenges(gctx, q.UserID, progress.ChallengesActive)
		if err != nil {
			return err
		}
		d.ActiveChallenges = active
		return nil
	})
	g.Go(func() error {
		recent, err := h.repo.ListUserAchievements(gctx, q.UserID, h.recent)
		if err != nil {
			return err
		}
		d.RecentAchievements = recent
		return nil
	})
	g.Go(func() error {
		n, err := h.repo.CountUserChallenges(gctx, q.UserID, progress.ChallengesCompleted)
		if err != nil {
			return err
		}
		d.ChallengesCompleted = n
		return nil
	})
	g.Go(func() error {
		n, err := h.repo.CountUserAchievements(gctx, q.UserID)
		if err != nil {
			return err
		}
		d.AchievementsUnlocked = n
		return nil
	})
	if h.users != nil {
		g.Go(func() error {
			u, err := h.users.GetByID(gctx, q.UserID)
			if err != nil {
				// статистика важнее имени: отсутствие пользователя не ошибка
				if shared.IsNotFound(err) {
					return nil
				}
				return err
			}
			d.Name = u.DisplayName
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, storageErr("dashboard", err)
	}

	d.NextLevelXP = h.policy.NextLevelXP(d.Stats.Level)
	d.LevelProgress = progress.Progress(h.policy, d.Stats.XP)
	return d, nil
}
