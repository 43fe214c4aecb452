// Package memory implements every repository port in process memory.
// It backs tests and single-instance deployments; transactions stage their
// writes and apply them all at once on commit.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/domain/user"
)

// Store is an in-memory implementation of progress.Repository,
// catalog.Repository, catalog.Writer and user.Repository.
type Store struct {
	mu sync.RWMutex

	users     map[string]*user.User
	usernames map[string]string // lower(username) -> user ID
	stats     map[string]*progress.UserStats

	challenges   map[string]*catalog.Challenge
	rewards      map[string]*catalog.Reward
	achievements map[string]*catalog.Achievement
	questions    map[string]*catalog.Question

	userChallenges   map[string]*progress.UserChallenge
	userRewards      map[string]*progress.UserReward
	userAchievements map[string]*progress.UserAchievement
	userAnswers      map[string]*progress.UserAnswer

	activity map[string][]*activity.Entry // by user, in insertion order
	seq      int64

	locks *userLocks
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:            make(map[string]*user.User),
		usernames:        make(map[string]string),
		stats:            make(map[string]*progress.UserStats),
		challenges:       make(map[string]*catalog.Challenge),
		rewards:          make(map[string]*catalog.Reward),
		achievements:     make(map[string]*catalog.Achievement),
		questions:        make(map[string]*catalog.Question),
		userChallenges:   make(map[string]*progress.UserChallenge),
		userRewards:      make(map[string]*progress.UserReward),
		userAchievements: make(map[string]*progress.UserAchievement),
		userAnswers:      make(map[string]*progress.UserAnswer),
		activity:         make(map[string][]*activity.Entry),
		locks:            newUserLocks(),
	}
}

// Ping always succeeds; it lets the store stand in for a health-checked database.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Transactions
// ─────────────────────────────────────────────────────────────────────────────

// WithinUserTx implements progress.Repository.
func (s *Store) WithinUserTx(ctx context.Context, userID string, fn progress.TxFunc) error {
	unlock, err := s.locks.acquire(ctx, userID)
	if err != nil {
		return shared.WrapError("memory", "WithinUserTx", shared.ErrStorage, "lock wait aborted", err)
	}
	defer unlock()

	tx := newTx(s)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

// ─────────────────────────────────────────────────────────────────────────────
// Users
// ─────────────────────────────────────────────────────────────────────────────

// GetByID implements user.Repository.
func (s *Store) GetByID(ctx context.Context, id string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// GetByUsername implements user.Repository.
func (s *Store) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[strings.ToLower(username)]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	c := *s.users[id]
	return &c, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress reads
// ─────────────────────────────────────────────────────────────────────────────

// GetStats implements progress.Repository.
func (s *Store) GetStats(ctx context.Context, userID string) (*progress.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stats[userID]
	if !ok {
		return nil, shared.ErrStatsNotFound
	}
	return st.Clone(), nil
}

func matchesFilter(uc *progress.UserChallenge, f progress.ChallengeFilter) bool {
	switch f {
	case progress.ChallengesActive:
		return !uc.Completed
	case progress.ChallengesCompleted:
		return uc.Completed
	default:
		return true
	}
}

// ListUserChallenges implements progress.Repository.
func (s *Store) ListUserChallenges(ctx context.Context, userID string, filter progress.ChallengeFilter) ([]*progress.ChallengeView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*progress.ChallengeView, 0)
	for _, uc := range s.userChallenges {
		if uc.UserID != userID || !matchesFilter(uc, filter) {
			continue
		}
		ch, ok := s.challenges[uc.ChallengeID]
		if !ok {
			continue
		}
		chCopy := *ch
		out = append(out, &progress.ChallengeView{UserChallenge: cloneUserChallenge(uc), Challenge: &chCopy})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// CountUserChallenges implements progress.Repository.
func (s *Store) CountUserChallenges(ctx context.Context, userID string, filter progress.ChallengeFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, uc := range s.userChallenges {
		if uc.UserID == userID && matchesFilter(uc, filter) {
			n++
		}
	}
	return n, nil
}

// ListUserRewards implements progress.Repository.
func (s *Store) ListUserRewards(ctx context.Context, userID string) ([]*progress.RewardView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*progress.RewardView, 0)
	for _, ur := range s.userRewards {
		if ur.UserID != userID {
			continue
		}
		rw, ok := s.rewards[ur.RewardID]
		if !ok {
			continue
		}
		rwCopy := *rw
		out = append(out, &progress.RewardView{UserReward: *ur, Reward: &rwCopy})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RedeemedAt.After(out[j].RedeemedAt)
	})
	return out, nil
}

// ListUserAchievements implements progress.Repository.
func (s *Store) ListUserAchievements(ctx context.Context, userID string, limit int) ([]*progress.AchievementView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*progress.AchievementView, 0)
	for _, ua := range s.userAchievements {
		if ua.UserID != userID {
			continue
		}
		a, ok := s.achievements[ua.AchievementID]
		if !ok {
			continue
		}
		aCopy := *a
		out = append(out, &progress.AchievementView{UserAchievement: *ua, Achievement: &aCopy})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UnlockedAt.After(out[j].UnlockedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountUserAchievements implements progress.Repository.
func (s *Store) CountUserAchievements(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, ua := range s.userAchievements {
		if ua.UserID == userID {
			n++
		}
	}
	return n, nil
}

// ListActivity implements activity.Reader.
func (s *Store) ListActivity(ctx context.Context, userID string, cursor activity.Cursor, pageSize int) ([]*activity.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, shared.WrapError("memory", "ListActivity", shared.ErrStorage, "context done", err)
	}
	s.mu.RLock()
	entries := make([]*activity.Entry, 0, len(s.activity[userID]))
	for _, e := range s.activity[userID] {
		if cursor.Admits(e) {
			c := *e
			entries = append(entries, &c)
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[j].Before(entries[i])
	})
	if pageSize > 0 && len(entries) > pageSize {
		entries = entries[:pageSize]
	}
	return entries, nil
}

func cloneUserChallenge(uc *progress.UserChallenge) progress.UserChallenge {
	c := *uc
	if uc.CompletedAt != nil {
		t := *uc.CompletedAt
		c.CompletedAt = &t
	}
	return c
}
