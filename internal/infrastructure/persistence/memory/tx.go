package memory

import (
	"context"
	"strings"

	"github.com/learnquest/ledger/internal/domain/activity"
	"github.com/learnquest/ledger/internal/domain/progress"
	"github.com/learnquest/ledger/internal/domain/shared"
	"github.com/learnquest/ledger/internal/domain/user"
)

// tx stages writes until commit. Reads see staged rows first.
type tx struct {
	s *Store

	users            []*user.User
	stats            map[string]*progress.UserStats
	newStats         map[string]bool
	userChallenges   map[string]*progress.UserChallenge
	userRewards      []*progress.UserReward
	userAchievements []*progress.UserAchievement
	userAnswers      []*progress.UserAnswer
	entries          []*activity.Entry
}

func newTx(s *Store) *tx {
	return &tx{
		s:              s,
		stats:          make(map[string]*progress.UserStats),
		newStats:       make(map[string]bool),
		userChallenges: make(map[string]*progress.UserChallenge),
	}
}

var _ progress.Tx = (*tx)(nil)

// commit applies every staged write under the store lock, or none of them.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range t.users {
		if _, taken := s.users[u.ID]; taken {
			return shared.ErrUserExists
		}
		if u.Username != "" {
			if _, taken := s.usernames[strings.ToLower(u.Username)]; taken {
				return shared.ErrUserExists
			}
		}
	}
	for id := range t.newStats {
		if _, exists := s.stats[id]; exists {
			return shared.WrapError("memory", "Commit", shared.ErrAlreadyExists, "user stats already exist", nil)
		}
	}

	for _, u := range t.users {
		s.users[u.ID] = u
		if u.Username != "" {
			s.usernames[strings.ToLower(u.Username)] = u.ID
		}
	}
	for id, st := range t.stats {
		s.stats[id] = st
	}
	for id, uc := range t.userChallenges {
		s.userChallenges[id] = uc
	}
	for _, ur := range t.userRewards {
		s.userRewards[ur.ID] = ur
	}
	for _, ua := range t.userAchievements {
		s.userAchievements[ua.ID] = ua
	}
	for _, ua := range t.userAnswers {
		s.userAnswers[ua.ID] = ua
	}
	for _, e := range t.entries {
		s.seq++
		e.Seq = s.seq
		s.activity[e.UserID] = append(s.activity[e.UserID], e)
	}
	return nil
}

// requireUser stands in for the user foreign keys of the SQL schema: rows
// may only reference a stored user or one created earlier in this tx.
func (t *tx) requireUser(userID string) error {
	for _, u := range t.users {
		if u.ID == userID {
			return nil
		}
	}
	t.s.mu.RLock()
	_, ok := t.s.users[userID]
	t.s.mu.RUnlock()
	if !ok {
		return shared.ErrUserNotFound
	}
	return nil
}

// CreateUser implements progress.Tx.
func (t *tx) CreateUser(ctx context.Context, u *user.User) error {
	if u.Username != "" {
		if _, err := t.s.GetByUsername(ctx, u.Username); err == nil {
			return shared.ErrUserExists
		}
		for _, staged := range t.users {
			if strings.EqualFold(staged.Username, u.Username) {
				return shared.ErrUserExists
			}
		}
	}
	cp := *u
	t.users = append(t.users, &cp)
	return nil
}

// GetStats implements progress.StatsStore.
func (t *tx) GetStats(ctx context.Context, userID string) (*progress.UserStats, error) {
	if st, ok := t.stats[userID]; ok {
		return st.Clone(), nil
	}
	return t.s.GetStats(ctx, userID)
}

// CreateStats implements progress.StatsStore.
func (t *tx) CreateStats(ctx context.Context, stats *progress.UserStats) error {
	if _, err := t.GetStats(ctx, stats.UserID); err == nil {
		return shared.WrapError("memory", "CreateStats", shared.ErrAlreadyExists, "user stats already exist", nil)
	}
	t.stats[stats.UserID] = stats.Clone()
	t.newStats[stats.UserID] = true
	return nil
}

// SaveStats implements progress.StatsStore.
func (t *tx) SaveStats(ctx context.Context, stats *progress.UserStats) error {
	if _, err := t.GetStats(ctx, stats.UserID); err != nil {
		return err
	}
	t.stats[stats.UserID] = stats.Clone()
	return nil
}

// GetUserChallenge implements progress.Tx.
func (t *tx) GetUserChallenge(ctx context.Context, id string) (*progress.UserChallenge, error) {
	if uc, ok := t.userChallenges[id]; ok {
		c := cloneUserChallenge(uc)
		return &c, nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	uc, ok := t.s.userChallenges[id]
	if !ok {
		return nil, shared.ErrUserChallengeNotFound
	}
	c := cloneUserChallenge(uc)
	return &c, nil
}

// HasOpenChallenge implements progress.Tx.
func (t *tx) HasOpenChallenge(ctx context.Context, userID, challengeID string) (bool, error) {
	for _, uc := range t.userChallenges {
		if uc.UserID == userID && uc.ChallengeID == challengeID && !uc.Completed {
			return true, nil
		}
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	for id, uc := range t.s.userChallenges {
		if _, staged := t.userChallenges[id]; staged {
			continue
		}
		if uc.UserID == userID && uc.ChallengeID == challengeID && !uc.Completed {
			return true, nil
		}
	}
	return false, nil
}

// CreateUserChallenge implements progress.Tx.
func (t *tx) CreateUserChallenge(ctx context.Context, uc *progress.UserChallenge) error {
	if err := t.requireUser(uc.UserID); err != nil {
		return err
	}
	c := cloneUserChallenge(uc)
	t.userChallenges[uc.ID] = &c
	return nil
}

// SaveUserChallenge implements progress.Tx.
func (t *tx) SaveUserChallenge(ctx context.Context, uc *progress.UserChallenge) error {
	if _, err := t.GetUserChallenge(ctx, uc.ID); err != nil {
		return err
	}
	c := cloneUserChallenge(uc)
	t.userChallenges[uc.ID] = &c
	return nil
}

// CreateUserReward implements progress.Tx.
func (t *tx) CreateUserReward(ctx context.Context, ur *progress.UserReward) error {
	if err := t.requireUser(ur.UserID); err != nil {
		return err
	}
	c := *ur
	t.userRewards = append(t.userRewards, &c)
	return nil
}

// HasAchievement implements progress.Tx.
func (t *tx) HasAchievement(ctx context.Context, userID, achievementID string) (bool, error) {
	for _, ua := range t.userAchievements {
		if ua.UserID == userID && ua.AchievementID == achievementID {
			return true, nil
		}
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	for _, ua := range t.s.userAchievements {
		if ua.UserID == userID && ua.AchievementID == achievementID {
			return true, nil
		}
	}
	return false, nil
}

// CreateUserAchievement implements progress.Tx.
func (t *tx) CreateUserAchievement(ctx context.Context, ua *progress.UserAchievement) error {
	if err := t.requireUser(ua.UserID); err != nil {
		return err
	}
	has, err := t.HasAchievement(ctx, ua.UserID, ua.AchievementID)
	if err != nil {
		return err
	}
	if has {
		return shared.ErrAchievementUnlocked
	}
	c := *ua
	t.userAchievements = append(t.userAchievements, &c)
	return nil
}

// CreateUserAnswer implements progress.Tx.
func (t *tx) CreateUserAnswer(ctx context.Context, ua *progress.UserAnswer) error {
	if err := t.requireUser(ua.UserID); err != nil {
		return err
	}
	c := *ua
	t.userAnswers = append(t.userAnswers, &c)
	return nil
}

// AppendActivity implements activity.Appender.
func (t *tx) AppendActivity(ctx context.Context, e *activity.Entry) error {
	c := *e
	t.entries = append(t.entries, &c)
	return nil
}
