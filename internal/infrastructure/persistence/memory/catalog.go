package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/shared"
)

// GetChallenge implements catalog.Repository.
func (s *Store) GetChallenge(ctx context.Context, id string) (*catalog.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, shared.ErrChallengeNotFound
	}
	cp := *c
	return &cp, nil
}

// GetReward implements catalog.Repository.
func (s *Store) GetReward(ctx context.Context, id string) (*catalog.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rewards[id]
	if !ok {
		return nil, shared.ErrRewardNotFound
	}
	cp := *r
	return &cp, nil
}

// GetAchievement implements catalog.Repository.
func (s *Store) GetAchievement(ctx context.Context, id string) (*catalog.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.achievements[id]
	if !ok {
		return nil, shared.ErrAchievementNotFound
	}
	cp := *a
	return &cp, nil
}

// GetQuestion implements catalog.Repository.
func (s *Store) GetQuestion(ctx context.Context, id string) (*catalog.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, shared.ErrQuestionNotFound
	}
	return cloneQuestion(q), nil
}

// ListActiveChallenges implements catalog.Repository.
func (s *Store) ListActiveChallenges(ctx context.Context) ([]*catalog.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*catalog.Challenge, 0, len(s.challenges))
	for _, c := range s.challenges {
		if c.IsActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// ListActiveRewards implements catalog.Repository.
func (s *Store) ListActiveRewards(ctx context.Context) ([]*catalog.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*catalog.Reward, 0, len(s.rewards))
	for _, r := range s.rewards {
		if r.IsActive {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PointsRequired == out[j].PointsRequired {
			return out[i].Title < out[j].Title
		}
		return out[i].PointsRequired < out[j].PointsRequired
	})
	return out, nil
}

// ListAchievements implements catalog.Repository.
func (s *Store) ListAchievements(ctx context.Context) ([]*catalog.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*catalog.Achievement, 0, len(s.achievements))
	for _, a := range s.achievements {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// ListQuestionsBySubject implements catalog.Repository.
func (s *Store) ListQuestionsBySubject(ctx context.Context, subject string) ([]*catalog.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*catalog.Question, 0)
	for _, q := range s.questions {
		if strings.EqualFold(q.Subject, subject) {
			out = append(out, cloneQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Difficulty == out[j].Difficulty {
			return out[i].ID < out[j].ID
		}
		return out[i].Difficulty < out[j].Difficulty
	})
	return out, nil
}

// SaveChallenge implements catalog.Writer.
func (s *Store) SaveChallenge(ctx context.Context, c *catalog.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.challenges[c.ID] = &cp
	return nil
}

// SaveReward implements catalog.Writer.
func (s *Store) SaveReward(ctx context.Context, r *catalog.Reward) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rewards[r.ID] = &cp
	return nil
}

// SaveAchievement implements catalog.Writer.
func (s *Store) SaveAchievement(ctx context.Context, a *catalog.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.achievements[a.ID] = &cp
	return nil
}

// SaveQuestion implements catalog.Writer.
func (s *Store) SaveQuestion(ctx context.Context, q *catalog.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = cloneQuestion(q)
	return nil
}

func cloneQuestion(q *catalog.Question) *catalog.Question {
	cp := *q
	cp.Options = append([]string(nil), q.Options...)
	return &cp
}
