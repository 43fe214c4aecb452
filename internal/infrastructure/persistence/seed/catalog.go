// Package seed loads the demo catalog: challenges, rewards, achievements
// and quiz questions. IDs are stable slugs, so loading twice upserts the
// same rows instead of duplicating them.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/learnquest/ledger/internal/domain/catalog"
)

// Summary counts what a Load wrote.
type Summary struct {
	Challenges   int
	Rewards      int
	Achievements int
	Questions    int
}

// Total is the number of catalog entries written.
func (s Summary) Total() int {
	return s.Challenges + s.Rewards + s.Achievements + s.Questions
}

// Load validates and upserts the whole demo catalog.
func Load(ctx context.Context, w catalog.Writer, now time.Time) (Summary, error) {
	var sum Summary

	for _, c := range Challenges() {
		c.CreatedAt = now
		if err := c.Validate(); err != nil {
			return sum, fmt.Errorf("seed: challenge %s: %w", c.ID, err)
		}
		if err := w.SaveChallenge(ctx, c); err != nil {
			return sum, fmt.Errorf("seed: save challenge %s: %w", c.ID, err)
		}
		sum.Challenges++
	}
	for _, r := range Rewards() {
		r.CreatedAt = now
		if err := r.Validate(); err != nil {
			return sum, fmt.Errorf("seed: reward %s: %w", r.ID, err)
		}
		if err := w.SaveReward(ctx, r); err != nil {
			return sum, fmt.Errorf("seed: save reward %s: %w", r.ID, err)
		}
		sum.Rewards++
	}
	for _, a := range Achievements() {
		a.CreatedAt = now
		if err := a.Validate(); err != nil {
			return sum, fmt.Errorf("seed: achievement %s: %w", a.ID, err)
		}
		if err := w.SaveAchievement(ctx, a); err != nil {
			return sum, fmt.Errorf("seed: save achievement %s: %w", a.ID, err)
		}
		sum.Achievements++
	}
	for _, q := range Questions() {
		q.CreatedAt = now
		if err := q.Validate(); err != nil {
			return sum, fmt.Errorf("seed: question %s: %w", q.ID, err)
		}
		if err := w.SaveQuestion(ctx, q); err != nil {
			return sum, fmt.Errorf("seed: save question %s: %w", q.ID, err)
		}
		sum.Questions++
	}

	return sum, nil
}

// IsEmpty reports whether the catalog has no challenges, rewards or achievements.
func IsEmpty(ctx context.Context, r catalog.Repository) (bool, error) {
	challenges, err := r.ListActiveChallenges(ctx)
	if err != nil {
		return false, err
	}
	rewards, err := r.ListActiveRewards(ctx)
	if err != nil {
		return false, err
	}
	achievements, err := r.ListAchievements(ctx)
	if err != nil {
		return false, err
	}
	return len(challenges) == 0 && len(rewards) == 0 && len(achievements) == 0, nil
}

// LoadIfEmpty seeds only a fresh catalog. The returned bool is true when
// anything was written.
func LoadIfEmpty(ctx context.Context, r catalog.Repository, w catalog.Writer, now time.Time) (Summary, bool, error) {
	empty, err := IsEmpty(ctx, r)
	if err != nil {
		return Summary{}, false, fmt.Errorf("seed: inspect catalog: %w", err)
	}
	if !empty {
		return Summary{}, false, nil
	}
	sum, err := Load(ctx, w, now)
	return sum, err == nil, err
}
