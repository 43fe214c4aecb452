package catalog

import "context"

// Repository is the read side of the catalog.
// Get* methods return a shared.ErrNotFound-kind error when the row is missing.
type Repository interface {
	GetChallenge(ctx context.Context, id string) (*Challenge, error)
	GetReward(ctx context.Context, id string) (*Reward, error)
	GetAchievement(ctx context.Context, id string) (*Achievement, error)
	GetQuestion(ctx context.Context, id string) (*Question, error)

	ListActiveChallenges(ctx context.Context) ([]*Challenge, error)
	ListActiveRewards(ctx context.Context) ([]*Reward, error)
	ListAchievements(ctx context.Context) ([]*Achievement, error)
	ListQuestionsBySubject(ctx context.Context, subject string) ([]*Question, error)
}

// Writer publishes catalog entries. Used by seeding and admin tooling only.
type Writer interface {
	SaveChallenge(ctx context.Context, c *Challenge) error
	SaveReward(ctx context.Context, r *Reward) error
	SaveAchievement(ctx context.Context, a *Achievement) error
	SaveQuestion(ctx context.Context, q *Question) error
}
