package query

import (
	"context"
	"strings"

	"github.com/learnquest/ledger/internal/domain/catalog"
	"github.com/learnquest/ledger/internal/domain/shared"
)

// QuestionView is a question without its answer key.
type QuestionView struct {
	ID         string   `json:"id"`
	Subject    string   `json:"subject"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	XPReward   int      `json:"xpReward"`
	Difficulty int      `json:"difficulty"`
	ImageURL   string   `json:"imageUrl,omitempty"`
}

// CatalogHandler serves catalog listings.
type CatalogHandler struct {
	repo catalog.Repository
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(repo catalog.Repository) *CatalogHandler {
	return &CatalogHandler{repo: repo}
}

// Challenges lists active challenges.
func (h *CatalogHandler) Challenges(ctx context.Context) ([]*catalog.Challenge, error) {
	out, err := h.repo.ListActiveChallenges(ctx)
	if err != nil {
		return nil, storageErr("catalog", err)
	}
	return out, nil
}

// Rewards lists active rewards.
func (h *CatalogHandler) Rewards(ctx context.Context) ([]*catalog.Reward, error) {
	out, err := h.repo.ListActiveRewards(ctx)
	if err != nil {
		return nil, storageErr("catalog", err)
	}
	return out, nil
}

// Achievements lists every achievement.
func (h *CatalogHandler) Achievements(ctx context.Context) ([]*catalog.Achievement, error) {
	out, err := h.repo.ListAchievements(ctx)
	if err != nil {
		return nil, storageErr("catalog", err)
	}
	return out, nil
}

// Questions lists a subject's questions with answer keys stripped.
func (h *CatalogHandler) Questions(ctx context.Context, subject string) ([]*QuestionView, error) {
	if strings.TrimSpace(subject) == "" {
		return nil, shared.NewDomainError("catalog", "Validate", shared.ErrInvalidInput, "subject is required")
	}
	qs, err := h.repo.ListQuestionsBySubject(ctx, subject)
	if err != nil {
		return nil, storageErr("catalog", err)
	}
	out := make([]*QuestionView, 0, len(qs))
	for _, q := range qs {
		out = append(out, &QuestionView{
			ID:         q.ID,
			Subject:    q.Subject,
			Question:   q.Text,
			Options:    q.Options,
			XPReward:   q.XPReward,
			Difficulty: q.Difficulty,
			ImageURL:   q.ImageURL,
		})
	}
	return out, nil
}
