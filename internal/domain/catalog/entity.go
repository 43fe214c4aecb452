// Package catalog holds the definitions users interact with: challenges,
// rewards, achievements and quiz questions. Catalog entries are read-only
// from the point of view of the ledger.
package catalog

import (
	"errors"
	"strings"
	"time"
)

// Validation errors for catalog entries.
var (
	ErrEmptyTitle        = errors.New("catalog: title is required")
	ErrNegativeReward    = errors.New("catalog: reward must be non-negative")
	ErrInvalidDifficulty = errors.New("catalog: difficulty must be between 1 and 5")
	ErrInvalidDuration   = errors.New("catalog: duration must be at least one day")
	ErrInvalidCost       = errors.New("catalog: points required must be positive")
	ErrInvalidRarity     = errors.New("catalog: unknown rarity")
	ErrInvalidOptions    = errors.New("catalog: question needs at least two options")
	ErrInvalidAnswer     = errors.New("catalog: correct answer index out of range")
)

const (
	MinDifficulty = 1
	MaxDifficulty = 5

	DefaultQuestionXP         = 10
	DefaultQuestionDifficulty = 1
	DefaultDurationDays       = 1
)

// ══════════════════════════════════════════════════════════════════════════════
// Challenge
// ══════════════════════════════════════════════════════════════════════════════

// Challenge is a goal a user can enroll in and later complete for XP.
type Challenge struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	XPReward     int       `json:"xpReward"`
	Category     string    `json:"category"`
	Difficulty   int       `json:"difficulty"`
	DurationDays int       `json:"durationDays"`
	IsActive     bool      `json:"isActive"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Validate checks the challenge definition.
func (c *Challenge) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return ErrEmptyTitle
	}
	if c.XPReward < 0 {
		return ErrNegativeReward
	}
	if c.Difficulty < MinDifficulty || c.Difficulty > MaxDifficulty {
		return ErrInvalidDifficulty
	}
	if c.DurationDays < 1 {
		return ErrInvalidDuration
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// Reward
// ══════════════════════════════════════════════════════════════════════════════

// Reward is something a user buys with points.
type Reward struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PointsRequired int       `json:"pointsRequired"`
	Category       string    `json:"category"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Validate checks the reward definition.
func (r *Reward) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if r.PointsRequired <= 0 {
		return ErrInvalidCost
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// Achievement
// ══════════════════════════════════════════════════════════════════════════════

// Rarity classifies achievements for display.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// IsValid reports whether r is a known rarity.
func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Achievement is a one-time badge that grants XP when unlocked.
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	XPReward    int       `json:"xpReward"`
	Rarity      Rarity    `json:"rarity"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate checks the achievement definition.
func (a *Achievement) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyTitle
	}
	if a.XPReward < 0 {
		return ErrNegativeReward
	}
	if !a.Rarity.IsValid() {
		return ErrInvalidRarity
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// Question
// ══════════════════════════════════════════════════════════════════════════════

// Question is a multiple-choice quiz item.
type Question struct {
	ID            string    `json:"id"`
	Subject       string    `json:"subject"`
	Text          string    `json:"question"`
	Options       []string  `json:"options"`
	CorrectAnswer int       `json:"correctAnswer"`
	XPReward      int       `json:"xpReward"`
	Difficulty    int       `json:"difficulty"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate checks the question definition.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return ErrEmptyTitle
	}
	if len(q.Options) < 2 {
		return ErrInvalidOptions
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return ErrInvalidAnswer
	}
	if q.XPReward < 0 {
		return ErrNegativeReward
	}
	if q.Difficulty < MinDifficulty || q.Difficulty > MaxDifficulty {
		return ErrInvalidDifficulty
	}
	return nil
}

// IsCorrect compares a selected option index with the answer key.
func (q *Question) IsCorrect(selected int) bool {
	return selected == q.CorrectAnswer
}

// ApplyDefaults fills the defaults new catalog rows get when a field is omitted.
func (q *Question) ApplyDefaults() {
	if q.XPReward == 0 {
		q.XPReward = DefaultQuestionXP
	}
	if q.Difficulty == 0 {
		q.Difficulty = DefaultQuestionDifficulty
	}
}

// ApplyDefaults fills omitted challenge fields.
func (c *Challenge) ApplyDefaults() {
	if c.DurationDays == 0 {
		c.DurationDays = DefaultDurationDays
	}
}
