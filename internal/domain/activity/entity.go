// Package activity contains the append-only activity log: one entry per
// balance-changing event, readable newest-first.
// This is a pure domain layer with zero external dependencies.
package activity

import (
	"errors"
	"strings"
	"time"
)

// Domain errors for activity package.
var (
	ErrInvalidUserID = errors.New("activity: user ID is required")
	ErrInvalidType   = errors.New("activity: unknown entry type")
	ErrEmptyTitle    = errors.New("activity: title is required")
	ErrMissingReason = errors.New("activity: penalty entries need a reason")
)

// Type classifies what produced an entry.
type Type string

const (
	TypeChallenge   Type = "challenge"
	TypeAchievement Type = "achievement"
	TypeReward      Type = "reward"
	TypePenalty     Type = "penalty"
	TypeQuestion    Type = "question"
)

// IsValid checks if the type is one of the known kinds.
func (t Type) IsValid() bool {
	switch t {
	case TypeChallenge, TypeAchievement, TypeReward, TypePenalty, TypeQuestion:
		return true
	}
	return false
}

// String returns the string representation of Type.
func (t Type) String() string {
	return string(t)
}

// Entry is an immutable record of a balance-changing event.
//
// XPDelta is the signed amount the event requested. For redemptions and
// penalties this is the negative cost, whatever the clamp left over.
// AppliedXP and AppliedPoints hold what the ledger actually changed.
type Entry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Type          Type      `json:"type"`
	Title         string    `json:"title"`
	XPDelta       int       `json:"xp"`
	AppliedXP     int       `json:"appliedXp"`
	AppliedPoints int       `json:"appliedPoints"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`

	// Seq is assigned by storage on append and breaks createdAt ties:
	// a higher Seq was inserted later.
	Seq int64 `json:"-"`
}

// Validate checks the entry before it is appended.
func (e *Entry) Validate() error {
	if e.UserID == "" {
		return ErrInvalidUserID
	}
	if !e.Type.IsValid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if e.Type == TypePenalty && strings.TrimSpace(e.Reason) == "" {
		return ErrMissingReason
	}
	return nil
}

// Before reports whether e sorts after other in newest-first order,
// i.e. e is older.
func (e *Entry) Before(other *Entry) bool {
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.Seq < other.Seq
}

// Cursor marks a position in a newest-first scan. The zero Cursor means
// "start from the newest entry".
type Cursor struct {
	CreatedAt time.Time
	Seq       int64
}

// IsZero reports whether the cursor is at the start.
func (c Cursor) IsZero() bool {
	return c.CreatedAt.IsZero() && c.Seq == 0
}

// After builds the cursor that continues strictly after e.
func After(e *Entry) Cursor {
	return Cursor{CreatedAt: e.CreatedAt, Seq: e.Seq}
}

// Admits reports whether e lies strictly past the cursor in newest-first order.
func (c Cursor) Admits(e *Entry) bool {
	if c.IsZero() {
		return true
	}
	return e.Before(&Entry{CreatedAt: c.CreatedAt, Seq: c.Seq})
}
