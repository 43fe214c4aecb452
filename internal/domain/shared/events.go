// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. They are published after the owning transaction commits.
const (
	// User events
	EventUserRegistered EventType = "user.registered"

	// Ledger events
	EventXPGained       EventType = "ledger.xp_gained"
	EventLevelUp        EventType = "ledger.level_up"
	EventPenaltyApplied EventType = "ledger.penalty_applied"

	// Challenge events
	EventChallengeStarted   EventType = "challenge.started"
	EventChallengeCompleted EventType = "challenge.completed"

	// Economy events
	EventRewardRedeemed EventType = "reward.redeemed"

	// Quiz events
	EventAnswerSubmitted EventType = "question.answer_submitted"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event. The aggregate is always the user.
func NewBaseEvent(eventType EventType, userID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: userID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// User Events
// ═══════════════════════════════════════════════════════════════════════════

// UserRegisteredEvent is emitted when a user and their stats are provisioned.
type UserRegisteredEvent struct {
	BaseEvent
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Payload implements Event interface.
func (e UserRegisteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"username":     e.Username,
		"display_name": e.DisplayName,
	}
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent.
func NewUserRegisteredEvent(userID, username, displayName string, at time.Time) UserRegisteredEvent {
	return UserRegisteredEvent{
		BaseEvent:   NewBaseEvent(EventUserRegistered, userID, at),
		Username:    username,
		DisplayName: displayName,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a grant raises a user's XP.
type XPGainedEvent struct {
	BaseEvent
	Amount   int    `json:"amount"`
	NewTotal int    `json:"new_total"`
	Source   string `json:"source"` // activity type that produced the grant
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"amount":    e.Amount,
		"new_total": e.NewTotal,
		"source":    e.Source,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(userID string, amount, newTotal int, source string, at time.Time) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, userID, at),
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
	}
}

// LevelUpEvent is emitted when the recomputed level is higher than before.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel int, at time.Time) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID, at),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
	}
}

// PenaltyAppliedEvent is emitted when an operator deducts points.
type PenaltyAppliedEvent struct {
	BaseEvent
	Requested int    `json:"requested"`
	Applied   int    `json:"applied"`
	Reason    string `json:"reason"`
}

// Payload implements Event interface.
func (e PenaltyAppliedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"requested": e.Requested,
		"applied":   e.Applied,
		"reason":    e.Reason,
	}
}

// NewPenaltyAppliedEvent creates a new PenaltyAppliedEvent.
func NewPenaltyAppliedEvent(userID string, requested, applied int, reason string, at time.Time) PenaltyAppliedEvent {
	return PenaltyAppliedEvent{
		BaseEvent: NewBaseEvent(EventPenaltyApplied, userID, at),
		Requested: requested,
		Applied:   applied,
		Reason:    reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Challenge Events
// ═══════════════════════════════════════════════════════════════════════════

// ChallengeStartedEvent is emitted when a user enrolls in a challenge.
type ChallengeStartedEvent struct {
	BaseEvent
	UserChallengeID string `json:"user_challenge_id"`
	ChallengeID     string `json:"challenge_id"`
}

// Payload implements Event interface.
func (e ChallengeStartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_challenge_id": e.UserChallengeID,
		"challenge_id":      e.ChallengeID,
	}
}

// NewChallengeStartedEvent creates a new ChallengeStartedEvent.
func NewChallengeStartedEvent(userID, userChallengeID, challengeID string, at time.Time) ChallengeStartedEvent {
	return ChallengeStartedEvent{
		BaseEvent:       NewBaseEvent(EventChallengeStarted, userID, at),
		UserChallengeID: userChallengeID,
		ChallengeID:     challengeID,
	}
}

// ChallengeCompletedEvent is emitted once per user challenge.
type ChallengeCompletedEvent struct {
	BaseEvent
	UserChallengeID string `json:"user_challenge_id"`
	ChallengeID     string `json:"challenge_id"`
	XPEarned        int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e ChallengeCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_challenge_id": e.UserChallengeID,
		"challenge_id":      e.ChallengeID,
		"xp_earned":         e.XPEarned,
	}
}

// NewChallengeCompletedEvent creates a new ChallengeCompletedEvent.
func NewChallengeCompletedEvent(userID, userChallengeID, challengeID string, xp int, at time.Time) ChallengeCompletedEvent {
	return ChallengeCompletedEvent{
		BaseEvent:       NewBaseEvent(EventChallengeCompleted, userID, at),
		UserChallengeID: userChallengeID,
		ChallengeID:     challengeID,
		XPEarned:        xp,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Economy, Quiz and Achievement Events
// ═══════════════════════════════════════════════════════════════════════════

// RewardRedeemedEvent is emitted after points were debited for a reward.
type RewardRedeemedEvent struct {
	BaseEvent
	UserRewardID string `json:"user_reward_id"`
	RewardID     string `json:"reward_id"`
	Cost         int    `json:"cost"`
	Remaining    int    `json:"remaining"`
}

// Payload implements Event interface.
func (e RewardRedeemedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_reward_id": e.UserRewardID,
		"reward_id":      e.RewardID,
		"cost":           e.Cost,
		"remaining":      e.Remaining,
	}
}

// NewRewardRedeemedEvent creates a new RewardRedeemedEvent.
func NewRewardRedeemedEvent(userID, userRewardID, rewardID string, cost, remaining int, at time.Time) RewardRedeemedEvent {
	return RewardRedeemedEvent{
		BaseEvent:    NewBaseEvent(EventRewardRedeemed, userID, at),
		UserRewardID: userRewardID,
		RewardID:     rewardID,
		Cost:         cost,
		Remaining:    remaining,
	}
}

// AnswerSubmittedEvent is emitted for every recorded answer.
type AnswerSubmittedEvent struct {
	BaseEvent
	QuestionID string `json:"question_id"`
	IsCorrect  bool   `json:"is_correct"`
	XPEarned   int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e AnswerSubmittedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"question_id": e.QuestionID,
		"is_correct":  e.IsCorrect,
		"xp_earned":   e.XPEarned,
	}
}

// NewAnswerSubmittedEvent creates a new AnswerSubmittedEvent.
func NewAnswerSubmittedEvent(userID, questionID string, correct bool, xp int, at time.Time) AnswerSubmittedEvent {
	return AnswerSubmittedEvent{
		BaseEvent:  NewBaseEvent(EventAnswerSubmitted, userID, at),
		QuestionID: questionID,
		IsCorrect:  correct,
		XPEarned:   xp,
	}
}

// AchievementUnlockedEvent is emitted once per (user, achievement).
type AchievementUnlockedEvent struct {
	BaseEvent
	AchievementID string `json:"achievement_id"`
	Name          string `json:"name"`
	XPEarned      int    `json:"xp_earned"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"achievement_id": e.AchievementID,
		"name":           e.Name,
		"xp_earned":      e.XPEarned,
	}
}

// NewAchievementUnlockedEvent creates a new AchievementUnlockedEvent.
func NewAchievementUnlockedEvent(userID, achievementID, name string, xp int, at time.Time) AchievementUnlockedEvent {
	return AchievementUnlockedEvent{
		BaseEvent:     NewBaseEvent(EventAchievementUnlocked, userID, at),
		AchievementID: achievementID,
		Name:          name,
		XPEarned:      xp,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Source        string          `json:"source"`
	Payload       json.RawMessage `json:"payload"`
}

// Decode returns the payload as a map.
func (e EventEnvelope) Decode() (map[string]interface{}, error) {
	payload := make(map[string]interface{})
	if len(e.Payload) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
