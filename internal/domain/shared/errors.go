// Package shared holds what every ledger domain package agrees on: the error
// kinds the HTTP layer maps to status codes, and the events a committed
// mutation emits. It imports nothing outside the standard library.
package shared

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; concrete errors below wrap one.
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")

	// State errors
	ErrAlreadyStarted   = errors.New("already started")
	ErrAlreadyCompleted = errors.New("already completed")
	ErrAlreadyUnlocked  = errors.New("already unlocked")

	// Balance errors
	ErrInsufficientFunds = errors.New("insufficient funds")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// Infrastructure errors. ErrStorage means the transaction was rolled back;
	// ErrOutcomeUnknown means a commit was attempted and its result is not known.
	ErrStorage        = errors.New("storage failure")
	ErrOutcomeUnknown = errors.New("outcome unknown")
)

// DomainError ties a failure to the aggregate and operation it came from.
type DomainError struct {
	Domain  string // "challenge", "reward", "user", ...
	Op      string // "Complete", "Redeem", ...
	Kind    error  // one of the kinds above
	Message string // safe to show to API clients
	Err     error  // cause, may be nil
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap prefers the cause, falling back to the kind.
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is matches the kind as well as anything in the cause chain.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError builds an error without a cause.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError is NewDomainError with a cause attached.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// InsufficientFundsError is returned when a debit exceeds the available balance.
type InsufficientFundsError struct {
	Required  int
	Available int
}

// Shortfall is how many points the user is missing.
func (e *InsufficientFundsError) Shortfall() int {
	return e.Required - e.Available
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %d, available %d, short by %d",
		e.Required, e.Available, e.Shortfall())
}

// Is matches ErrInsufficientFunds.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// NewInsufficientFunds builds an InsufficientFundsError.
func NewInsufficientFunds(required, available int) *InsufficientFundsError {
	return &InsufficientFundsError{Required: required, Available: available}
}

// Ledger domain errors
var (
	ErrStatsNotFound = NewDomainError("ledger", "Find", ErrNotFound, "user stats not found")
	ErrUserNotFound  = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserExists    = NewDomainError("user", "Create", ErrAlreadyExists, "username already taken")
)

// Challenge domain errors
var (
	ErrChallengeNotFound     = NewDomainError("challenge", "Find", ErrNotFound, "challenge not found")
	ErrChallengeInactive     = NewDomainError("challenge", "Start", ErrNotFound, "challenge is not active")
	ErrUserChallengeNotFound = NewDomainError("challenge", "FindUserChallenge", ErrNotFound, "user challenge not found")
	ErrChallengeNotOwned     = NewDomainError("challenge", "Complete", ErrForbidden, "user challenge belongs to another user")
	ErrChallengeStarted      = NewDomainError("challenge", "Start", ErrAlreadyStarted, "challenge already in progress")
	ErrChallengeCompleted    = NewDomainError("challenge", "Complete", ErrAlreadyCompleted, "challenge already completed")
)

// Reward domain errors
var (
	ErrRewardNotFound = NewDomainError("reward", "Find", ErrNotFound, "reward not found")
	ErrRewardInactive = NewDomainError("reward", "Redeem", ErrNotFound, "reward is not available")
)

// Achievement domain errors
var (
	ErrAchievementNotFound = NewDomainError("achievement", "Find", ErrNotFound, "achievement not found")
	ErrAchievementUnlocked = NewDomainError("achievement", "Unlock", ErrAlreadyUnlocked, "achievement already unlocked")
)

// Question domain errors
var (
	ErrQuestionNotFound = NewDomainError("question", "Find", ErrNotFound, "question not found")
)

// IsNotFound reports ErrNotFound anywhere in err's chain.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict reports the "already in that state" family.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrAlreadyStarted) ||
		errors.Is(err, ErrAlreadyCompleted) ||
		errors.Is(err, ErrAlreadyUnlocked)
}

// IsValidation reports ErrInvalidInput.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// NothingApplied reports whether a failed operation is known to have left
// no trace in storage. Only an unknown commit outcome returns false.
func NothingApplied(err error) bool {
	return err != nil && !errors.Is(err, ErrOutcomeUnknown)
}

// IsRetryable reports a storage failure that is known to have rolled back.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorage) && !errors.Is(err, ErrOutcomeUnknown)
}
