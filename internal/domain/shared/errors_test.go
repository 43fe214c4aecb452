package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_MatchesKind(t *testing.T) {
	err := fmt.Errorf("handler: %w", ErrChallengeCompleted)

	assert.ErrorIs(t, err, ErrAlreadyCompleted)
	assert.ErrorIs(t, err, ErrChallengeCompleted)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.True(t, IsConflict(err))
	assert.Equal(t, "challenge.Complete: challenge already completed", ErrChallengeCompleted.Error())
}

func TestWrapError_KeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapError("ledger", "Commit", ErrStorage, "internal error", cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
	assert.True(t, NothingApplied(err))
	assert.Contains(t, err.Error(), "dial tcp")
}

func TestInsufficientFunds(t *testing.T) {
	err := fmt.Errorf("redeem: %w", NewInsufficientFunds(500, 300))

	assert.ErrorIs(t, err, ErrInsufficientFunds)
	var funds *InsufficientFundsError
	if assert.True(t, errors.As(err, &funds)) {
		assert.Equal(t, 200, funds.Shortfall())
	}
}

func TestNothingApplied(t *testing.T) {
	assert.False(t, NothingApplied(nil))
	assert.True(t, NothingApplied(ErrRewardNotFound))
	assert.True(t, NothingApplied(NewInsufficientFunds(2, 1)))

	unknown := WrapError("ledger", "Commit", ErrOutcomeUnknown, "commit outcome unknown", errors.New("eof"))
	assert.False(t, NothingApplied(unknown))
	assert.False(t, IsRetryable(unknown))
}
