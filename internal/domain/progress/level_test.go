package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearLevelPolicy(t *testing.T) {
	p := NewLinearLevelPolicy(0)
	assert.Equal(t, DefaultXPPerLevel, p.XPPerLevel)

	cases := []struct {
		xp, level int
	}{
		{0, 1}, {1, 1}, {299, 1}, {300, 2}, {599, 2}, {600, 3}, {3000, 11},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, p.Level(tc.xp), "xp=%d", tc.xp)
	}

	assert.Equal(t, 300, p.NextLevelXP(1))
	assert.Equal(t, 900, p.NextLevelXP(3))
	assert.Equal(t, 0, p.LevelStartXP(1))
	assert.Equal(t, 600, p.LevelStartXP(3))
}

func TestThresholdLevelPolicy(t *testing.T) {
	p, err := NewThresholdLevelPolicy([]int{0, 100, 300})
	require.NoError(t, err)

	cases := []struct {
		xp, level int
	}{
		{0, 1}, {99, 1}, {100, 2}, {299, 2}, {300, 3}, {499, 3}, {500, 4}, {900, 6},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, p.Level(tc.xp), "xp=%d", tc.xp)
	}

	assert.Equal(t, 100, p.NextLevelXP(1))
	assert.Equal(t, 500, p.NextLevelXP(3))
	assert.Equal(t, 500, p.LevelStartXP(4))
}

func TestThresholdLevelPolicy_RejectsBadTables(t *testing.T) {
	for _, bad := range [][]int{nil, {0}, {10, 20}, {0, 50, 50}, {0, 100, 80}} {
		_, err := NewThresholdLevelPolicy(bad)
		assert.ErrorIs(t, err, ErrInvalidThresholds, "%v", bad)
	}
}

func TestLevelPolicies_AreMonotonic(t *testing.T) {
	threshold, err := NewThresholdLevelPolicy([]int{0, 50, 150, 400})
	require.NoError(t, err)

	for _, p := range []LevelPolicy{NewLinearLevelPolicy(120), threshold} {
		assert.Equal(t, 1, p.Level(0))
		prev := p.Level(0)
		for xp := 1; xp < 2000; xp++ {
			lvl := p.Level(xp)
			require.GreaterOrEqual(t, lvl, prev)
			prev = lvl
		}
	}
}

func TestProgress(t *testing.T) {
	p := NewLinearLevelPolicy(300)
	assert.Equal(t, 0, Progress(p, 0))
	assert.Equal(t, 50, Progress(p, 150))
	assert.Equal(t, 0, Progress(p, 300))
	assert.Equal(t, 99, Progress(p, 599))
}
