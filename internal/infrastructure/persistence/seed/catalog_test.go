package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnquest/ledger/internal/infrastructure/persistence/memory"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

	sum, err := Load(ctx, store, now)
	require.NoError(t, err)
	assert.Equal(t, len(Challenges()), sum.Challenges)
	assert.Equal(t, len(Questions()), sum.Questions)
	assert.Equal(t, len(Challenges())+len(Rewards())+len(Achievements())+len(Questions()), sum.Total())

	maths, err := store.ListQuestionsBySubject(ctx, "maths")
	require.NoError(t, err)
	assert.Len(t, maths, 8)

	// Stable IDs make a second load an upsert.
	_, err = Load(ctx, store, now)
	require.NoError(t, err)
	challenges, err := store.ListActiveChallenges(ctx)
	require.NoError(t, err)
	assert.Len(t, challenges, len(Challenges()))
}

func TestLoadIfEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	now := time.Now()

	_, loaded, err := LoadIfEmpty(ctx, store, store, now)
	require.NoError(t, err)
	assert.True(t, loaded)

	_, loaded, err = LoadIfEmpty(ctx, store, store, now)
	require.NoError(t, err)
	assert.False(t, loaded)
}

func TestCatalogIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	add := func(id string) {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	for _, c := range Challenges() {
		add(c.ID)
	}
	for _, r := range Rewards() {
		add(r.ID)
	}
	for _, a := range Achievements() {
		add(a.ID)
	}
	for _, q := range Questions() {
		add(q.ID)
		assert.Less(t, q.CorrectAnswer, len(q.Options), q.ID)
	}
}
