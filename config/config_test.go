package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, PolicyLinear, cfg.Ledger.LevelPolicy)
	assert.Equal(t, 300, cfg.Ledger.XPPerLevel)
	assert.Equal(t, 50, cfg.Ledger.ActivityPageLimit)
	assert.Equal(t, 5, cfg.Ledger.RecentAchievements)
	assert.Equal(t, "UTC", cfg.Ledger.StreakLocation.String())
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.True(t, cfg.Redis.Disabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_LedgerOverrides(t *testing.T) {
	t.Setenv("LEDGER_LEVEL_POLICY", "Threshold")
	t.Setenv("LEDGER_LEVEL_THRESHOLDS", "0, 100,250 ,500")
	t.Setenv("LEDGER_STREAK_TIMEZONE", "Asia/Almaty")
	t.Setenv("LEDGER_RECENT_ACHIEVEMENTS", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, PolicyThreshold, cfg.Ledger.LevelPolicy)
	assert.Equal(t, []int{0, 100, 250, 500}, cfg.Ledger.LevelThresholds)
	assert.Equal(t, "Asia/Almaty", cfg.Ledger.StreakLocation.String())
	assert.Equal(t, 3, cfg.Ledger.RecentAchievements)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad threshold", map[string]string{"LEDGER_LEVEL_THRESHOLDS": "0,abc"}, "not an integer"},
		{"bad timezone", map[string]string{"LEDGER_STREAK_TIMEZONE": "Mars/Olympus"}, "LEDGER_STREAK_TIMEZONE"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "sqlite"}, "STORAGE_DRIVER"},
		{"postgres without url", map[string]string{"STORAGE_DRIVER": "postgres"}, "DATABASE_URL"},
		{"memory in production", map[string]string{"APP_ENV": "production"}, "not allowed in production"},
		{"threshold without table", map[string]string{"LEDGER_LEVEL_POLICY": "threshold"}, "LEDGER_LEVEL_THRESHOLDS"},
		{"unknown policy", map[string]string{"LEDGER_LEVEL_POLICY": "quadratic"}, "LEDGER_LEVEL_POLICY"},
		{"zero xp per level", map[string]string{"LEDGER_XP_PER_LEVEL": "0"}, "LEDGER_XP_PER_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_DatabaseURLFromParts(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "lq")
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://lq:secret@db:5432/learnquest?sslmode=disable", cfg.Database.URL)
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("FEATURE_CATALOG_CACHE", "false")
	t.Setenv("FEATURE_EVENTS_REDIS", "1")

	ff := LoadFeatureFlags()

	assert.False(t, ff.Enabled(FeatureCatalogCache))
	assert.True(t, ff.Enabled(FeatureEventsRedis))
	assert.True(t, ff.Enabled(FeatureStreaks))
	assert.False(t, ff.Enabled("nope"))

	all := ff.All()
	require.Len(t, all, 6)
	assert.Equal(t, FeatureCatalogCache, all[0].Name)
	assert.True(t, all[0].FromEnv)

	require.NoError(t, ff.Set(FeatureStreaks, false))
	assert.False(t, ff.Enabled(FeatureStreaks))
	assert.ErrorIs(t, ff.Set("missing", true), ErrFeatureNotFound)
	assert.Empty(t, ff.Invalid())
}

func TestFeatureFlags_RejectsNonBoolean(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("FEATURE_LEDGER_PENALTIES", "25")

	assert.True(t, LoadFeatureFlags().Enabled(FeaturePenalties), "unparsable override keeps the default")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FEATURE_LEDGER_PENALTIES must be true or false")
}

func TestFeatureNameToEnvKey(t *testing.T) {
	assert.Equal(t, "FEATURE_CATALOG_SEED_ON_START", featureNameToEnvKey(FeatureCatalogSeed))
}
