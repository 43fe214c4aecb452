package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Ledger toggles. Each can be overridden with FEATURE_<NAME>, dots and all
// other punctuation becoming underscores.
const (
	FeatureCatalogCache  = "catalog.cache"         // Redis read-through cache for catalog reads
	FeatureCatalogSeed   = "catalog.seed_on_start" // Load the demo catalog when the store is empty
	FeatureEventsPublish = "events.publish"        // Publish domain events after commit
	FeatureEventsRedis   = "events.redis"          // Mirror events to Redis pub/sub
	FeatureStreaks       = "ledger.streaks"        // Daily streak tracking on XP gains
	FeaturePenalties     = "ledger.penalties"      // Admin penalty endpoint
)

// Feature is one toggle and where its current value came from.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
	FromEnv     bool
}

// FeatureFlags holds the service-wide toggles. Reads are safe while a test
// flips a flag with Set.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

var builtinFeatures = []Feature{
	{Name: FeatureCatalogCache, Description: "Cache catalog reads in Redis", Enabled: true},
	{Name: FeatureCatalogSeed, Description: "Seed the demo catalog on startup"},
	{Name: FeatureEventsPublish, Description: "Publish ledger events", Enabled: true},
	{Name: FeatureEventsRedis, Description: "Mirror ledger events to Redis"},
	{Name: FeatureStreaks, Description: "Track daily streaks", Enabled: true},
	{Name: FeaturePenalties, Description: "Allow admin penalties", Enabled: true},
}

// LoadFeatureFlags starts from the built-in defaults and applies env
// overrides. Values strconv.ParseBool rejects are ignored and reported by
// Invalid.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature, len(builtinFeatures))}
	for _, f := range builtinFeatures {
		f := f
		if raw, ok := os.LookupEnv(featureNameToEnvKey(f.Name)); ok {
			if on, err := strconv.ParseBool(strings.TrimSpace(raw)); err == nil {
				f.Enabled = on
				f.FromEnv = true
			}
		}
		ff.features[f.Name] = &f
	}
	return ff
}

// featureNameToEnvKey: "catalog.seed_on_start" -> "FEATURE_CATALOG_SEED_ON_START".
func featureNameToEnvKey(name string) string {
	return "FEATURE_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(name))
}

// Enabled reports a toggle's value. Unknown names are off.
func (ff *FeatureFlags) Enabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()
	f, ok := ff.features[name]
	return ok && f.Enabled
}

// Set flips a known toggle.
func (ff *FeatureFlags) Set(name string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	f, ok := ff.features[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrFeatureNotFound, name)
	}
	f.Enabled = enabled
	return nil
}

// All returns a copy of every toggle, sorted by name, for the startup log.
func (ff *FeatureFlags) All() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()
	out := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Invalid lists FEATURE_* variables for known toggles whose value is not a
// boolean. Validate turns them into configuration errors.
func (ff *FeatureFlags) Invalid() []string {
	var bad []string
	for _, f := range builtinFeatures {
		key := featureNameToEnvKey(f.Name)
		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if _, err := strconv.ParseBool(strings.TrimSpace(raw)); err != nil {
			bad = append(bad, key)
		}
	}
	return bad
}

// ErrFeatureNotFound is returned by Set for names that are not toggles.
var ErrFeatureNotFound = errors.New("feature not found")
