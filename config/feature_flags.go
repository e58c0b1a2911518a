package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles for the studio. Supports gradual
// rollout by member, branch targeting, and time-windowed activation, so a
// new notice style can be tried on one branch before the whole studio sees
// it.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Per-member overrides, for testing on a known account.
	memberOverrides map[string]map[string]bool
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100). Members are assigned a stable bucket
	// from a hash of their ID.
	RolloutPercent int

	// Branch targeting. Empty means all branches.
	TargetBranches []string

	// Time-based activation window.
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variants, e.g. alternate notice copy.
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	MemberID string
	Branch   string
	IsStaff  bool
}

// Predefined feature flag names.
const (
	// === Notification features ===
	FeatureNotifyPractice           = "notify.practice"            // streak/comeback/milestone notices
	FeatureNotifyCreditsDepleted    = "notify.credits_depleted"    // renewal prompt at zero credits
	FeatureNotifyMembershipExpiring = "notify.membership_expiring" // expiry-day reminder
	FeatureNotifyAnomalyAlerts      = "notify.anomaly_alerts"      // staff alerts on negative balances

	// === Reporting features ===
	FeatureReportDaily = "report.daily" // evening operations summary

	// === Experimental features ===
	FeatureExperimentalKakaoChannel = "experimental.kakao_channel" // KakaoTalk delivery
	FeatureExperimentalPushChannel  = "experimental.push_channel"  // app push delivery
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:        make(map[string]*Feature),
		memberOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureNotifyPractice] = &Feature{
		Name:           FeatureNotifyPractice,
		Description:    "Send practice notices on streaks, comebacks, and milestones",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyCreditsDepleted] = &Feature{
		Name:           FeatureNotifyCreditsDepleted,
		Description:    "Prompt renewal when the last credit is spent",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyMembershipExpiring] = &Feature{
		Name:           FeatureNotifyMembershipExpiring,
		Description:    "Remind members on the day their membership ends",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyAnomalyAlerts] = &Feature{
		Name:           FeatureNotifyAnomalyAlerts,
		Description:    "Alert staff when a balance goes negative",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureReportDaily] = &Feature{
		Name:           FeatureReportDaily,
		Description:    "Send the evening operations summary to the owner",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental channels stay off until the provider contracts land.
	ff.features[FeatureExperimentalKakaoChannel] = &Feature{
		Name:           FeatureExperimentalKakaoChannel,
		Description:    "Deliver notices over KakaoTalk",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalPushChannel] = &Feature{
		Name:           FeatureExperimentalPushChannel,
		Description:    "Deliver notices over app push",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_NOTIFY_PRACTICE=false
// Example: FEATURE_EXPERIMENTAL_KAKAO_CHANNEL=25 (25% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts a feature name to its environment variable.
// "notify.practice" -> "FEATURE_NOTIFY_PRACTICE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
// A nil context evaluates the flag globally.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if ctx != nil && ctx.MemberID != "" {
		if overrides, ok := ff.memberOverrides[ctx.MemberID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	// Staff see every feature.
	if ctx != nil && ctx.IsStaff {
		return true
	}

	if !feature.Enabled {
		return false
	}

	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	if len(feature.TargetBranches) > 0 && ctx != nil && ctx.Branch != "" {
		match := false
		for _, b := range feature.TargetBranches {
			if b == ctx.Branch {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.MemberID != "" {
		return ff.isInRollout(ctx.MemberID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a member is in the rollout percentage.
// Uses consistent hashing so members stay in their bucket across restarts.
func (ff *FeatureFlags) isInRollout(memberID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(memberID))
	bucket := int(h.Sum32() % 100)

	return bucket < percent
}

// GetVariant returns the A/B test variant for a member.
// Returns empty string if no variants are defined or the feature is off.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	feature, ok := ff.features[featureName]
	hasVariants := ok && len(feature.Variants) > 0
	ff.mu.RUnlock()

	if !hasVariants || ctx == nil || ctx.MemberID == "" {
		return ""
	}
	if !ff.IsEnabled(featureName, ctx) {
		return ""
	}

	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.MemberID))

	ff.mu.RLock()
	defer ff.mu.RUnlock()
	variantIndex := int(h.Sum32() % uint32(len(feature.Variants)))
	return feature.Variants[variantIndex]
}

// SetMemberOverride sets a feature override for a specific member.
// Useful for testing against a known account.
func (ff *FeatureFlags) SetMemberOverride(memberID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.memberOverrides[memberID]; !ok {
		ff.memberOverrides[memberID] = make(map[string]bool)
	}
	ff.memberOverrides[memberID][featureName] = enabled
}

// ClearMemberOverrides removes all overrides for a member.
func (ff *FeatureFlags) ClearMemberOverrides(memberID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.memberOverrides, memberID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
