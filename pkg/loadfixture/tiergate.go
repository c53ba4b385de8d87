package loadfixture

import "fmt"

// RunConfig selects which tier-tagged tests run.
type RunConfig struct {
	// Skip every tier except tier 0.
	SkipTiers bool `mapstructure:"skip"`
	// Run only these tiers. Empty means all tiers.
	RunTiers []int `mapstructure:"run" validate:"dive,gte=0,lte=9"`
}

// ShouldSkip reports whether a test of the given tier must be skipped.
// Tests without a tier are never skipped, and tier 0 is exempt from SkipTiers.
func ShouldSkip(tier int, hasTier bool, cfg RunConfig) bool {
	if !hasTier {
		return false
	}
	if cfg.SkipTiers && tier > 0 {
		return true
	}
	if len(cfg.RunTiers) > 0 && !cfg.runs(tier) {
		return true
	}
	return false
}

func (cfg RunConfig) runs(tier int) bool {
	for _, t := range cfg.RunTiers {
		if t == tier {
			return true
		}
	}
	return false
}

func skipReason(tier int) string {
	return fmt.Sprintf("Tier %d skipped", tier)
}
