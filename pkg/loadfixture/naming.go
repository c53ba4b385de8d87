package loadfixture

import (
	"regexp"
	"strconv"
	"strings"
)

var tierPattern = regexp.MustCompile(`^.*_tier_(\d)$`)

// NormalizeName turns a test display name into a run identifier: lowercase, with spaces replaced by underscores.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// ExtractTier returns the tier of a normalized test name ending in _tier_<digit>.
// Only the last marker of a name is considered.
func ExtractTier(normalizedName string) (int, bool) {
	m := tierPattern.FindStringSubmatch(normalizedName)
	if m == nil {
		return 0, false
	}
	tier, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return tier, true
}
