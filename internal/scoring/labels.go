package scoring

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxLabelDistance is the largest edit distance still accepted when
// matching a model-declared label against the known tables. Model
// output drifts in casing, spacing, and the occasional typo
// ("SeriesA", "saas", "Deeptech"); a distance this small never
// confuses two distinct known labels.
const maxLabelDistance = 2

var (
	knownStageLabels    = []string{StageSeed, StagePreSeed, StageSeriesA, StageSeriesB}
	knownIndustryLabels = []string{IndustrySaaS, IndustryCommerce, IndustryBioHC, IndustryDeepTech}

	titleCaser = cases.Title(language.English)
)

// CanonicalStageLabel maps a declared stage label onto the weight
// table's canonical form, tolerating casing and minor spelling drift.
// Unrecognized labels return the empty string, which callers treat as
// "use the default table".
func CanonicalStageLabel(label string) string {
	return canonicalLabel(label, knownStageLabels)
}

// CanonicalIndustryLabel is the industry counterpart of
// CanonicalStageLabel.
func CanonicalIndustryLabel(label string) string {
	return canonicalLabel(label, knownIndustryLabels)
}

func canonicalLabel(label string, known []string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return ""
	}

	for _, k := range known {
		if strings.EqualFold(trimmed, k) {
			return k
		}
	}

	// Retry after normalizing case and collapsing separators, then
	// accept near-misses within a small edit distance.
	normalized := normalizeLabel(trimmed)
	best := ""
	bestDist := maxLabelDistance + 1
	for _, k := range known {
		d := levenshtein.ComputeDistance(normalized, normalizeLabel(k))
		if d < bestDist {
			best = k
			bestDist = d
		}
	}
	if bestDist <= maxLabelDistance {
		return best
	}
	return ""
}

// normalizeLabel lowers a label onto a comparison form: title-cased
// words, no separators.
func normalizeLabel(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ", "+", " plus").Replace(s)
	s = titleCaser.String(strings.ToLower(s))
	return strings.ReplaceAll(s, " ", "")
}
