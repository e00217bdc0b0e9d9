package scoring

import (
	"math"
	"strings"

	"github.com/vcdesk/deckeval/internal/domain"
)

// itemScoreScale is the per-item scale; weighted item scores are
// re-expressed on the 0-100 scale before mixing.
const itemScoreScale = 10.0

// axisScoreTotal is the maximum combined Stage-2 axis score
// (three axes, 0-10 each).
const axisScoreTotal = 30.0

// WeightedItemScore folds the eight rubric item scores through the
// blended weight table and rescales the result to 0-100. Raw item
// scores are clamped to the 0-10 item scale first, so adversarial
// model output (negative, overflowing) cannot push the result out of
// range. Missing items contribute zero.
func WeightedItemScore(stage1 domain.Stage1Result, stage2 domain.Stage2Outcome) float64 {
	stageLabel, industryLabel := "", ""
	if res, ok := stage2.Result(); ok {
		stageLabel = res.StageLabel
		industryLabel = res.IndustryLabel
	}
	weights := BlendWeights(stageLabel, industryLabel)

	total := 0.0
	for _, key := range domain.RubricItems {
		item := stage1.ItemEvaluations[key]
		total += clamp(item.Score.Float(), 0, itemScoreScale) * weights[key]
	}
	return clamp(total, 0, itemScoreScale) * 10.0
}

// axisScore normalizes the three Stage-2 axis sub-scores onto 0-100.
// An ungated outcome contributes zero; axis scores are never
// fabricated for decks that failed the gate.
func axisScore(stage2 domain.Stage2Outcome) float64 {
	res, ok := stage2.Result()
	if !ok {
		return 0
	}
	sum := clamp(res.StageScore.Float(), 0, itemScoreScale) +
		clamp(res.IndustryScore.Float(), 0, itemScoreScale) +
		clamp(res.BMScore.Float(), 0, itemScoreScale)
	return sum / axisScoreTotal * 100.0
}

// PerspectiveScores derives the critical, neutral, and positive views.
// The neutral view is the configured mix of the logic score, the
// weighted item score, and the normalized axis score; the critical and
// positive views sit a fixed spread below and above it. Every view is
// rounded to an integer and clamped to [0, cap].
func PerspectiveScores(cfg Config, stage1 domain.Stage1Result, stage2 domain.Stage2Outcome) domain.PerspectiveScores {
	logic := clamp(stage1.LogicScore.Float(), 0, 100)
	base := cfg.LogicWeight*logic +
		cfg.ItemWeight*WeightedItemScore(stage1, stage2) +
		cfg.AxisWeight*axisScore(stage2)

	return domain.PerspectiveScores{
		Critical: clampInt(int(math.Round(base-cfg.PerspectiveSpread)), 0, cfg.ScoreCap),
		Neutral:  clampInt(int(math.Round(base)), 0, cfg.ScoreCap),
		Positive: clampInt(int(math.Round(base+cfg.PerspectiveSpread)), 0, cfg.ScoreCap),
	}
}

// RecommendationFor applies the threshold ladder to one score.
func RecommendationFor(cfg Config, score int) string {
	switch {
	case score >= cfg.StrongThreshold:
		return RecommendStrong
	case score >= cfg.ConditionalThreshold:
		return RecommendConditional
	default:
		return RecommendHold
	}
}

// DeriveRecommendations applies the ladder to each perspective view.
func DeriveRecommendations(cfg Config, scores domain.PerspectiveScores) domain.Recommendations {
	return domain.Recommendations{
		Critical: RecommendationFor(cfg, scores.Critical),
		Neutral:  RecommendationFor(cfg, scores.Neutral),
		Positive: RecommendationFor(cfg, scores.Positive),
	}
}

// FinalVerdict derives the single final call for a record.
//
// Precedence: a model-declared verdict matching a recognized label is
// used directly when the evaluator flagged an explicit exception; the
// promotion is trusted, never second-guessed. A recognized declared
// verdict without an exception tag is also honored, but only if it
// does not promote the deck above the numeric ladder. In every other
// case the ladder over the critical perspective score decides.
func FinalVerdict(cfg Config, stage1 domain.Stage1Result, scores domain.PerspectiveScores) string {
	ladder := RecommendationFor(cfg, scores.Critical)

	declared, recognized := recognizedVerdict(stage1.Verdict)
	if !recognized {
		return ladder
	}
	if stage1.VerdictException != "" {
		return declared
	}
	if verdictRank(declared) > verdictRank(ladder) {
		// Upgrades require an explicit exception tag.
		return ladder
	}
	return declared
}

// recognizedVerdict checks a declared verdict against the label enum,
// tolerating case drift.
func recognizedVerdict(v string) (string, bool) {
	for _, label := range []string{RecommendStrong, RecommendConditional, RecommendHold} {
		if strings.EqualFold(v, label) {
			return label, true
		}
	}
	return "", false
}

func verdictRank(v string) int {
	switch v {
	case RecommendStrong:
		return 2
	case RecommendConditional:
		return 1
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
