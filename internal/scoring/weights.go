package scoring

import (
	"github.com/vcdesk/deckeval/internal/domain"
)

// Stage labels recognized by the stage weight table.
const (
	StageSeed    = "Seed"
	StagePreSeed = "Pre-Seed"
	StageSeriesA = "Series A"
	StageSeriesB = "Series B+"
)

// Industry labels recognized by the industry weight table.
const (
	IndustrySaaS     = "SaaS"
	IndustryCommerce = "Commerce"
	IndustryBioHC    = "Bio-Healthcare"
	IndustryDeepTech = "DeepTech"
)

// defaultWeights spreads emphasis uniformly across the eight rubric
// items: 1/8 each.
var defaultWeights = map[string]float64{
	domain.ItemProblemDefinition: 0.125,
	domain.ItemSolutionProduct:   0.125,
	domain.ItemMarketAnalysis:    0.125,
	domain.ItemBusinessModel:     0.125,
	domain.ItemCompetition:       0.125,
	domain.ItemGrowthStrategy:    0.125,
	domain.ItemTeam:              0.125,
	domain.ItemFinancialPlan:     0.125,
}

// stageWeights shifts emphasis by maturity stage. Early stages reward
// problem insight and the team; later stages reward the business model
// and growth mechanics. Each row sums to 1.
var stageWeights = map[string]map[string]float64{
	StageSeed: {
		domain.ItemProblemDefinition: 0.18,
		domain.ItemSolutionProduct:   0.18,
		domain.ItemMarketAnalysis:    0.12,
		domain.ItemBusinessModel:     0.10,
		domain.ItemCompetition:       0.08,
		domain.ItemGrowthStrategy:    0.10,
		domain.ItemTeam:              0.16,
		domain.ItemFinancialPlan:     0.08,
	},
	StagePreSeed: {
		domain.ItemProblemDefinition: 0.19,
		domain.ItemSolutionProduct:   0.18,
		domain.ItemMarketAnalysis:    0.12,
		domain.ItemBusinessModel:     0.08,
		domain.ItemCompetition:       0.08,
		domain.ItemGrowthStrategy:    0.10,
		domain.ItemTeam:              0.17,
		domain.ItemFinancialPlan:     0.08,
	},
	StageSeriesA: {
		domain.ItemProblemDefinition: 0.10,
		domain.ItemSolutionProduct:   0.12,
		domain.ItemMarketAnalysis:    0.18,
		domain.ItemBusinessModel:     0.16,
		domain.ItemCompetition:       0.10,
		domain.ItemGrowthStrategy:    0.16,
		domain.ItemTeam:              0.10,
		domain.ItemFinancialPlan:     0.08,
	},
	StageSeriesB: {
		domain.ItemProblemDefinition: 0.08,
		domain.ItemSolutionProduct:   0.10,
		domain.ItemMarketAnalysis:    0.14,
		domain.ItemBusinessModel:     0.20,
		domain.ItemCompetition:       0.14,
		domain.ItemGrowthStrategy:    0.16,
		domain.ItemTeam:              0.08,
		domain.ItemFinancialPlan:     0.10,
	},
}

// industryWeights shifts emphasis by vertical. Each row sums to 1.
var industryWeights = map[string]map[string]float64{
	IndustrySaaS: {
		domain.ItemProblemDefinition: 0.10,
		domain.ItemSolutionProduct:   0.12,
		domain.ItemMarketAnalysis:    0.18,
		domain.ItemBusinessModel:     0.18,
		domain.ItemCompetition:       0.14,
		domain.ItemGrowthStrategy:    0.14,
		domain.ItemTeam:              0.08,
		domain.ItemFinancialPlan:     0.06,
	},
	IndustryCommerce: {
		domain.ItemProblemDefinition: 0.10,
		domain.ItemSolutionProduct:   0.10,
		domain.ItemMarketAnalysis:    0.18,
		domain.ItemBusinessModel:     0.20,
		domain.ItemCompetition:       0.12,
		domain.ItemGrowthStrategy:    0.16,
		domain.ItemTeam:              0.08,
		domain.ItemFinancialPlan:     0.06,
	},
	IndustryBioHC: {
		domain.ItemProblemDefinition: 0.16,
		domain.ItemSolutionProduct:   0.18,
		domain.ItemMarketAnalysis:    0.12,
		domain.ItemBusinessModel:     0.10,
		domain.ItemCompetition:       0.10,
		domain.ItemGrowthStrategy:    0.10,
		domain.ItemTeam:              0.14,
		domain.ItemFinancialPlan:     0.10,
	},
	IndustryDeepTech: {
		domain.ItemProblemDefinition: 0.14,
		domain.ItemSolutionProduct:   0.20,
		domain.ItemMarketAnalysis:    0.12,
		domain.ItemBusinessModel:     0.10,
		domain.ItemCompetition:       0.12,
		domain.ItemGrowthStrategy:    0.10,
		domain.ItemTeam:              0.14,
		domain.ItemFinancialPlan:     0.08,
	},
}

// BlendWeights computes the effective rubric weights for a stage and
// industry label pair. The effective weight of each item is the
// arithmetic mean of the default, stage-table, and industry-table
// values, renormalized to sum to 1. Unrecognized labels fall back to
// the default table for that axis, so the default emphasis is never
// fully discarded.
func BlendWeights(stageLabel, industryLabel string) map[string]float64 {
	stage, ok := stageWeights[CanonicalStageLabel(stageLabel)]
	if !ok {
		stage = defaultWeights
	}
	industry, ok := industryWeights[CanonicalIndustryLabel(industryLabel)]
	if !ok {
		industry = defaultWeights
	}

	blended := make(map[string]float64, len(domain.RubricItems))
	total := 0.0
	for _, key := range domain.RubricItems {
		w := (defaultWeights[key] + stage[key] + industry[key]) / 3.0
		blended[key] = w
		total += w
	}
	if total == 0 {
		total = 1
	}
	for key := range blended {
		blended[key] /= total
	}
	return blended
}
