package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Rubric item keys for the eight fixed Stage-1 sub-evaluations.
// The set and order are fixed; weight tables and reports iterate
// RubricItems, never the map returned by the model.
const (
	ItemProblemDefinition = "problem_definition"
	ItemSolutionProduct   = "solution_product"
	ItemMarketAnalysis    = "market_analysis"
	ItemBusinessModel     = "business_model"
	ItemCompetition       = "competition"
	ItemGrowthStrategy    = "growth_strategy"
	ItemTeam              = "team"
	ItemFinancialPlan     = "financial_plan"
)

// RubricItems lists the Stage-1 rubric items in report order.
var RubricItems = []string{
	ItemProblemDefinition,
	ItemSolutionProduct,
	ItemMarketAnalysis,
	ItemBusinessModel,
	ItemCompetition,
	ItemGrowthStrategy,
	ItemTeam,
	ItemFinancialPlan,
}

// Score is a numeric score field as returned by the model. The model
// occasionally emits numbers as strings or omits them entirely, so
// decoding tolerates numbers, numeric strings, and null, substituting
// zero for anything else. Consumers therefore never see a decode
// failure for a sloppy score field.
type Score float64

// UnmarshalJSON decodes a score from a JSON number, a numeric string,
// or null. Non-numeric values decode to zero rather than failing.
func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Score(n)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
			*s = Score(v)
			return nil
		}
	}

	*s = 0
	return nil
}

// Float returns the score as a plain float64.
func (s Score) Float() float64 { return float64(s) }

// ItemEvaluation is the model's judgment of a single rubric item.
type ItemEvaluation struct {
	// Score is the item score on a 0-10 scale.
	Score Score `json:"score"`

	// Comment is the evaluator's assessment of the item.
	Comment string `json:"comment"`

	// Feedback is the actionable improvement guidance for the item.
	Feedback string `json:"feedback"`
}

// Stage1Result is the parsed output of the absolute (gate) stage.
// Fields the model omits decode to their zero values; downstream code
// treats missing values as defaults rather than errors.
type Stage1Result struct {
	CompanyName    string `json:"company_name"`
	OneLineSummary string `json:"one_line_summary"`
	OverallSummary string `json:"overall_summary"`

	// LogicScore is the primary 0-100 score driving the gate decision.
	LogicScore Score `json:"logic_score"`

	// PassGate reports whether the deck cleared the absolute bar.
	// The orchestrator recomputes this from LogicScore and the
	// configured gate threshold; the model's own claim is ignored.
	PassGate bool `json:"pass_gate"`

	// ItemEvaluations holds the eight rubric item judgments keyed by
	// the RubricItems constants.
	ItemEvaluations map[string]ItemEvaluation `json:"item_evaluations"`

	// Strengths and Weaknesses group bullet lists under market, team,
	// and product headings.
	Strengths  map[string][]string `json:"strengths"`
	Weaknesses map[string][]string `json:"weaknesses"`

	// RedFlags is a flat list of disqualifying observations.
	RedFlags []string `json:"red_flags"`

	// Verdict optionally carries a model-declared final call. It is
	// honored only when it matches a recognized recommendation label.
	Verdict string `json:"verdict,omitempty"`

	// VerdictException, when non-empty, names the override the
	// evaluator invoked to promote Verdict above the numeric ladder.
	// The tag is trusted as-is and never synthesized locally.
	VerdictException string `json:"verdict_exception,omitempty"`
}

// Stage2Result is the parsed output of the relative-fit stage: three
// axis sub-scores with commentary and validation questions per axis.
type Stage2Result struct {
	// StageLabel is the declared maturity stage
	// (Seed, Pre-Seed, Series A, Series B+).
	StageLabel string `json:"stage_label"`

	// IndustryLabel is the declared vertical
	// (SaaS, Commerce, Bio-Healthcare, DeepTech).
	IndustryLabel string `json:"industry_label"`

	// Axis sub-scores on a 0-10 scale.
	StageScore    Score `json:"stage_score"`
	IndustryScore Score `json:"industry_score"`
	BMScore       Score `json:"bm_score"`

	// AxisComments keys free-text commentary by axis
	// ("stage", "industry", "bm").
	AxisComments map[string]string `json:"axis_comments"`

	// ValidationQuestions keys due-diligence questions by axis.
	ValidationQuestions map[string][]string `json:"validation_questions"`
}

// Stage2Outcome makes the gate decision explicit in the type system:
// either Stage 2 ran and produced a result, or the deck was rejected
// at the gate and no relative-fit data exists. Using a tagged value
// instead of a nullable pointer keeps every consumer honest about the
// ungated case.
type Stage2Outcome struct {
	gated  bool
	result Stage2Result
}

// GatedOutcome wraps a Stage2Result for a deck that cleared the gate.
func GatedOutcome(result Stage2Result) Stage2Outcome {
	return Stage2Outcome{gated: true, result: result}
}

// UngatedOutcome marks a deck that failed the gate; Stage 2 never ran.
func UngatedOutcome() Stage2Outcome { return Stage2Outcome{} }

// Gated reports whether Stage 2 ran.
func (o Stage2Outcome) Gated() bool { return o.gated }

// Result returns the Stage2Result and whether one exists.
func (o Stage2Outcome) Result() (Stage2Result, bool) {
	return o.result, o.gated
}

// stage2OutcomeJSON is the persisted shape of a Stage2Outcome.
type stage2OutcomeJSON struct {
	Gated  bool          `json:"gated"`
	Result *Stage2Result `json:"result,omitempty"`
}

// MarshalJSON encodes the outcome with an explicit gate tag so cached
// records round-trip without conflating "ungated" with "empty result".
func (o Stage2Outcome) MarshalJSON() ([]byte, error) {
	out := stage2OutcomeJSON{Gated: o.gated}
	if o.gated {
		r := o.result
		out.Result = &r
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the tagged outcome shape.
func (o *Stage2Outcome) UnmarshalJSON(data []byte) error {
	var in stage2OutcomeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decoding stage2 outcome: %w", err)
	}
	if !in.Gated || in.Result == nil {
		*o = Stage2Outcome{}
		return nil
	}
	*o = Stage2Outcome{gated: true, result: *in.Result}
	return nil
}
