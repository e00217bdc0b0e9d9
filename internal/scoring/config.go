// Package scoring turns raw stage outputs into weighted, clamped,
// perspective-adjusted scores and categorical recommendations. Every
// function is pure: no I/O, no hidden state, fully table-testable.
package scoring

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Recommendation labels produced by the threshold ladder.
const (
	// RecommendStrong is the top call: take the meeting.
	RecommendStrong = "Recommend"

	// RecommendConditional is the middle call: worth a meeting if the
	// open questions resolve favorably.
	RecommendConditional = "Conditional"

	// RecommendHold is the bottom call.
	RecommendHold = "Hold"
)

// Config carries every scoring constant as a named field. The product
// has gone through several scoring revisions with different gates,
// caps, and mixing weights; keeping them in one validated struct means
// a revision is a config change, not a code hunt.
type Config struct {
	// GateThreshold is the Stage-1 logic score a deck must reach for
	// Stage 2 to run.
	GateThreshold float64 `yaml:"gate_threshold" validate:"min=0,max=100"`

	// LogicWeight, ItemWeight, and AxisWeight mix the three signal
	// sources into the base perspective score. They must sum to 1.
	LogicWeight float64 `yaml:"logic_weight" validate:"min=0,max=1"`
	ItemWeight  float64 `yaml:"item_weight" validate:"min=0,max=1"`
	AxisWeight  float64 `yaml:"axis_weight" validate:"min=0,max=1"`

	// PerspectiveSpread is the fixed offset applied to the base score
	// to derive the critical (−spread) and positive (+spread) views.
	PerspectiveSpread float64 `yaml:"perspective_spread" validate:"min=0,max=50"`

	// ScoreCap bounds every perspective score strictly below 100.
	ScoreCap int `yaml:"score_cap" validate:"min=1,max=99"`

	// StrongThreshold and ConditionalThreshold define the
	// recommendation ladder: >= strong, >= conditional, else hold.
	StrongThreshold      int `yaml:"strong_threshold" validate:"min=0,max=100"`
	ConditionalThreshold int `yaml:"conditional_threshold" validate:"min=0,max=100"`
}

// DefaultConfig returns the constants of the current product revision.
func DefaultConfig() Config {
	return Config{
		GateThreshold:        80,
		LogicWeight:          0.5,
		ItemWeight:           0.3,
		AxisWeight:           0.2,
		PerspectiveSpread:    6,
		ScoreCap:             92,
		StrongThreshold:      80,
		ConditionalThreshold: 70,
	}
}

// Validate checks field bounds and the cross-field invariants the
// struct tags cannot express.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("scoring config: %w", err)
	}
	if sum := c.LogicWeight + c.ItemWeight + c.AxisWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("scoring config: mixing weights must sum to 1, got %.3f", sum)
	}
	if c.ConditionalThreshold > c.StrongThreshold {
		return fmt.Errorf("scoring config: conditional threshold %d above strong threshold %d",
			c.ConditionalThreshold, c.StrongThreshold)
	}
	return nil
}

// Package-level validator for struct tag validation.
var validate = validator.New()
