package scoring

import "sort"

// BonusStep awards Points once per session when the session score is at
// least MinScore.
type BonusStep struct {
	MinScore int
	Points   int
}

// Params defines all configurable parameters for session scoring
type Params struct {
	// Base points per attempt
	CorrectPoints   int
	IncorrectPoints int

	// Difficulty multiplier: 1 + (tier-1) * TierStepPercent/100
	TierStepPercent int
	MinTier         int
	MaxTier         int

	// Session bonus table, highest MinScore first
	Bonuses []BonusStep
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	CorrectPoints   int
	IncorrectPoints int
	TierStepPercent int
	Bonuses         []BonusStep
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		CorrectPoints:   10,
		IncorrectPoints: 5,
		TierStepPercent: 10,
		MinTier:         1,
		MaxTier:         5,
		Bonuses: []BonusStep{
			{MinScore: 90, Points: 20},
			{MinScore: 80, Points: 15},
			{MinScore: 70, Points: 10},
			{MinScore: 60, Points: 5},
		},
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.CorrectPoints > 0 {
		params.CorrectPoints = config.CorrectPoints
	}
	if config.IncorrectPoints > 0 {
		params.IncorrectPoints = config.IncorrectPoints
	}
	if config.TierStepPercent > 0 {
		params.TierStepPercent = config.TierStepPercent
	}
	if len(config.Bonuses) > 0 {
		bonuses := make([]BonusStep, len(config.Bonuses))
		copy(bonuses, config.Bonuses)
		sort.Slice(bonuses, func(i, j int) bool {
			return bonuses[i].MinScore > bonuses[j].MinScore
		})
		params.Bonuses = bonuses
	}

	return params
}
