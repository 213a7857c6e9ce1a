package scoring

// sessionScore returns round-half-up(correct/total*100). total must be positive.
func sessionScore(correct, total int) int {
	return (correct*200 + total) / (2 * total)
}

// attemptPoints returns the points for one attempt, rounded half up.
// The multiplier is kept in integer percent so x.5 cases round exactly.
func attemptPoints(correct bool, tier int, params *Params) int {
	base := params.IncorrectPoints
	if correct {
		base = params.CorrectPoints
	}
	percent := 100 + (tier-1)*params.TierStepPercent
	return (base*percent*2 + 100) / 200
}

// sessionBonus returns the first bonus whose threshold the score reaches.
func sessionBonus(score int, params *Params) int {
	for _, step := range params.Bonuses {
		if score >= step.MinScore {
			return step.Points
		}
	}
	return 0
}
