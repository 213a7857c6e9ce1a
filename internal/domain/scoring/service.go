// Package scoring turns a finished batch of attempts into a 0-100 session
// score and a points award.
package scoring

import (
	"fmt"

	"github.com/phrazzld/lingdou-api/internal/domain"
)

// Result is the outcome of scoring a session.
type Result struct {
	Score        int `json:"score"`
	CorrectCount int `json:"correct_count"`
	// Answered counts attempts that were scored.
	Answered int `json:"answered"`
	// Ungraded counts voice attempts excluded because grading was unavailable.
	Ungraded      int `json:"ungraded"`
	AttemptPoints int `json:"attempt_points"`
	Bonus         int `json:"bonus"`
	PointsEarned  int `json:"points_earned"`
}

// Service defines the interface for session scoring
type Service interface {
	// Score computes the session result. defaultTier is used for attempts
	// that carry no difficulty tier of their own.
	//
	// Returns domain.ErrInvalidSession for an empty batch,
	// domain.ErrGradingUnavailable when no attempt could be scored, and
	// domain.ErrInvalidAttempt for malformed attempts.
	Score(attempts []domain.Attempt, defaultTier int) (*Result, error)
}

type defaultService struct {
	params *Params
}

// NewDefaultService creates a scoring service with default parameters
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scoring service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{params: params}
}

func (s *defaultService) Score(attempts []domain.Attempt, defaultTier int) (*Result, error) {
	if len(attempts) == 0 {
		return nil, fmt.Errorf("%w: no attempts", domain.ErrInvalidSession)
	}
	if defaultTier == 0 {
		defaultTier = s.params.MinTier
	}

	res := &Result{}
	for i, a := range attempts {
		if a.Kind != domain.AttemptChoice && a.Kind != domain.AttemptVoice {
			return nil, fmt.Errorf("%w: attempt %d has kind %q", domain.ErrInvalidAttempt, i, a.Kind)
		}
		tier := a.DifficultyTier
		if tier == 0 {
			tier = defaultTier
		}
		if tier < s.params.MinTier || tier > s.params.MaxTier {
			return nil, fmt.Errorf("%w: attempt %d has tier %d", domain.ErrInvalidAttempt, i, tier)
		}

		if !a.Scorable() {
			res.Ungraded++
			continue
		}
		res.Answered++
		correct := a.IsCorrect()
		if correct {
			res.CorrectCount++
		}
		res.AttemptPoints += attemptPoints(correct, tier, s.params)
	}

	if res.Answered == 0 {
		return nil, fmt.Errorf("%w: none of %d attempts could be graded", domain.ErrGradingUnavailable, len(attempts))
	}

	res.Score = sessionScore(res.CorrectCount, res.Answered)
	res.Bonus = sessionBonus(res.Score, s.params)
	res.PointsEarned = res.AttemptPoints + res.Bonus
	return res, nil
}
