// Package mastery holds the score-gated promotion table that moves a user
// through the mastery tiers after training sessions.
package mastery

import (
	"errors"
	"fmt"
	"sort"

	"github.com/phrazzld/lingdou-api/internal/domain"
)

// ErrInvalidRule is returned when a policy rule is malformed.
var ErrInvalidRule = errors.New("invalid mastery rule")

// Rule is the set of thresholds a progress row must meet to reach Level.
// Zero thresholds are not checked.
type Rule struct {
	Level        domain.MasteryLevel `toml:"level"`
	MinBestScore int                 `toml:"min_best_score"`
	MinSessions  int                 `toml:"min_sessions"`
	MinAccuracy  int                 `toml:"min_accuracy"`
	// RequireLearned gates the rule on the topic's knowledge being learned.
	RequireLearned bool `toml:"require_learned"`
}

func (r Rule) validate() error {
	if !r.Level.Valid() || r.Level == domain.MasteryNotStarted {
		return fmt.Errorf("%w: level %q", ErrInvalidRule, r.Level)
	}
	for _, v := range []int{r.MinBestScore, r.MinAccuracy} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%w: %s threshold %d out of range", ErrInvalidRule, r.Level, v)
		}
	}
	if r.MinSessions < 0 {
		return fmt.Errorf("%w: %s min sessions negative", ErrInvalidRule, r.Level)
	}
	return nil
}

func (r Rule) satisfiedBy(p domain.UserProgress) bool {
	if r.RequireLearned && !p.KnowledgeLearned {
		return false
	}
	return p.BestScore >= r.MinBestScore &&
		p.TrainingCount >= r.MinSessions &&
		p.AccuracyRate >= r.MinAccuracy
}

// Policy evaluates progress against an ordered rule table.
type Policy struct {
	rules []Rule
}

// NewPolicy builds a policy from rules. Each level may appear at most once.
func NewPolicy(rules []Rule) (*Policy, error) {
	seen := make(map[domain.MasteryLevel]bool, len(rules))
	sorted := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if err := r.validate(); err != nil {
			return nil, err
		}
		if seen[r.Level] {
			return nil, fmt.Errorf("%w: duplicate level %q", ErrInvalidRule, r.Level)
		}
		seen[r.Level] = true
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Level.Rank() > sorted[j].Level.Rank()
	})
	return &Policy{rules: sorted}, nil
}

// DefaultRules is the table used when no policy file is configured.
func DefaultRules() []Rule {
	return []Rule{
		{Level: domain.MasteryPracticing, MinBestScore: 60, MinSessions: 1},
		{Level: domain.MasteryProficient, MinBestScore: 80, MinSessions: 3, MinAccuracy: 70},
		{Level: domain.MasteryMastered, MinBestScore: 90, MinSessions: 5, MinAccuracy: 85},
	}
}

// DefaultPolicy returns a policy over DefaultRules.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultRules())
	if err != nil {
		// ALLOW-PANIC: the built-in table is static
		panic(err)
	}
	return p
}

// Rules returns a copy of the table, highest level first.
func (p *Policy) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Evaluate returns the highest level whose rule the progress satisfies, or
// NotStarted when none do.
func (p *Policy) Evaluate(progress domain.UserProgress) domain.MasteryLevel {
	for _, r := range p.rules {
		if r.satisfiedBy(progress) {
			return r.Level
		}
	}
	return domain.MasteryNotStarted
}

// Next returns the level progress should hold after evaluation. It never
// returns a level below the current one.
func (p *Policy) Next(progress domain.UserProgress) domain.MasteryLevel {
	return domain.MaxMastery(progress.MasteryLevel, p.Evaluate(progress))
}
