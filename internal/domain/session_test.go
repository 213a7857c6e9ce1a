package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttemptCorrectness(t *testing.T) {
	t.Parallel()

	passed := GradeResult{Passed: true}
	failed := GradeResult{Passed: false}
	unavailable := UnavailableGrade()

	tests := []struct {
		name     string
		attempt  Attempt
		scorable bool
		correct  bool
	}{
		{"choice correct", Attempt{Kind: AttemptChoice, Correct: true}, true, true},
		{"choice wrong", Attempt{Kind: AttemptChoice}, true, false},
		{"voice passed", Attempt{Kind: AttemptVoice, Grade: &passed}, true, true},
		{"voice failed", Attempt{Kind: AttemptVoice, Grade: &failed}, true, false},
		{"voice ignores client flag", Attempt{Kind: AttemptVoice, Correct: true, Grade: &failed}, true, false},
		{"voice ungraded", Attempt{Kind: AttemptVoice}, false, false},
		{"voice unavailable", Attempt{Kind: AttemptVoice, Grade: &unavailable}, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.scorable, tc.attempt.Scorable())
			assert.Equal(t, tc.correct, tc.attempt.IsCorrect())
		})
	}
}

func TestUnavailableGradeZeroesRubric(t *testing.T) {
	t.Parallel()

	g := UnavailableGrade()
	assert.False(t, g.Passed)
	assert.True(t, g.Unavailable)
	assert.Len(t, g.Rubric, len(RubricDimensions))
	for _, d := range RubricDimensions {
		assert.Zero(t, g.Rubric[d], d)
	}
}

func TestDifficultyTier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, DifficultyBeginner.Tier())
	assert.Equal(t, 3, DifficultyIntermediate.Tier())
	assert.Equal(t, 5, DifficultyAdvanced.Tier())
	assert.Equal(t, 1, Difficulty("").Tier())
}
