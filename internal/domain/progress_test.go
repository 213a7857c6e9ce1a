package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func levelPtr(l MasteryLevel) *MasteryLevel { return &l }
func intPtr(i int) *int                     { return &i }

func TestPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n, d int
		want int
	}{
		{"zero total", 0, 0, 0},
		{"zero correct", 0, 5, 0},
		{"exact", 7, 10, 70},
		{"half rounds up", 1, 8, 13},
		{"third rounds down", 1, 3, 33},
		{"two thirds rounds up", 2, 3, 67},
		{"all", 4, 4, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Percent(tc.n, tc.d))
		})
	}
}

func TestUserProgressApply_RecomputesAccuracy(t *testing.T) {
	t.Parallel()

	p := NewUserProgress(uuid.New(), "topic-1")
	now := time.Now()

	require.NoError(t, p.Apply(ProgressPatch{AddTrainingCount: 1, AddCorrect: 7, AddQuestions: 10}, now))
	assert.Equal(t, 70, p.AccuracyRate)

	require.NoError(t, p.Apply(ProgressPatch{AddTrainingCount: 1, AddCorrect: 1, AddQuestions: 5}, now))
	assert.Equal(t, 2, p.TrainingCount)
	assert.Equal(t, 8, p.CorrectAnswers)
	assert.Equal(t, 15, p.TotalQuestions)
	assert.Equal(t, 53, p.AccuracyRate)
}

func TestUserProgressApply_MasteryNeverDecreases(t *testing.T) {
	t.Parallel()

	p := NewUserProgress(uuid.New(), "topic-1")
	now := time.Now()
	sequence := []MasteryLevel{
		MasteryPracticing,
		MasteryBeginner,
		MasteryMastered,
		MasteryNotStarted,
		MasteryProficient,
	}

	prev := p.MasteryLevel
	for _, l := range sequence {
		require.NoError(t, p.Apply(ProgressPatch{MasteryLevel: levelPtr(l)}, now))
		assert.True(t, p.MasteryLevel.AtLeast(prev), "mastery went from %s to %s", prev, p.MasteryLevel)
		prev = p.MasteryLevel
	}
	assert.Equal(t, MasteryMastered, p.MasteryLevel)
}

func TestUserProgressApply_MarkLearned(t *testing.T) {
	t.Parallel()

	p := NewUserProgress(uuid.New(), "topic-1")
	require.NoError(t, p.Apply(ProgressPatch{MarkLearned: true}, time.Now()))
	assert.True(t, p.KnowledgeLearned)
	assert.Equal(t, MasteryBeginner, p.MasteryLevel)

	// Learning again does not lower a higher tier.
	p.MasteryLevel = MasteryProficient
	require.NoError(t, p.Apply(ProgressPatch{MarkLearned: true}, time.Now()))
	assert.Equal(t, MasteryProficient, p.MasteryLevel)
}

func TestUserProgressApply_BestScoreIsMax(t *testing.T) {
	t.Parallel()

	p := NewUserProgress(uuid.New(), "topic-1")
	for _, s := range []int{60, 85, 40} {
		require.NoError(t, p.Apply(ProgressPatch{SessionScore: intPtr(s)}, time.Now()))
	}
	assert.Equal(t, 85, p.BestScore)
}

func TestProgressPatchValidate(t *testing.T) {
	t.Parallel()

	invalid := MasteryLevel("legendary")
	tests := []struct {
		name  string
		patch ProgressPatch
	}{
		{"negative increment", ProgressPatch{AddQuestions: -1}},
		{"correct exceeds questions", ProgressPatch{AddCorrect: 3, AddQuestions: 2}},
		{"score above range", ProgressPatch{SessionScore: intPtr(101)}},
		{"unknown level", ProgressPatch{MasteryLevel: &invalid}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := NewUserProgress(uuid.New(), "topic-1")
			before := *p
			err := p.Apply(tc.patch, time.Now())
			require.Error(t, err)
			assert.Equal(t, before, *p, "rejected patch must not change progress")
		})
	}
}

func TestParseMasteryLevel(t *testing.T) {
	t.Parallel()

	l, err := ParseMasteryLevel("proficient")
	require.NoError(t, err)
	assert.Equal(t, MasteryProficient, l)

	_, err = ParseMasteryLevel("expert")
	assert.ErrorIs(t, err, ErrInvalidMasteryLevel)
}
