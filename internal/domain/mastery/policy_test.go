package mastery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyEvaluate(t *testing.T) {
	t.Parallel()

	policy := DefaultPolicy()
	tests := []struct {
		name     string
		progress domain.UserProgress
		want     domain.MasteryLevel
	}{
		{
			name:     "untrained",
			progress: domain.UserProgress{MasteryLevel: domain.MasteryBeginner},
			want:     domain.MasteryNotStarted,
		},
		{
			name:     "one passing session",
			progress: domain.UserProgress{TrainingCount: 1, BestScore: 70, AccuracyRate: 70},
			want:     domain.MasteryPracticing,
		},
		{
			name:     "proficient needs sessions",
			progress: domain.UserProgress{TrainingCount: 2, BestScore: 95, AccuracyRate: 95},
			want:     domain.MasteryPracticing,
		},
		{
			name:     "proficient",
			progress: domain.UserProgress{TrainingCount: 3, BestScore: 85, AccuracyRate: 75},
			want:     domain.MasteryProficient,
		},
		{
			name:     "mastered",
			progress: domain.UserProgress{TrainingCount: 6, BestScore: 92, AccuracyRate: 88},
			want:     domain.MasteryMastered,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, policy.Evaluate(tc.progress))
		})
	}
}

func TestPolicyNextNeverDemotes(t *testing.T) {
	t.Parallel()

	p := domain.UserProgress{MasteryLevel: domain.MasteryProficient, TrainingCount: 1, BestScore: 61}
	assert.Equal(t, domain.MasteryProficient, DefaultPolicy().Next(p))
}

func TestNewPolicyRejectsBadRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rules []Rule
	}{
		{"not started level", []Rule{{Level: domain.MasteryNotStarted}}},
		{"unknown level", []Rule{{Level: "guru"}}},
		{"score out of range", []Rule{{Level: domain.MasteryMastered, MinBestScore: 120}}},
		{"negative sessions", []Rule{{Level: domain.MasteryMastered, MinSessions: -1}}},
		{"duplicate", []Rule{{Level: domain.MasteryPracticing}, {Level: domain.MasteryPracticing}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewPolicy(tc.rules)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	t.Parallel()

	t.Run("empty path uses defaults", func(t *testing.T) {
		t.Parallel()
		p, err := LoadPolicy("")
		require.NoError(t, err)
		assert.Equal(t, DefaultPolicy().Rules(), p.Rules())
	})

	t.Run("missing file uses defaults", func(t *testing.T) {
		t.Parallel()
		p, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Len(t, p.Rules(), 3)
	})

	t.Run("file table", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "policy.toml")
		content := `
[[rule]]
level = "practicing"
min_best_score = 50

[[rule]]
level = "mastered"
min_best_score = 100
min_sessions = 2
require_learned = true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		p, err := LoadPolicy(path)
		require.NoError(t, err)
		rules := p.Rules()
		require.Len(t, rules, 2)
		assert.Equal(t, domain.MasteryMastered, rules[0].Level)
		assert.True(t, rules[0].RequireLearned)

		assert.Equal(t, domain.MasteryPracticing,
			p.Evaluate(domain.UserProgress{BestScore: 100, TrainingCount: 2}))
		assert.Equal(t, domain.MasteryMastered,
			p.Evaluate(domain.UserProgress{KnowledgeLearned: true, BestScore: 100, TrainingCount: 2}))
	})

	t.Run("malformed file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "policy.toml")
		require.NoError(t, os.WriteFile(path, []byte("[[rule]\nlevel ="), 0o600))
		_, err := LoadPolicy(path)
		assert.Error(t, err)
	})
}
