package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MasteryLevel is the ordered proficiency tier of a user on a topic.
type MasteryLevel string

// Mastery levels, lowest first.
const (
	MasteryNotStarted MasteryLevel = "not_started"
	MasteryBeginner   MasteryLevel = "beginner"
	MasteryPracticing MasteryLevel = "practicing"
	MasteryProficient MasteryLevel = "proficient"
	MasteryMastered   MasteryLevel = "mastered"
)

var masteryRank = map[MasteryLevel]int{
	MasteryNotStarted: 0,
	MasteryBeginner:   1,
	MasteryPracticing: 2,
	MasteryProficient: 3,
	MasteryMastered:   4,
}

// ParseMasteryLevel converts s into a MasteryLevel.
func ParseMasteryLevel(s string) (MasteryLevel, error) {
	l := MasteryLevel(s)
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMasteryLevel, s)
	}
	return l, nil
}

// Valid reports whether l is a known level.
func (l MasteryLevel) Valid() bool {
	_, ok := masteryRank[l]
	return ok
}

// Rank returns the position of l in the mastery order. Unknown levels rank
// below NotStarted.
func (l MasteryLevel) Rank() int {
	r, ok := masteryRank[l]
	if !ok {
		return -1
	}
	return r
}

// AtLeast reports whether l is the same tier as other or above it.
func (l MasteryLevel) AtLeast(other MasteryLevel) bool {
	return l.Rank() >= other.Rank()
}

// MaxMastery returns the higher of a and b.
func MaxMastery(a, b MasteryLevel) MasteryLevel {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// UserProgress is the per-user, per-topic training state.
// AccuracyRate is derived from the cumulative counters and is never written
// independently of them.
type UserProgress struct {
	UserID           uuid.UUID    `json:"user_id"`
	TopicID          string       `json:"topic_id"`
	KnowledgeLearned bool         `json:"knowledge_learned"`
	MasteryLevel     MasteryLevel `json:"mastery_level"`
	TrainingCount    int          `json:"training_count"`
	CorrectAnswers   int          `json:"correct_answers"`
	TotalQuestions   int          `json:"total_questions"`
	AccuracyRate     int          `json:"accuracy_rate"`
	BestScore        int          `json:"best_score"`
	LastTrainedDate  *time.Time   `json:"last_trained_date,omitempty"`
	CreatedAt        time.Time    `json:"created_at,omitempty"`
	UpdatedAt        time.Time    `json:"updated_at,omitempty"`
}

// NewUserProgress returns the default progress for a user and topic: not
// learned and not started. Callers read it like any stored row.
func NewUserProgress(userID uuid.UUID, topicID string) *UserProgress {
	return &UserProgress{
		UserID:       userID,
		TopicID:      topicID,
		MasteryLevel: MasteryNotStarted,
	}
}

// Validate checks the counter invariants.
func (p *UserProgress) Validate() error {
	if p.TopicID == "" {
		return ErrEmptyTopicID
	}
	if !p.MasteryLevel.Valid() {
		return ErrInvalidMasteryLevel
	}
	if p.TrainingCount < 0 || p.CorrectAnswers < 0 || p.TotalQuestions < 0 {
		return fmt.Errorf("%w: counters must be non-negative", ErrInvalidProgress)
	}
	if p.CorrectAnswers > p.TotalQuestions {
		return fmt.Errorf("%w: correct answers exceed total questions", ErrInvalidProgress)
	}
	if p.BestScore < 0 || p.BestScore > 100 {
		return fmt.Errorf("%w: best score out of range", ErrInvalidProgress)
	}
	return nil
}

// ProgressPatch describes a change to a progress row. Counter fields are
// increments. There is no accuracy field: accuracy is always recomputed.
type ProgressPatch struct {
	// MarkLearned sets KnowledgeLearned. Learning cannot be undone.
	MarkLearned bool
	// MasteryLevel requests a tier; requests below the current tier are ignored.
	MasteryLevel *MasteryLevel

	AddTrainingCount int
	AddCorrect       int
	AddQuestions     int

	// SessionScore is folded into BestScore with max.
	SessionScore *int
	TrainedAt    *time.Time
}

// Validate checks the patch on its own.
func (pp ProgressPatch) Validate() error {
	if pp.AddTrainingCount < 0 || pp.AddCorrect < 0 || pp.AddQuestions < 0 {
		return fmt.Errorf("%w: increments must be non-negative", ErrInvalidProgress)
	}
	if pp.AddCorrect > pp.AddQuestions {
		return fmt.Errorf("%w: correct increment exceeds question increment", ErrInvalidProgress)
	}
	if pp.SessionScore != nil && (*pp.SessionScore < 0 || *pp.SessionScore > 100) {
		return fmt.Errorf("%w: session score out of range", ErrInvalidProgress)
	}
	if pp.MasteryLevel != nil && !pp.MasteryLevel.Valid() {
		return ErrInvalidMasteryLevel
	}
	return nil
}

// Apply folds patch into p. Mastery only moves forward, BestScore only goes
// up, and AccuracyRate is recomputed from the counters afterwards.
func (p *UserProgress) Apply(patch ProgressPatch, now time.Time) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if !p.MasteryLevel.Valid() {
		p.MasteryLevel = MasteryNotStarted
	}

	if patch.MarkLearned {
		p.KnowledgeLearned = true
		p.MasteryLevel = MaxMastery(p.MasteryLevel, MasteryBeginner)
	}
	if patch.MasteryLevel != nil {
		p.MasteryLevel = MaxMastery(p.MasteryLevel, *patch.MasteryLevel)
	}

	p.TrainingCount += patch.AddTrainingCount
	p.CorrectAnswers += patch.AddCorrect
	p.TotalQuestions += patch.AddQuestions

	if patch.SessionScore != nil && *patch.SessionScore > p.BestScore {
		p.BestScore = *patch.SessionScore
	}
	if patch.TrainedAt != nil {
		t := patch.TrainedAt.UTC()
		p.LastTrainedDate = &t
	}

	p.AccuracyRate = Percent(p.CorrectAnswers, p.TotalQuestions)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now.UTC()
	}
	p.UpdatedAt = now.UTC()

	return p.Validate()
}

// Percent returns round-half-up(n/d*100), or 0 when d is 0.
func Percent(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	return (n*200 + d) / (2 * d)
}

// LeaderboardSort selects the ranking column of the leaderboard.
type LeaderboardSort string

// Leaderboard ranking columns
const (
	SortTotalScore     LeaderboardSort = "total_score"
	SortTotalTrainings LeaderboardSort = "total_trainings"
	SortMasteredTopics LeaderboardSort = "mastered_topics"
)

// Valid reports whether s is a known ranking column.
func (s LeaderboardSort) Valid() bool {
	switch s {
	case SortTotalScore, SortTotalTrainings, SortMasteredTopics:
		return true
	}
	return false
}

// LeaderboardEntry aggregates one user's progress across all topics.
type LeaderboardEntry struct {
	UserID         uuid.UUID `json:"user_id"`
	TotalScore     int       `json:"total_score"`
	TotalTrainings int       `json:"total_trainings"`
	MasteredTopics int       `json:"mastered_topics"`
}
