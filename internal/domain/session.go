package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AttemptKind distinguishes how an attempt's correctness is decided.
type AttemptKind string

// Attempt kinds
const (
	// AttemptChoice is a multiple-choice answer; correctness comes from the option.
	AttemptChoice AttemptKind = "choice"
	// AttemptVoice is a free-text answer judged by the external grader.
	AttemptVoice AttemptKind = "voice"
)

// Rubric dimensions reported by the grader, each scored 1..5.
const (
	RubricProblemUnderstanding = "problem_understanding"
	RubricPrincipleApplication = "principle_application"
	RubricKnowledgeMastery     = "knowledge_mastery"
	RubricLogicalCoherence     = "logical_coherence"
	RubricFluency              = "fluency"
)

// RubricDimensions lists every rubric dimension in display order.
var RubricDimensions = []string{
	RubricProblemUnderstanding,
	RubricPrincipleApplication,
	RubricKnowledgeMastery,
	RubricLogicalCoherence,
	RubricFluency,
}

// Common validation errors for sessions
var (
	ErrEmptySessionID     = errors.New("session ID cannot be empty")
	ErrEmptySessionUserID = errors.New("session user ID cannot be empty")
)

// GradeResult is the grader's verdict on one free-text answer.
// An Unavailable result carries zero rubric scores and counts as neither a
// pass nor a fail.
type GradeResult struct {
	Passed      bool           `json:"passed"`
	Rubric      map[string]int `json:"rubric"`
	Comment     string         `json:"comment"`
	Strength    string         `json:"strength"`
	Weakness    string         `json:"weakness"`
	Unavailable bool           `json:"unavailable,omitempty"`
}

// UnavailableGrade is the neutral result used when grading could not run.
func UnavailableGrade() GradeResult {
	rubric := make(map[string]int, len(RubricDimensions))
	for _, d := range RubricDimensions {
		rubric[d] = 0
	}
	return GradeResult{
		Rubric:      rubric,
		Comment:     "The answer could not be evaluated right now, please retry.",
		Unavailable: true,
	}
}

// Attempt is one answered question inside a session.
type Attempt struct {
	QuestionID string      `json:"question_id"`
	Kind       AttemptKind `json:"kind"`
	// Correct is authoritative for choice attempts.
	Correct bool `json:"correct"`
	// DifficultyTier is 1..5; 0 means the topic's default tier.
	DifficultyTier int `json:"difficulty_tier"`

	// Voice attempts carry the material the grader needs.
	QuestionText string `json:"question_text,omitempty"`
	ModelAnswer  string `json:"model_answer,omitempty"`
	AnswerText   string `json:"answer_text,omitempty"`

	// Grade is filled in for voice attempts once grading has run.
	Grade *GradeResult `json:"grade,omitempty"`
}

// Scorable reports whether the attempt counts toward the session score.
// Voice attempts without a usable grade are excluded.
func (a Attempt) Scorable() bool {
	if a.Kind == AttemptVoice {
		return a.Grade != nil && !a.Grade.Unavailable
	}
	return true
}

// IsCorrect resolves correctness for either attempt kind.
func (a Attempt) IsCorrect() bool {
	if a.Kind == AttemptVoice {
		return a.Grade != nil && !a.Grade.Unavailable && a.Grade.Passed
	}
	return a.Correct
}

// TrainingSession is the immutable record of one finished session.
type TrainingSession struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	TopicID           string    `json:"topic_id"`
	QuestionsAnswered int       `json:"questions_answered"`
	CorrectCount      int       `json:"correct_count"`
	TotalScore        int       `json:"total_score"`
	PointsEarned      int       `json:"points_earned"`
	CompletionDate    time.Time `json:"completion_date"`
}

// Validate checks that the record is well formed.
func (s *TrainingSession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySessionID
	}
	if s.UserID == uuid.Nil {
		return ErrEmptySessionUserID
	}
	if s.TopicID == "" {
		return ErrEmptyTopicID
	}
	if s.QuestionsAnswered <= 0 {
		return ErrInvalidSession
	}
	if s.CorrectCount < 0 || s.CorrectCount > s.QuestionsAnswered {
		return ErrInvalidSession
	}
	if s.TotalScore < 0 || s.TotalScore > 100 {
		return ErrInvalidSession
	}
	return nil
}
