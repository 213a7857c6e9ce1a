package domain

import (
	"errors"
	"strings"
)

// Difficulty is the catalog difficulty of a topic.
type Difficulty string

// Possible difficulty values
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

const (
	// DefaultEstimatedMinutes is the duration given to topics with no catalog data.
	DefaultEstimatedMinutes = 30

	// SyntheticIDPrefix marks topic ids that were generated rather than catalogued.
	SyntheticIDPrefix = "syn-"
)

// Common validation errors for catalog entities
var (
	ErrEmptyTopicID      = errors.New("topic ID cannot be empty")
	ErrEmptyTopicName    = errors.New("topic name cannot be empty")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrEmptyModuleName   = errors.New("module name cannot be empty")
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
)

// Tier maps a difficulty onto the 1..5 scale used for point multipliers.
func (d Difficulty) Tier() int {
	switch d {
	case DifficultyIntermediate:
		return 3
	case DifficultyAdvanced:
		return 5
	default:
		return 1
	}
}

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Topic is a learning unit in the catalog.
// Synthetic topics are placeholders produced when a reference matches no
// catalog entry; they share the shape of real topics but are never persisted
// to the catalog.
type Topic struct {
	ID               string     `json:"id" yaml:"id"`
	Name             string     `json:"name" yaml:"name"`
	CategoryName     string     `json:"category_name" yaml:"-"`
	ModuleName       string     `json:"module_name" yaml:"-"`
	Difficulty       Difficulty `json:"difficulty" yaml:"difficulty"`
	EstimatedMinutes int        `json:"estimated_minutes" yaml:"estimated_minutes"`
	Position         int        `json:"position" yaml:"-"`
	Synthetic        bool       `json:"synthetic,omitempty" yaml:"-"`
}

// IsSyntheticID reports whether id was produced by topic synthesis.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}

// Validate checks that a catalog topic is well formed.
func (t *Topic) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyTopicID
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyTopicName
	}
	if !t.Difficulty.Valid() {
		return ErrInvalidDifficulty
	}
	return nil
}

// Module groups topics inside a category. Its name is the key topics refer to
// through ModuleName. When LinearGating is set, topics after the current one
// stay locked until it is learned.
type Module struct {
	Name         string `json:"name" yaml:"name"`
	CategoryName string `json:"category_name" yaml:"-"`
	Position     int    `json:"position" yaml:"-"`
	LinearGating bool   `json:"linear_gating" yaml:"linear_gating"`
}

// Validate checks that a module is well formed.
func (m *Module) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyModuleName
	}
	if strings.TrimSpace(m.CategoryName) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}

// Category is the top level of the learning path.
type Category struct {
	Name         string `json:"name" yaml:"name"`
	Position     int    `json:"position" yaml:"-"`
	LinearGating bool   `json:"linear_gating" yaml:"linear_gating"`
}
