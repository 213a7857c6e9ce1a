package memory

import (
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
)

type progressKey struct {
	userID  uuid.UUID
	topicID string
}

type accountKey struct {
	userID   uuid.UUID
	currency domain.Currency
}

type state struct {
	categories map[string]domain.Category
	modules    map[string]domain.Module
	topics     map[string]domain.Topic

	progress map[progressKey]domain.UserProgress
	sessions map[uuid.UUID]domain.TrainingSession

	accounts     map[accountKey]domain.LedgerAccount
	transactions []domain.LedgerTransaction
	seq          int64

	products  map[string]domain.Product
	exchanges []domain.Exchange
}

func newState() *state {
	return &state{
		categories: map[string]domain.Category{},
		modules:    map[string]domain.Module{},
		topics:     map[string]domain.Topic{},
		progress:   map[progressKey]domain.UserProgress{},
		sessions:   map[uuid.UUID]domain.TrainingSession{},
		accounts:   map[accountKey]domain.LedgerAccount{},
		products:   map[string]domain.Product{},
	}
}

// clone copies every table. Stored values are never mutated in place, so a
// shallow copy of each map and slice is a full snapshot.
func (s *state) clone() *state {
	return &state{
		categories:   maps.Clone(s.categories),
		modules:      maps.Clone(s.modules),
		topics:       maps.Clone(s.topics),
		progress:     maps.Clone(s.progress),
		sessions:     maps.Clone(s.sessions),
		accounts:     maps.Clone(s.accounts),
		transactions: slices.Clone(s.transactions),
		seq:          s.seq,
		products:     maps.Clone(s.products),
		exchanges:    slices.Clone(s.exchanges),
	}
}
