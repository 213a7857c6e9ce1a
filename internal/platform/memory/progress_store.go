package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// ProgressStore implements store.ProgressStore in memory.
type ProgressStore struct {
	db db
}

var _ store.ProgressStore = (*ProgressStore)(nil)

// ListByUser implements store.ProgressStore.ListByUser
func (s *ProgressStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UserProgress, error) {
	defer s.db.lock()()

	out := []domain.UserProgress{}
	for k, p := range s.db.state().progress {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.UserProgress) int { return cmp.Compare(a.TopicID, b.TopicID) })
	return out, nil
}

// GetForUpdate implements store.ProgressStore.GetForUpdate. Rows are
// already exclusive inside UnitOfWork.Do.
func (s *ProgressStore) GetForUpdate(
	ctx context.Context,
	userID uuid.UUID,
	topicID string,
) (*domain.UserProgress, error) {
	defer s.db.lock()()

	p, ok := s.db.state().progress[progressKey{userID, topicID}]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	return &p, nil
}

// Save implements store.ProgressStore.Save
func (s *ProgressStore) Save(ctx context.Context, p *domain.UserProgress) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	defer s.db.lock()()

	s.db.state().progress[progressKey{p.UserID, p.TopicID}] = *p
	return nil
}

// Leaderboard implements store.ProgressStore.Leaderboard
func (s *ProgressStore) Leaderboard(
	ctx context.Context,
	sortBy domain.LeaderboardSort,
	limit int,
) ([]domain.LeaderboardEntry, error) {
	if !sortBy.Valid() {
		return nil, fmt.Errorf("%w: unknown leaderboard sort %q", store.ErrInvalidEntity, sortBy)
	}
	defer s.db.lock()()

	byUser := map[uuid.UUID]*domain.LeaderboardEntry{}
	for k, p := range s.db.state().progress {
		e, ok := byUser[k.userID]
		if !ok {
			e = &domain.LeaderboardEntry{UserID: k.userID}
			byUser[k.userID] = e
		}
		e.TotalScore += p.BestScore
		e.TotalTrainings += p.TrainingCount
		if p.MasteryLevel == domain.MasteryMastered {
			e.MasteredTopics++
		}
	}

	key := func(e domain.LeaderboardEntry) int {
		switch sortBy {
		case domain.SortTotalTrainings:
			return e.TotalTrainings
		case domain.SortMasteredTopics:
			return e.MasteredTopics
		default:
			return e.TotalScore
		}
	}

	out := make([]domain.LeaderboardEntry, 0, len(byUser))
	for _, e := range byUser {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b domain.LeaderboardEntry) int {
		return cmp.Or(cmp.Compare(key(b), key(a)), cmp.Compare(a.UserID.String(), b.UserID.String()))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
