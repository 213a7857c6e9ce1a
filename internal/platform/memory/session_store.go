package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
	"github.com/phrazzld/lingdou-api/internal/store"
)

// SessionStore implements store.SessionStore in memory.
type SessionStore struct {
	db db
}

var _ store.SessionStore = (*SessionStore)(nil)

// Create implements store.SessionStore.Create
func (s *SessionStore) Create(ctx context.Context, session *domain.TrainingSession) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	defer s.db.lock()()

	st := s.db.state()
	if _, ok := st.sessions[session.ID]; ok {
		return store.ErrSessionExists
	}
	st.sessions[session.ID] = *session
	return nil
}

// ListByUser implements store.SessionStore.ListByUser
func (s *SessionStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]domain.TrainingSession, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	defer s.db.lock()()

	out := []domain.TrainingSession{}
	for _, ts := range s.db.state().sessions {
		if ts.UserID == userID {
			out = append(out, ts)
		}
	}
	slices.SortFunc(out, func(a, b domain.TrainingSession) int {
		if c := b.CompletionDate.Compare(a.CompletionDate); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
