package services

import (
	"context"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

func (s *Store) FetchPositions(ctx context.Context, sess domain.Session) ([]domain.Position, error) {
	return run(ctx, s, OpFetchPositions, func(ctx context.Context) ([]domain.Position, error) {
		return s.backend.ListPositions(ctx, sess)
	}, func(items []domain.Position) {
		s.positions.Items = items
	})
}

func (s *Store) FetchSupervisors(ctx context.Context, sess domain.Session) ([]domain.Position, error) {
	return run(ctx, s, OpFetchSupervisors, func(ctx context.Context) ([]domain.Position, error) {
		return s.backend.ListSupervisors(ctx, sess)
	}, func(items []domain.Position) {
		s.positions.Supervisors = items
	})
}

func (s *Store) FetchHierarchy(ctx context.Context, sess domain.Session) ([]domain.PositionNode, error) {
	return run(ctx, s, OpFetchHierarchy, func(ctx context.Context) ([]domain.PositionNode, error) {
		return s.backend.PositionHierarchy(ctx, sess)
	}, func(roots []domain.PositionNode) {
		s.positions.Hierarchy = roots
	})
}

// CreatePosition appends the created position to the loaded list.
func (s *Store) CreatePosition(ctx context.Context, sess domain.Session, in domain.PositionInput) (domain.Position, error) {
	return run(ctx, s, OpCreatePosition, func(ctx context.Context) (domain.Position, error) {
		return s.backend.CreatePosition(ctx, sess, in)
	}, func(p domain.Position) {
		items := make([]domain.Position, 0, len(s.positions.Items)+1)
		items = append(items, s.positions.Items...)
		s.positions.Items = append(items, p)
	})
}

// UpdatePosition sends the difference between the loaded position and edited,
// then replaces it by id in the list and in the selection.
func (s *Store) UpdatePosition(ctx context.Context, sess domain.Session, id domain.ID, edited domain.PositionInput) (domain.Position, error) {
	current := s.currentInput(id)
	return run(ctx, s, OpUpdatePosition, func(ctx context.Context) (domain.Position, error) {
		return s.backend.UpdatePosition(ctx, sess, id, current, edited)
	}, func(p domain.Position) {
		if i := domain.IndexOfPosition(s.positions.Items, id); i >= 0 {
			items := make([]domain.Position, len(s.positions.Items))
			copy(items, s.positions.Items)
			items[i] = p
			s.positions.Items = items
		}
		if sel := s.positions.Selected; sel != nil && sel.ID == id {
			s.positions.Selected = &p
		}
	})
}

func (s *Store) currentInput(id domain.ID) domain.PositionInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sel := s.positions.Selected; sel != nil && sel.ID == id {
		return domain.InputFromPosition(*sel)
	}
	if i := domain.IndexOfPosition(s.positions.Items, id); i >= 0 {
		return domain.InputFromPosition(s.positions.Items[i])
	}
	return domain.PositionInput{}
}

// DeletePosition removes the position by id, preserving the order of the rest.
func (s *Store) DeletePosition(ctx context.Context, sess domain.Session, id domain.ID) error {
	_, err := run(ctx, s, OpDeletePosition, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.DeletePosition(ctx, sess, id)
	}, func(struct{}) {
		items := make([]domain.Position, 0, len(s.positions.Items))
		for _, p := range s.positions.Items {
			if p.ID != id {
				items = append(items, p)
			}
		}
		s.positions.Items = items
		if sel := s.positions.Selected; sel != nil && sel.ID == id {
			s.positions.Selected = nil
		}
	})
	return err
}

// FetchPosition loads one position into the selection.
func (s *Store) FetchPosition(ctx context.Context, sess domain.Session, id domain.ID) (domain.Position, error) {
	return run(ctx, s, OpFetchPosition, func(ctx context.Context) (domain.Position, error) {
		return s.backend.GetPosition(ctx, sess, id)
	}, func(p domain.Position) {
		s.positions.Selected = &p
	})
}

func (s *Store) SelectPosition(p domain.Position) {
	s.mu.Lock()
	s.positions.Selected = &p
	s.mu.Unlock()
	s.publish(&StateChanged{})
}

func (s *Store) ClearSelectedPosition() {
	s.mu.Lock()
	s.positions.Selected = nil
	s.mu.Unlock()
	s.publish(&StateChanged{})
}
