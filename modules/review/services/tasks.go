package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
)

type PageRequest struct {
	Page  int
	Limit int
}

// FetchTeamTasks loads one page of the supervisor's team tasks using the
// store's current filters.
func (s *Store) FetchTeamTasks(ctx context.Context, sess domain.Session, supervisorID domain.ID, page PageRequest) (api.TeamTasksPage, error) {
	params := api.TeamTasksParams{
		SupervisorID: supervisorID,
		Page:         page.Page,
		Limit:        page.Limit,
		Filters:      s.Filters(),
	}
	return run(ctx, s, OpFetchTeamTasks, func(ctx context.Context) (api.TeamTasksPage, error) {
		return s.backend.TeamTasks(ctx, sess, params)
	}, func(p api.TeamTasksPage) {
		s.review.TeamTasks = p.Items
		s.review.TeamPagination = p.Pagination
	})
}

func (s *Store) FetchHierarchicalTasks(ctx context.Context, sess domain.Session, supervisorID domain.ID) (domain.HierarchicalReviews, error) {
	filters := s.Filters()
	return run(ctx, s, OpFetchHierarchicalTasks, func(ctx context.Context) (domain.HierarchicalReviews, error) {
		return s.backend.HierarchicalTasks(ctx, sess, supervisorID, filters)
	}, func(h domain.HierarchicalReviews) {
		s.review.Hierarchical = h
	})
}

func (s *Store) FetchTeamMembers(ctx context.Context, sess domain.Session, supervisorID domain.ID) ([]domain.Member, error) {
	return run(ctx, s, OpFetchTeamMembers, func(ctx context.Context) ([]domain.Member, error) {
		return s.backend.TeamMembers(ctx, sess, supervisorID)
	}, func(members []domain.Member) {
		s.review.Members = members
	})
}

func (s *Store) FetchAdminDailyTasks(ctx context.Context, sess domain.Session, page PageRequest) (api.AdminDailyPage, error) {
	params := api.AdminDailyParams{Page: page.Page, Limit: page.Limit, Filters: s.Filters()}
	return run(ctx, s, OpFetchAdminDailyTasks, func(ctx context.Context) (api.AdminDailyPage, error) {
		return s.backend.AdminDailyTasks(ctx, sess, params)
	}, func(p api.AdminDailyPage) {
		s.review.AdminDaily = p.Items
		s.review.AdminPagination = p.Pagination
	})
}

func (s *Store) FetchTeamsDailyTasks(ctx context.Context, sess domain.Session, p api.TeamsDailyParams) ([]domain.TeamDailyTasks, error) {
	return run(ctx, s, OpFetchTeamsDailyTasks, func(ctx context.Context) ([]domain.TeamDailyTasks, error) {
		return s.backend.TeamsDailyTasks(ctx, sess, p)
	}, func(teams []domain.TeamDailyTasks) {
		s.review.TeamsDaily = teams
	})
}

func (s *Store) FetchUserReport(ctx context.Context, sess domain.Session, p api.UserReportParams) (domain.UserTaskReport, error) {
	return run(ctx, s, OpFetchUserReport, func(ctx context.Context) (domain.UserTaskReport, error) {
		return s.backend.UserTaskReport(ctx, sess, p)
	}, func(r domain.UserTaskReport) {
		s.review.UserReport = &r
	})
}

func (s *Store) FetchFurtherReviewQueue(ctx context.Context, sess domain.Session, supervisorID domain.ID) ([]domain.Task, error) {
	return run(ctx, s, OpFetchFurtherReview, func(ctx context.Context) ([]domain.Task, error) {
		return s.backend.FurtherReviewQueue(ctx, sess, supervisorID)
	}, func(tasks []domain.Task) {
		s.review.FurtherReview = tasks
	})
}

// LoadDashboard fetches team tasks, team members and the further-review queue
// for supervisorID concurrently. Each lands in its own slot; the first error is
// returned after all three settle.
func (s *Store) LoadDashboard(ctx context.Context, sess domain.Session, supervisorID domain.ID, page PageRequest) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.FetchTeamTasks(ctx, sess, supervisorID, page)
		return err
	})
	g.Go(func() error {
		_, err := s.FetchTeamMembers(ctx, sess, supervisorID)
		return err
	})
	g.Go(func() error {
		_, err := s.FetchFurtherReviewQueue(ctx, sess, supervisorID)
		return err
	})
	return g.Wait()
}

func (s *Store) Filters() domain.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.review.Filters
}

// SetFilter merges one filter field, clearing dependent fields when a cascade
// ancestor changes.
func (s *Store) SetFilter(field domain.FilterField, value string) error {
	s.mu.Lock()
	next, err := s.review.Filters.Set(field, value)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.review.Filters = next
	s.mu.Unlock()
	s.publish(&StateChanged{})
	return nil
}

func (s *Store) ResetFilters() {
	s.mu.Lock()
	s.review.Filters = domain.DefaultFilters()
	s.mu.Unlock()
	s.publish(&StateChanged{})
}

func (s *Store) SelectTask(t domain.Task) {
	s.mu.Lock()
	s.review.SelectedTask = &t
	s.mu.Unlock()
	s.publish(&StateChanged{})
}

func (s *Store) ClearSelectedTask() {
	s.mu.Lock()
	s.review.SelectedTask = nil
	s.mu.Unlock()
	s.publish(&StateChanged{})
}
