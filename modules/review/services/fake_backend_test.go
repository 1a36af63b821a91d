package services_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
)

// fakeBackend answers from function fields; a nil field returns zero values.
type fakeBackend struct {
	listPositions   func(ctx context.Context) ([]domain.Position, error)
	createPosition  func(in domain.PositionInput) (domain.Position, error)
	updatePosition  func(id domain.ID, current, edited domain.PositionInput) (domain.Position, error)
	deletePosition  func(id domain.ID) error
	getPosition     func(id domain.ID) (domain.Position, error)
	teamTasks       func(p api.TeamTasksParams) (api.TeamTasksPage, error)
	hierarchical    func(supervisorID domain.ID) (domain.HierarchicalReviews, error)
	teamMembers     func(supervisorID domain.ID) ([]domain.Member, error)
	adminDaily      func(p api.AdminDailyParams) (api.AdminDailyPage, error)
	teamsDaily      func(p api.TeamsDailyParams) ([]domain.TeamDailyTasks, error)
	submitReview    func(taskID domain.ID, req api.ReviewRequest) (*domain.Task, error)
	userReport      func(p api.UserReportParams) (domain.UserTaskReport, error)
	furtherReview   func(supervisorID domain.ID) ([]domain.Task, error)
	reviewCalls     atomic.Int32
	mu              sync.Mutex
	lastTeamFilters domain.Filters
}

func (f *fakeBackend) ListPositions(ctx context.Context, _ domain.Session) ([]domain.Position, error) {
	if f.listPositions == nil {
		return nil, nil
	}
	return f.listPositions(ctx)
}

func (f *fakeBackend) ListSupervisors(context.Context, domain.Session) ([]domain.Position, error) {
	return nil, nil
}

func (f *fakeBackend) PositionHierarchy(context.Context, domain.Session) ([]domain.PositionNode, error) {
	return nil, nil
}

func (f *fakeBackend) CreatePosition(_ context.Context, _ domain.Session, in domain.PositionInput) (domain.Position, error) {
	return f.createPosition(in)
}

func (f *fakeBackend) UpdatePosition(_ context.Context, _ domain.Session, id domain.ID, current, edited domain.PositionInput) (domain.Position, error) {
	return f.updatePosition(id, current, edited)
}

func (f *fakeBackend) DeletePosition(_ context.Context, _ domain.Session, id domain.ID) error {
	return f.deletePosition(id)
}

func (f *fakeBackend) GetPosition(_ context.Context, _ domain.Session, id domain.ID) (domain.Position, error) {
	return f.getPosition(id)
}

func (f *fakeBackend) TeamTasks(_ context.Context, _ domain.Session, p api.TeamTasksParams) (api.TeamTasksPage, error) {
	f.mu.Lock()
	f.lastTeamFilters = p.Filters
	f.mu.Unlock()
	if f.teamTasks == nil {
		return api.TeamTasksPage{}, nil
	}
	return f.teamTasks(p)
}

func (f *fakeBackend) HierarchicalTasks(_ context.Context, _ domain.Session, supervisorID domain.ID, _ domain.Filters) (domain.HierarchicalReviews, error) {
	if f.hierarchical == nil {
		return domain.HierarchicalReviews{}, nil
	}
	return f.hierarchical(supervisorID)
}

func (f *fakeBackend) TeamMembers(_ context.Context, _ domain.Session, supervisorID domain.ID) ([]domain.Member, error) {
	if f.teamMembers == nil {
		return nil, nil
	}
	return f.teamMembers(supervisorID)
}

func (f *fakeBackend) AdminDailyTasks(_ context.Context, _ domain.Session, p api.AdminDailyParams) (api.AdminDailyPage, error) {
	if f.adminDaily == nil {
		return api.AdminDailyPage{}, nil
	}
	return f.adminDaily(p)
}

func (f *fakeBackend) TeamsDailyTasks(_ context.Context, _ domain.Session, p api.TeamsDailyParams) ([]domain.TeamDailyTasks, error) {
	if f.teamsDaily == nil {
		return nil, nil
	}
	return f.teamsDaily(p)
}

func (f *fakeBackend) SubmitReview(_ context.Context, _ domain.Session, taskID domain.ID, req api.ReviewRequest) (*domain.Task, error) {
	f.reviewCalls.Add(1)
	if f.submitReview == nil {
		return nil, nil
	}
	return f.submitReview(taskID, req)
}

func (f *fakeBackend) UserTaskReport(_ context.Context, _ domain.Session, p api.UserReportParams) (domain.UserTaskReport, error) {
	if f.userReport == nil {
		return domain.UserTaskReport{}, nil
	}
	return f.userReport(p)
}

func (f *fakeBackend) FurtherReviewQueue(_ context.Context, _ domain.Session, supervisorID domain.ID) ([]domain.Task, error) {
	if f.furtherReview == nil {
		return nil, nil
	}
	return f.furtherReview(supervisorID)
}
