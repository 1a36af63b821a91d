package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
	"github.com/iota-uz/taskdesk/modules/review/services"
	"github.com/iota-uz/taskdesk/pkg/serrors"
)

func pendingTask(id domain.ID) domain.Task {
	return domain.Task{ID: id, Title: "Ship report", Status: domain.TaskCompleted, UserID: "11", Date: "2024-05-20", Review: domain.PendingReview()}
}

func day(tasks ...domain.Task) domain.DailySubmission {
	return domain.DailySubmission{Date: "2024-05-20", Tasks: tasks}
}

// loadedStore holds task 42 in every collection the store keeps.
func loadedStore(t *testing.T, b *fakeBackend) (*services.Store, *recorder) {
	t.Helper()
	member := domain.Member{ID: "11", Username: "lee"}
	other := pendingTask("7")
	subs := domain.MemberSubmissions{User: member, Submissions: map[string]domain.DailySubmission{
		"2024-05-20": day(other, pendingTask("42")),
	}}
	admin := domain.AdminMemberTasks{User: member, DailyTasks: []domain.DailySubmission{day(pendingTask("42"))}}

	b.teamTasks = func(api.TeamTasksParams) (api.TeamTasksPage, error) {
		return api.TeamTasksPage{Items: []domain.MemberSubmissions{subs}}, nil
	}
	b.hierarchical = func(domain.ID) (domain.HierarchicalReviews, error) {
		return domain.HierarchicalReviews{
			HierarchicalReviews: []domain.MemberSubmissions{subs},
			TeamReviews:         []domain.TeamReview{{Team: domain.Team{ID: "t1"}, Members: []domain.MemberSubmissions{subs}}},
		}, nil
	}
	b.adminDaily = func(api.AdminDailyParams) (api.AdminDailyPage, error) {
		return api.AdminDailyPage{Items: []domain.AdminMemberTasks{admin}}, nil
	}
	b.teamsDaily = func(api.TeamsDailyParams) ([]domain.TeamDailyTasks, error) {
		return []domain.TeamDailyTasks{{Team: domain.Team{ID: "t1"}, Members: []domain.AdminMemberTasks{admin}}}, nil
	}
	b.furtherReview = func(domain.ID) ([]domain.Task, error) {
		return []domain.Task{pendingTask("42")}, nil
	}
	b.userReport = func(api.UserReportParams) (domain.UserTaskReport, error) {
		return domain.UserTaskReport{User: member, Submissions: []domain.DailySubmission{day(pendingTask("42"))}}, nil
	}

	s, rec := newStore(t, b)
	ctx := context.Background()
	_, err := s.FetchTeamTasks(ctx, sess, "", services.PageRequest{})
	require.NoError(t, err)
	_, err = s.FetchHierarchicalTasks(ctx, sess, "")
	require.NoError(t, err)
	_, err = s.FetchAdminDailyTasks(ctx, sess, services.PageRequest{})
	require.NoError(t, err)
	_, err = s.FetchTeamsDailyTasks(ctx, sess, api.TeamsDailyParams{})
	require.NoError(t, err)
	_, err = s.FetchFurtherReviewQueue(ctx, sess, "")
	require.NoError(t, err)
	_, err = s.FetchUserReport(ctx, sess, api.UserReportParams{UserID: "11"})
	require.NoError(t, err)
	s.SelectTask(pendingTask("42"))
	return s, rec
}

// occurrences collects every held copy of the task with id.
func occurrences(snap services.Snapshot, id domain.ID) []domain.Task {
	var out []domain.Task
	take := func(tasks []domain.Task) {
		for _, t := range tasks {
			if t.ID == id {
				out = append(out, t)
			}
		}
	}
	fromSubs := func(list []domain.MemberSubmissions) {
		for _, m := range list {
			for _, d := range m.Submissions {
				take(d.Tasks)
			}
		}
	}
	fromAdmin := func(list []domain.AdminMemberTasks) {
		for _, m := range list {
			for _, d := range m.DailyTasks {
				take(d.Tasks)
			}
		}
	}
	r := snap.TaskReview
	if r.SelectedTask != nil {
		take([]domain.Task{*r.SelectedTask})
	}
	fromSubs(r.TeamTasks)
	fromSubs(r.Hierarchical.HierarchicalReviews)
	for _, tr := range r.Hierarchical.TeamReviews {
		fromSubs(tr.Members)
	}
	fromAdmin(r.AdminDaily)
	for _, td := range r.TeamsDaily {
		fromAdmin(td.Members)
	}
	take(r.FurtherReview)
	if r.UserReport != nil {
		for _, d := range r.UserReport.Submissions {
			take(d.Tasks)
		}
	}
	return out
}

func TestSubmitReview_PatchesEveryOccurrence(t *testing.T) {
	b := &fakeBackend{}
	s, rec := loadedStore(t, b)
	before := s.Snapshot()

	_, err := s.SubmitReview(context.Background(), sess, services.ReviewDecision{TaskID: "42", Status: domain.ReviewApproved}, nil)
	require.NoError(t, err)

	got := occurrences(s.Snapshot(), "42")
	require.Len(t, got, 8)
	for _, task := range got {
		assert.Equal(t, domain.ReviewApproved, task.Review.Kind)
		assert.True(t, task.Review.Reviewed())
		assert.Equal(t, domain.ID("10"), task.Review.ReviewedBy)
		require.NotNil(t, task.Review.ReviewedAt)
		assert.True(t, fixedNow.Equal(*task.Review.ReviewedAt))
	}
	for _, task := range occurrences(before, "42") {
		assert.Equal(t, domain.ReviewPending, task.Review.Kind, "earlier snapshots keep the old state")
	}
	for _, task := range occurrences(s.Snapshot(), "7") {
		assert.Equal(t, domain.ReviewPending, task.Review.Kind)
	}

	toasts := rec.all()
	require.NotEmpty(t, toasts)
	assert.Equal(t, services.ToastSuccess, toasts[len(toasts)-1].Kind)
	assert.Equal(t, "Review submitted successfully", toasts[len(toasts)-1].Message)
}

func TestSubmitReview_RejectedWithComment(t *testing.T) {
	var sent api.ReviewRequest
	b := &fakeBackend{}
	s, _ := loadedStore(t, b)
	b.submitReview = func(_ domain.ID, req api.ReviewRequest) (*domain.Task, error) {
		sent = req
		return nil, nil
	}

	_, err := s.SubmitReview(context.Background(), sess, services.ReviewDecision{Status: domain.ReviewRejected, Comment: " needs rework "}, nil)
	require.NoError(t, err)
	assert.Equal(t, api.ReviewRequest{Status: domain.ReviewRejected, Comment: "needs rework"}, sent)

	snap := s.Snapshot()
	require.NotNil(t, snap.TaskReview.SelectedTask)
	sel := snap.TaskReview.SelectedTask
	assert.Equal(t, domain.ReviewRejected, sel.Review.Kind)
	assert.True(t, sel.Review.Reviewed())
	require.Len(t, sel.Comments, 1)
	assert.Equal(t, "needs rework", sel.Comments[0].Text)

	for _, task := range occurrences(snap, "42") {
		assert.Equal(t, domain.ReviewRejected, task.Review.Kind)
		assert.Len(t, task.Comments, 1)
	}
}

func TestSubmitReview_EchoContributesReviewer(t *testing.T) {
	reviewedAt := fixedNow.Add(-time.Hour)
	b := &fakeBackend{submitReview: func(id domain.ID, _ api.ReviewRequest) (*domain.Task, error) {
		t := pendingTask(id).WithReview(domain.ApprovedBy("99", reviewedAt), &domain.Comment{Text: "ok"})
		return &t, nil
	}}
	s, _ := loadedStore(t, b)

	task, err := s.SubmitReview(context.Background(), sess, services.ReviewDecision{TaskID: "42", Status: domain.ReviewApproved}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ID("99"), task.Review.ReviewedBy)
	for _, held := range occurrences(s.Snapshot(), "42") {
		assert.Equal(t, domain.ID("99"), held.Review.ReviewedBy)
		assert.Len(t, held.Comments, 1)
	}
}

func TestSubmitReview_FurtherReviewNeedsTargetAndComment(t *testing.T) {
	tests := []struct {
		name     string
		decision services.ReviewDecision
		want     string
	}{
		{
			name:     "missing target",
			decision: services.ReviewDecision{TaskID: "42", Status: domain.ReviewFurtherReview, ReviewComment: "second opinion"},
			want:     "Further review supervisor is required",
		},
		{
			name:     "blank comment",
			decision: services.ReviewDecision{TaskID: "42", Status: domain.ReviewFurtherReview, FurtherReviewSupervisorID: "40", ReviewComment: "   "},
			want:     "Further review comment is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{}
			s, rec := loadedStore(t, b)

			_, err := s.SubmitReview(context.Background(), sess, tt.decision, nil)
			var be *serrors.BaseError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, serrors.CodeValidation, be.Code)
			assert.Zero(t, b.reviewCalls.Load(), "no network call")
			assert.Equal(t, services.OpState{Error: tt.want}, s.State(services.OpSubmitReview))
			toasts := rec.all()
			assert.Equal(t, services.ToastError, toasts[len(toasts)-1].Kind)
		})
	}
}

func TestSubmitReview_LocalRejections(t *testing.T) {
	candidates := []domain.Member{{ID: "40", Level: &domain.Level{Rank: 4}}}
	tests := []struct {
		name       string
		session    domain.Session
		decision   services.ReviewDecision
		candidates []domain.Member
		want       error
	}{
		{
			name:     "no authenticated user",
			session:  domain.Session{Token: "secret", OrgID: "1"},
			decision: services.ReviewDecision{TaskID: "42", Status: domain.ReviewApproved},
			want:     services.ErrNotAuthenticated,
		},
		{
			name:     "forward to self",
			session:  sess,
			decision: services.ReviewDecision{TaskID: "42", Status: domain.ReviewFurtherReview, FurtherReviewSupervisorID: "10", ReviewComment: "x"},
			want:     services.ErrSelfForward,
		},
		{
			name:       "target outside candidates",
			session:    sess,
			decision:   services.ReviewDecision{TaskID: "42", Status: domain.ReviewFurtherReview, FurtherReviewSupervisorID: "20", ReviewComment: "x"},
			candidates: candidates,
			want:       services.ErrNotCandidate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{}
			s, _ := loadedStore(t, b)

			_, err := s.SubmitReview(context.Background(), tt.session, tt.decision, tt.candidates)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, b.reviewCalls.Load())
		})
	}
}

func TestSubmitReview_AlreadyReviewedIsReadOnly(t *testing.T) {
	b := &fakeBackend{}
	s, _ := loadedStore(t, b)
	ctx := context.Background()

	_, err := s.SubmitReview(ctx, sess, services.ReviewDecision{TaskID: "42", Status: domain.ReviewApproved}, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, b.reviewCalls.Load())

	_, err = s.SubmitReview(ctx, sess, services.ReviewDecision{TaskID: "42", Status: domain.ReviewRejected}, nil)
	require.ErrorIs(t, err, services.ErrAlreadyReviewed)
	assert.EqualValues(t, 1, b.reviewCalls.Load())
}

func TestSubmitReview_ForwardKeepsTaskActionable(t *testing.T) {
	b := &fakeBackend{}
	s, _ := loadedStore(t, b)
	candidates := []domain.Member{{ID: "40", Level: &domain.Level{Rank: 4}}}

	task, err := s.SubmitReview(context.Background(), sess, services.ReviewDecision{
		TaskID:                    "42",
		Status:                    domain.ReviewFurtherReview,
		FurtherReviewSupervisorID: "40",
		ReviewComment:             "budget sign-off",
	}, candidates)
	require.NoError(t, err)
	assert.False(t, task.Review.Reviewed())
	assert.True(t, task.Review.Actionable())
	require.NotNil(t, task.Review.Forwarding)
	assert.Equal(t, domain.Forwarding{TargetSupervisorID: "40", Comment: "budget sign-off"}, *task.Review.Forwarding)
}

func TestSubmitReview_NoTaskSelected(t *testing.T) {
	b := &fakeBackend{}
	s, _ := newStore(t, b)

	_, err := s.SubmitReview(context.Background(), sess, services.ReviewDecision{Status: domain.ReviewApproved}, nil)
	require.ErrorIs(t, err, services.ErrNoTaskSelected)
	assert.Zero(t, b.reviewCalls.Load())
}

func TestSubmitReview_PartialEchoKeepsDecision(t *testing.T) {
	b := &fakeBackend{submitReview: func(id domain.ID, _ api.ReviewRequest) (*domain.Task, error) {
		return &domain.Task{ID: id, Title: "Ship report", Review: domain.PendingReview()}, nil
	}}
	s, _ := loadedStore(t, b)

	task, err := s.SubmitReview(context.Background(), sess, services.ReviewDecision{
		TaskID:  "42",
		Status:  domain.ReviewApproved,
		Comment: "lgtm",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, task.Review.Kind)
	assert.True(t, task.Review.Reviewed())
	assert.Equal(t, sess.UserID, task.Review.ReviewedBy)

	held := occurrences(s.Snapshot(), "42")
	require.NotEmpty(t, held)
	for _, h := range held {
		assert.Equal(t, domain.ReviewApproved, h.Review.Kind)
		require.Len(t, h.Comments, 1)
		assert.Equal(t, "lgtm", h.Comments[0].Text)
	}
}

func TestSubmitReview_LocalRejectionDoesNotDropInflightReview(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	b := &fakeBackend{submitReview: func(domain.ID, api.ReviewRequest) (*domain.Task, error) {
		close(entered)
		<-gate
		return nil, nil
	}}
	s, _ := loadedStore(t, b)

	first := make(chan error, 1)
	go func() {
		_, err := s.SubmitReview(context.Background(), sess, services.ReviewDecision{TaskID: "42", Status: domain.ReviewApproved}, nil)
		first <- err
	}()
	<-entered

	_, err := s.SubmitReview(context.Background(), sess, services.ReviewDecision{TaskID: "7", Status: domain.ReviewFurtherReview}, nil)
	require.Error(t, err)

	close(gate)
	require.NoError(t, <-first)
	for _, h := range occurrences(s.Snapshot(), "42") {
		assert.Equal(t, domain.ReviewApproved, h.Review.Kind)
	}
	assert.Equal(t, services.OpState{}, s.State(services.OpSubmitReview))
}
