package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
	"github.com/iota-uz/taskdesk/pkg/serrors"
)

var (
	ErrNotAuthenticated = serrors.NewError("REVIEW_NOT_AUTHENTICATED", "you must be signed in to review tasks", "Reviews.Errors.NotAuthenticated")
	ErrNoTaskSelected   = serrors.NewError("REVIEW_NO_TASK", "no task selected", "Reviews.Errors.NoTask")
	ErrAlreadyReviewed  = serrors.NewError("TASK_ALREADY_REVIEWED", "this task has already been reviewed", "Reviews.Errors.AlreadyReviewed")
	ErrSelfForward      = serrors.NewError("REVIEW_SELF_FORWARD", "a task cannot be forwarded to its reviewer", "Reviews.Errors.SelfForward")
	ErrNotCandidate     = serrors.NewError("REVIEW_NOT_CANDIDATE", "the selected supervisor cannot receive this task", "Reviews.Errors.NotCandidate")
)

// ReviewDecision is what a supervisor submits for one task.
type ReviewDecision struct {
	TaskID                    domain.ID
	Status                    domain.ReviewKind `validate:"required,oneof=approved rejected further_review"`
	Comment                   string            `validate:"max=2000"`
	FurtherReviewSupervisorID domain.ID         `validate:"required_if=Status further_review"`
	ReviewComment             string            `validate:"required_if=Status further_review,max=2000"`
}

func (d *ReviewDecision) normalize() {
	d.Comment = strings.TrimSpace(d.Comment)
	d.ReviewComment = strings.TrimSpace(d.ReviewComment)
	d.FurtherReviewSupervisorID = domain.ID(strings.TrimSpace(string(d.FurtherReviewSupervisorID)))
}

func decisionFieldName(field string) string {
	switch field {
	case "Status":
		return "Review status"
	case "Comment":
		return "Comment"
	case "FurtherReviewSupervisorID":
		return "Further review supervisor"
	case "ReviewComment":
		return "Further review comment"
	default:
		return ""
	}
}

// ValidateDecision checks d for task (nil when not loaded) on behalf of the
// session user. candidates, when non-nil, bounds the further-review target.
func ValidateDecision(sess domain.Session, d ReviewDecision, task *domain.Task, candidates []domain.Member) error {
	if sess.UserID.IsZero() {
		return ErrNotAuthenticated
	}
	if d.TaskID.IsZero() {
		return ErrNoTaskSelected
	}
	if task != nil && task.Review.Reviewed() {
		return ErrAlreadyReviewed
	}
	d.normalize()
	if err := domain.Validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return serrors.ProcessValidatorErrors(verrs, decisionFieldName).AsError()
		}
		return err
	}
	if d.Status != domain.ReviewFurtherReview {
		return nil
	}
	if d.FurtherReviewSupervisorID == sess.UserID {
		return ErrSelfForward
	}
	if candidates != nil {
		for _, m := range candidates {
			if m.ID == d.FurtherReviewSupervisorID {
				return nil
			}
		}
		return ErrNotCandidate
	}
	return nil
}

// SubmitReview validates d locally, posts it and, on success, patches the task
// everywhere the store holds it. An empty TaskID targets the selected task.
func (s *Store) SubmitReview(ctx context.Context, sess domain.Session, d ReviewDecision, candidates []domain.Member) (domain.Task, error) {
	d.normalize()
	var known *domain.Task
	s.mu.Lock()
	if d.TaskID.IsZero() && s.review.SelectedTask != nil {
		d.TaskID = s.review.SelectedTask.ID
	}
	if t, ok := s.findTaskLocked(d.TaskID); ok {
		known = &t
	}
	s.mu.Unlock()

	submit := func(ctx context.Context) (domain.Task, error) {
		if err := ValidateDecision(sess, d, known, candidates); err != nil {
			return domain.Task{}, err
		}
		echoed, err := s.backend.SubmitReview(ctx, sess, d.TaskID, api.ReviewRequest{
			Status:                    d.Status,
			Comment:                   d.Comment,
			FurtherReviewSupervisorID: d.FurtherReviewSupervisorID,
			ReviewComment:             d.ReviewComment,
		})
		if err != nil {
			return domain.Task{}, err
		}
		return s.reviewedTask(sess, d, known, echoed), nil
	}
	return run(ctx, s, OpSubmitReview, submit, func(t domain.Task) {
		s.patchTaskLocked(t)
	})
}

// reviewedTask is the post-review task. The review variant always comes from
// the decision; the backend echo only contributes the reviewer, review time,
// update time and comment list when it carries them.
func (s *Store) reviewedTask(sess domain.Session, d ReviewDecision, known, echoed *domain.Task) domain.Task {
	if echoed != nil && echoed.ID != d.TaskID {
		echoed = nil
	}
	reviewer, at := sess.UserID, s.now().UTC()
	if echoed != nil {
		if !echoed.Review.ReviewedBy.IsZero() {
			reviewer = echoed.Review.ReviewedBy
		}
		if echoed.Review.ReviewedAt != nil {
			at = echoed.Review.ReviewedAt.UTC()
		}
	}

	var review domain.ReviewState
	switch d.Status {
	case domain.ReviewApproved:
		review = domain.ApprovedBy(reviewer, at)
	case domain.ReviewRejected:
		review = domain.RejectedBy(reviewer, at)
	default:
		review = domain.ForwardedBy(reviewer, at, d.FurtherReviewSupervisorID, d.ReviewComment)
	}
	var comment *domain.Comment
	if d.Comment != "" {
		comment = &domain.Comment{Text: d.Comment, AuthorID: sess.UserID, CreatedAt: at}
	}

	base := domain.Task{ID: d.TaskID}
	switch {
	case known != nil:
		base = *known
	case echoed != nil:
		base = *echoed
		base.Comments = nil
	}
	out := base.WithReview(review, comment)
	if echoed != nil {
		if len(echoed.Comments) > 0 {
			out.Comments = echoed.Comments
		}
		if echoed.UpdatedAt != nil {
			out.UpdatedAt = echoed.UpdatedAt
		}
	}
	return out
}

// FindTask looks the task up in every loaded collection.
func (s *Store) FindTask(id domain.ID) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findTaskLocked(id)
}

func (s *Store) findTaskLocked(id domain.ID) (domain.Task, bool) {
	if id.IsZero() {
		return domain.Task{}, false
	}
	if t := s.review.SelectedTask; t != nil && t.ID == id {
		return *t, true
	}
	var found *domain.Task
	visit := func(tasks []domain.Task) {
		for i := range tasks {
			if found == nil && tasks[i].ID == id {
				t := tasks[i]
				found = &t
			}
		}
	}
	visitSubmissions := func(list []domain.MemberSubmissions) {
		for _, m := range list {
			for _, day := range m.Submissions {
				visit(day.Tasks)
			}
		}
	}
	visitDaily := func(list []domain.AdminMemberTasks) {
		for _, m := range list {
			for _, day := range m.DailyTasks {
				visit(day.Tasks)
			}
		}
	}
	visitSubmissions(s.review.TeamTasks)
	visitSubmissions(s.review.Hierarchical.HierarchicalReviews)
	for _, tr := range s.review.Hierarchical.TeamReviews {
		visitSubmissions(tr.Members)
	}
	visitDaily(s.review.AdminDaily)
	for _, td := range s.review.TeamsDaily {
		visitDaily(td.Members)
	}
	visit(s.review.FurtherReview)
	if r := s.review.UserReport; r != nil {
		for _, day := range r.Submissions {
			visit(day.Tasks)
		}
	}
	if found == nil {
		return domain.Task{}, false
	}
	return *found, true
}

// patchTaskLocked copies the review fields and comments of reviewed onto every
// held occurrence of its id. Collections are rebuilt only along changed paths.
func (s *Store) patchTaskLocked(reviewed domain.Task) {
	id := reviewed.ID
	patch := func(t domain.Task) domain.Task {
		t.Review = reviewed.Review
		t.Comments = reviewed.Comments
		if reviewed.UpdatedAt != nil {
			t.UpdatedAt = reviewed.UpdatedAt
		}
		return t
	}

	if t := s.review.SelectedTask; t != nil && t.ID == id {
		next := patch(*t)
		s.review.SelectedTask = &next
	}
	s.review.TeamTasks = patchSubmissions(s.review.TeamTasks, id, patch)

	h := s.review.Hierarchical
	h.HierarchicalReviews = patchSubmissions(h.HierarchicalReviews, id, patch)
	if teams, changed := patchTeamReviews(h.TeamReviews, id, patch); changed {
		h.TeamReviews = teams
	}
	s.review.Hierarchical = h

	s.review.AdminDaily = patchAdmin(s.review.AdminDaily, id, patch)
	if len(s.review.TeamsDaily) > 0 {
		var teams []domain.TeamDailyTasks
		for i, td := range s.review.TeamsDaily {
			members := patchAdmin(td.Members, id, patch)
			if sameSlice(members, td.Members) {
				continue
			}
			if teams == nil {
				teams = append([]domain.TeamDailyTasks(nil), s.review.TeamsDaily...)
			}
			teams[i].Members = members
		}
		if teams != nil {
			s.review.TeamsDaily = teams
		}
	}

	if tasks, changed := patchTasks(s.review.FurtherReview, id, patch); changed {
		s.review.FurtherReview = tasks
	}
	if r := s.review.UserReport; r != nil {
		if days, changed := patchDays(r.Submissions, id, patch); changed {
			next := *r
			next.Submissions = days
			s.review.UserReport = &next
		}
	}
}

func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func patchTasks(tasks []domain.Task, id domain.ID, patch func(domain.Task) domain.Task) ([]domain.Task, bool) {
	var out []domain.Task
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		if out == nil {
			out = append([]domain.Task(nil), tasks...)
		}
		out[i] = patch(tasks[i])
	}
	if out == nil {
		return tasks, false
	}
	return out, true
}

func patchDays(days []domain.DailySubmission, id domain.ID, patch func(domain.Task) domain.Task) ([]domain.DailySubmission, bool) {
	var out []domain.DailySubmission
	for i, d := range days {
		tasks, changed := patchTasks(d.Tasks, id, patch)
		if !changed {
			continue
		}
		if out == nil {
			out = append([]domain.DailySubmission(nil), days...)
		}
		out[i].Tasks = tasks
	}
	if out == nil {
		return days, false
	}
	return out, true
}

func patchSubmissions(list []domain.MemberSubmissions, id domain.ID, patch func(domain.Task) domain.Task) []domain.MemberSubmissions {
	var out []domain.MemberSubmissions
	for i, m := range list {
		var subs map[string]domain.DailySubmission
		for date, day := range m.Submissions {
			tasks, changed := patchTasks(day.Tasks, id, patch)
			if !changed {
				continue
			}
			if subs == nil {
				subs = make(map[string]domain.DailySubmission, len(m.Submissions))
				for k, v := range m.Submissions {
					subs[k] = v
				}
			}
			day.Tasks = tasks
			subs[date] = day
		}
		if subs == nil {
			continue
		}
		if out == nil {
			out = append([]domain.MemberSubmissions(nil), list...)
		}
		out[i].Submissions = subs
	}
	if out == nil {
		return list
	}
	return out
}

func patchTeamReviews(list []domain.TeamReview, id domain.ID, patch func(domain.Task) domain.Task) ([]domain.TeamReview, bool) {
	var out []domain.TeamReview
	for i, tr := range list {
		members := patchSubmissions(tr.Members, id, patch)
		if sameSlice(members, tr.Members) {
			continue
		}
		if out == nil {
			out = append([]domain.TeamReview(nil), list...)
		}
		out[i].Members = members
	}
	if out == nil {
		return list, false
	}
	return out, true
}

func patchAdmin(list []domain.AdminMemberTasks, id domain.ID, patch func(domain.Task) domain.Task) []domain.AdminMemberTasks {
	var out []domain.AdminMemberTasks
	for i, m := range list {
		days, changed := patchDays(m.DailyTasks, id, patch)
		if !changed {
			continue
		}
		if out == nil {
			out = append([]domain.AdminMemberTasks(nil), list...)
		}
		out[i].DailyTasks = days
	}
	if out == nil {
		return list
	}
	return out
}
