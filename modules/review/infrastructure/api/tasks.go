package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

type TeamTasksParams struct {
	SupervisorID domain.ID
	Page         int
	Limit        int
	Filters      domain.Filters
}

type TeamTasksPage struct {
	Items      []domain.MemberSubmissions
	Pagination domain.Pagination
}

// TeamTasks fetches one page of the supervisor's team submissions.
// An empty SupervisorID means the session user.
func (c *Client) TeamTasks(ctx context.Context, sess domain.Session, p TeamTasksParams) (TeamTasksPage, error) {
	if err := requireOrg(sess); err != nil {
		return TeamTasksPage{}, err
	}
	supervisor := orSelf(sess, p.SupervisorID)
	if err := requireID("supervisor id", supervisor); err != nil {
		return TeamTasksPage{}, err
	}
	var items []domain.MemberSubmissions
	pg, err := c.do(ctx, sess, call{
		op:     OpTeamTasks,
		method: http.MethodGet,
		path:   "/task/" + seg(sess.OrgID) + "/supervisor/" + seg(supervisor) + "/team-tasks",
		query:  merge(pageQuery(p.Page, p.Limit), p.Filters.Query()),
	}, &items)
	if err != nil {
		return TeamTasksPage{}, err
	}
	out := TeamTasksPage{Items: items}
	if pg != nil {
		out.Pagination = *pg
	}
	return out, nil
}

func (c *Client) HierarchicalTasks(ctx context.Context, sess domain.Session, supervisorID domain.ID, filters domain.Filters) (domain.HierarchicalReviews, error) {
	if err := requireToken(sess); err != nil {
		return domain.HierarchicalReviews{}, err
	}
	supervisor := orSelf(sess, supervisorID)
	if err := requireID("supervisor id", supervisor); err != nil {
		return domain.HierarchicalReviews{}, err
	}
	var out domain.HierarchicalReviews
	_, err := c.do(ctx, sess, call{
		op:     OpHierarchicalTasks,
		method: http.MethodGet,
		path:   "/task/tasks/" + seg(supervisor),
		query:  filters.Query(),
	}, &out)
	return out, err
}

type AdminDailyParams struct {
	Page    int
	Limit   int
	Filters domain.Filters
}

type AdminDailyPage struct {
	Items      []domain.AdminMemberTasks
	Pagination domain.Pagination
}

// AdminDailyTasks fetches the organization-wide daily tasks.
func (c *Client) AdminDailyTasks(ctx context.Context, sess domain.Session, p AdminDailyParams) (AdminDailyPage, error) {
	if err := requireOrg(sess); err != nil {
		return AdminDailyPage{}, err
	}
	var items []domain.AdminMemberTasks
	pg, err := c.do(ctx, sess, call{
		op:     OpAdminDailyTasks,
		method: http.MethodGet,
		path:   "/task/" + seg(sess.OrgID) + "/admin/all-daily-tasks",
		query:  merge(pageQuery(p.Page, p.Limit), p.Filters.Query()),
	}, &items)
	if err != nil {
		return AdminDailyPage{}, err
	}
	out := AdminDailyPage{Items: items}
	if pg != nil {
		out.Pagination = *pg
	}
	return out, nil
}

type TeamsDailyParams struct {
	StartDate string
	EndDate   string
}

// TeamsDailyTasks fetches the cross-team admin view.
func (c *Client) TeamsDailyTasks(ctx context.Context, sess domain.Session, p TeamsDailyParams) ([]domain.TeamDailyTasks, error) {
	if err := requireOrg(sess); err != nil {
		return nil, err
	}
	q := url.Values{}
	if p.StartDate != "" {
		q.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("endDate", p.EndDate)
	}
	var out []domain.TeamDailyTasks
	_, err := c.do(ctx, sess, call{
		op:     OpTeamsDailyTasks,
		method: http.MethodGet,
		path:   "/v1/organizations/organization/" + seg(sess.OrgID) + "/teams/daily-tasks",
		query:  q,
	}, &out)
	return out, err
}

type UserReportParams struct {
	UserID    domain.ID
	Page      int
	Limit     int
	StartDate string
	EndDate   string
}

func (c *Client) UserTaskReport(ctx context.Context, sess domain.Session, p UserReportParams) (domain.UserTaskReport, error) {
	if err := requireToken(sess); err != nil {
		return domain.UserTaskReport{}, err
	}
	user := orSelf(sess, p.UserID)
	if err := requireID("user id", user); err != nil {
		return domain.UserTaskReport{}, err
	}
	q := pageQuery(p.Page, p.Limit)
	if p.StartDate != "" {
		q.Set("startDate", p.StartDate)
	}
	if p.EndDate != "" {
		q.Set("endDate", p.EndDate)
	}
	var out domain.UserTaskReport
	pg, err := c.do(ctx, sess, call{
		op:     OpUserTaskReport,
		method: http.MethodGet,
		path:   "/task/user/" + seg(user) + "/tasks-report",
		query:  q,
	}, &out)
	if err != nil {
		return domain.UserTaskReport{}, err
	}
	if out.Pagination == nil && pg != nil {
		out.Pagination = pg
	}
	return out, nil
}

// FurtherReviewQueue lists the tasks forwarded to the supervisor for a second opinion.
func (c *Client) FurtherReviewQueue(ctx context.Context, sess domain.Session, supervisorID domain.ID) ([]domain.Task, error) {
	if err := requireToken(sess); err != nil {
		return nil, err
	}
	supervisor := orSelf(sess, supervisorID)
	if err := requireID("supervisor id", supervisor); err != nil {
		return nil, err
	}
	var out []domain.Task
	_, err := c.do(ctx, sess, call{
		op:     OpFurtherReviewQueue,
		method: http.MethodGet,
		path:   "/task/tasks/further-review/" + seg(supervisor),
	}, &out)
	return out, err
}
