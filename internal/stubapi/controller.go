package stubapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/pkg/httpapi"
	"github.com/iota-uz/taskdesk/pkg/middleware"
	"github.com/iota-uz/taskdesk/pkg/server"
)

type Controller struct {
	b *Backend
}

func NewController(b *Backend) server.Controller {
	return &Controller{b: b}
}

func (c *Controller) Key() string {
	return "/"
}

func (c *Controller) Register(r *mux.Router) {
	c.handle(r, http.MethodPost, "/v1/position", c.createPosition)
	c.handle(r, http.MethodGet, "/v1/position/{orgId}/supervisors", c.listSupervisors)
	c.handle(r, http.MethodGet, "/v1/position/{orgId}/hierarchy", c.positionHierarchy)
	c.handle(r, http.MethodGet, "/v1/position/{key}", c.getPositions)
	c.handle(r, http.MethodPatch, "/v1/position/{id}", c.updatePosition)
	c.handle(r, http.MethodDelete, "/v1/position/{id}", c.deletePosition)

	c.handle(r, http.MethodGet, "/v1/{orgId}/supervisor/{supervisorId}/team-members", c.teamMembers)
	c.handle(r, http.MethodGet, "/v1/organizations/organization/{orgId}/teams/daily-tasks", c.teamsDailyTasks)

	c.handle(r, http.MethodGet, "/task/tasks/further-review/{supervisorId}", c.furtherReviewQueue)
	c.handle(r, http.MethodPost, "/task/tasks/{taskId}/review", c.submitReview)
	c.handle(r, http.MethodGet, "/task/tasks/{supervisorId}", c.hierarchicalTasks)
	c.handle(r, http.MethodGet, "/task/user/{userId}/tasks-report", c.userTaskReport)
	c.handle(r, http.MethodGet, "/task/{orgId}/supervisor/{supervisorId}/team-tasks", c.teamTasks)
	c.handle(r, http.MethodGet, "/task/{orgId}/admin/all-daily-tasks", c.adminDailyTasks)
}

func (c *Controller) handle(r *mux.Router, method, path string, h http.HandlerFunc) {
	r.Handle(path, c.authenticate(h)).Methods(method)
}

func (c *Controller) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.b.token != "" && r.Header.Get("Authorization") != "Bearer "+c.b.token {
			_ = httpapi.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewHandler builds the gzip-wrapped router serving b plus any extra controllers.
func NewHandler(b *Backend, log *logrus.Logger, extra ...server.Controller) http.Handler {
	return NewServer(b, log, extra...).Handler()
}

// NewServer wires the backend routes, JSON fallbacks and request logging.
func NewServer(b *Backend, log *logrus.Logger, extra ...server.Controller) *server.HTTPServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "Route not found")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httpapi.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	controllers := append([]server.Controller{NewController(b)}, extra...)
	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(log, middleware.DefaultLoggerOptions()),
	}
	return server.NewHTTPServer(controllers, middlewares, notFound, notAllowed)
}

func (c *Controller) checkOrg(w http.ResponseWriter, r *http.Request) bool {
	if domain.ID(mux.Vars(r)["orgId"]) != c.b.orgID {
		_ = httpapi.WriteError(w, http.StatusNotFound, "Organization not found")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func parseTaskQuery(r *http.Request) taskQuery {
	q := r.URL.Query()
	return taskQuery{
		Status:     q.Get("status"),
		StartDate:  q.Get("startDate"),
		EndDate:    q.Get("endDate"),
		UserName:   q.Get("userName"),
		UserLevel:  q.Get("userLevel"),
		Company:    q.Get("company"),
		Department: q.Get("department"),
		Project:    q.Get("project"),
	}
}

func (c *Controller) getPositions(w http.ResponseWriter, r *http.Request) {
	key := domain.ID(mux.Vars(r)["key"])
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if key == c.b.orgID {
		_ = httpapi.WriteData(w, http.StatusOK, c.b.positions, nil)
		return
	}
	i := domain.IndexOfPosition(c.b.positions, key)
	if i < 0 {
		_ = httpapi.WriteError(w, http.StatusNotFound, "Position not found")
		return
	}
	_ = httpapi.WriteData(w, http.StatusOK, c.b.positions[i], nil)
}

func (c *Controller) listSupervisors(w http.ResponseWriter, r *http.Request) {
	if !c.checkOrg(w, r) {
		return
	}
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	out := make([]domain.Position, 0, len(c.b.positions))
	for _, p := range c.b.positions {
		if p.IsActive {
			out = append(out, p)
		}
	}
	_ = httpapi.WriteData(w, http.StatusOK, out, nil)
}

func (c *Controller) positionHierarchy(w http.ResponseWriter, r *http.Request) {
	if !c.checkOrg(w, r) {
		return
	}
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	_ = httpapi.WriteData(w, http.StatusOK, c.b.hierarchy(), nil)
}

func (c *Controller) createPosition(w http.ResponseWriter, r *http.Request) {
	var body struct {
		domain.PositionInput
		OrganizationID domain.ID `json:"organizationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if body.OrganizationID != c.b.orgID {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Unknown organization")
		return
	}
	if err := body.PositionInput.Validate(""); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	now := c.b.now().UTC()
	p := domain.Position{ID: c.b.newID(), IsActive: true, CreatedAt: &now, UpdatedAt: &now}
	c.b.resolvePosition(&p, body.PositionInput)
	c.b.positions = append(c.b.positions, p)
	_ = httpapi.WriteData(w, http.StatusCreated, p, nil)
}

func (c *Controller) updatePosition(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(mux.Vars(r)["id"])
	patch, err := io.ReadAll(r.Body)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	i := domain.IndexOfPosition(c.b.positions, id)
	if i < 0 {
		_ = httpapi.WriteError(w, http.StatusNotFound, "Position not found")
		return
	}
	current, err := json.Marshal(domain.InputFromPosition(c.b.positions[i]))
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid merge patch")
		return
	}
	var in domain.PositionInput
	if err := json.Unmarshal(merged, &in); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid merge patch")
		return
	}
	if err := in.Validate(id); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := c.b.positions[i]
	c.b.resolvePosition(&p, in)
	now := c.b.now().UTC()
	p.UpdatedAt = &now
	c.b.positions[i] = p
	_ = httpapi.WriteData(w, http.StatusOK, p, nil)
}

func (c *Controller) deletePosition(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(mux.Vars(r)["id"])
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	i := domain.IndexOfPosition(c.b.positions, id)
	if i < 0 {
		_ = httpapi.WriteError(w, http.StatusNotFound, "Position not found")
		return
	}
	for _, p := range c.b.positions {
		if p.DirectSupervisor != nil && p.DirectSupervisor.ID == id {
			_ = httpapi.WriteError(w, http.StatusConflict, "Position has subordinates")
			return
		}
	}
	c.b.positions = append(c.b.positions[:i:i], c.b.positions[i+1:]...)
	_ = httpapi.WriteData(w, http.StatusOK, nil, nil)
}

func (c *Controller) teamMembers(w http.ResponseWriter, r *http.Request) {
	if !c.checkOrg(w, r) {
		return
	}
	sid := domain.ID(mux.Vars(r)["supervisorId"])
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	out := append(c.b.chainAbove(sid), c.b.allReports(sid)...)
	if out == nil {
		out = []domain.Member{}
	}
	_ = httpapi.WriteData(w, http.StatusOK, out, nil)
}

func (c *Controller) teamTasks(w http.ResponseWriter, r *http.Request) {
	if !c.checkOrg(w, r) {
		return
	}
	sid := domain.ID(mux.Vars(r)["supervisorId"])
	q := parseTaskQuery(r)
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	items := []domain.MemberSubmissions{}
	for _, m := range c.b.directReports(sid) {
		if q.memberMatches(m) {
			items = append(items, c.b.submissions(m, q))
		}
	}
	page, pg := paginate(items, queryInt(r, "page"), queryInt(r, "limit"))
	_ = httpapi.WriteData(w, http.StatusOK, page, &httpapi.Pagination{
		CurrentPage: pg.CurrentPage,
		TotalPages:  pg.TotalPages,
		TotalItems:  pg.TotalItems,
	})
}

func (c *Controller) hierarchicalTasks(w http.ResponseWriter, r *http.Request) {
	sid := domain.ID(mux.Vars(r)["supervisorId"])
	q := parseTaskQuery(r)
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	out := domain.HierarchicalReviews{
		HierarchicalReviews: []domain.MemberSubmissions{},
		TeamReviews:         []domain.TeamReview{},
	}
	for _, m := range c.b.allReports(sid) {
		if q.memberMatches(m) {
			out.HierarchicalReviews = append(out.HierarchicalReviews, c.b.submissions(m, q))
		}
	}
	for _, t := range c.b.teams {
		if t.Supervisor == nil || t.Supervisor.ID != sid {
			continue
		}
		tr := domain.TeamReview{Team: t, Members: []domain.MemberSubmissions{}}
		for _, m := range t.Members {
			if q.memberMatches(m) {
				tr.Members = append(tr.Members, c.b.submissions(m, q))
			}
		}
		tr.Team.Members = nil
		out.TeamReviews = append(out.TeamReviews, tr)
	}
	_ = httpapi.WriteData(w, http.StatusOK, out, nil)
}

func (c *Controller) adminDailyTasks(w http.ResponseWriter, r *http.Request) {
	if !c.checkOrg(w, r) {
		return
	}
	q := parseTaskQuery(r)
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	items := []domain.AdminMemberTasks{}
	for _, m := range c.b.members {
		if q.memberMatches(m) {
			items = append(items, c.b.memberTasks(m, q))
		}
	}
	page, pg := paginate(items, queryInt(r, "page"), queryInt(r, "limit"))
	_ = httpapi.WriteData(w, http.StatusOK, page, &httpapi.Pagination{
		CurrentPage: pg.CurrentPage,
		TotalPages:  pg.TotalPages,
		TotalItems:  pg.TotalItems,
	})
}

func (c *Controller) teamsDailyTasks(w http.ResponseWriter, r *http.Request) {
	if !c.checkOrg(w, r) {
		return
	}
	q := parseTaskQuery(r)
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	out := make([]domain.TeamDailyTasks, 0, len(c.b.teams))
	for _, t := range c.b.teams {
		entry := domain.TeamDailyTasks{Team: t, Members: []domain.AdminMemberTasks{}}
		for _, m := range t.Members {
			entry.Members = append(entry.Members, c.b.memberTasks(m, q))
		}
		entry.Team.Members = nil
		out = append(out, entry)
	}
	_ = httpapi.WriteData(w, http.StatusOK, out, nil)
}

func (c *Controller) userTaskReport(w http.ResponseWriter, r *http.Request) {
	uid := domain.ID(mux.Vars(r)["userId"])
	q := parseTaskQuery(r)
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	m, ok := c.b.member(uid)
	if !ok {
		_ = httpapi.WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	days, pg := paginate(byDay(c.b.tasksOf(m, q)), queryInt(r, "page"), queryInt(r, "limit"))
	_ = httpapi.WriteData(w, http.StatusOK, domain.UserTaskReport{
		User:        m,
		Submissions: days,
		Pagination:  &pg,
	}, nil)
}

func (c *Controller) furtherReviewQueue(w http.ResponseWriter, r *http.Request) {
	sid := domain.ID(mux.Vars(r)["supervisorId"])
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	out := []domain.Task{}
	for _, t := range c.b.tasks {
		if t.Review.Kind == domain.ReviewFurtherReview && t.Review.Forwarding != nil &&
			t.Review.Forwarding.TargetSupervisorID == sid {
			out = append(out, t)
		}
	}
	_ = httpapi.WriteData(w, http.StatusOK, out, nil)
}

type reviewBody struct {
	Status                    string    `json:"status"`
	Comment                   string    `json:"comment"`
	FurtherReviewSupervisorID domain.ID `json:"furtherReviewSupervisorId"`
	ReviewComment             string    `json:"reviewComment"`
}

func (c *Controller) submitReview(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(mux.Vars(r)["taskId"])
	var body reviewBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	kind, err := domain.ParseReviewKind(body.Status)
	if err != nil || kind == domain.ReviewPending {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Invalid review status")
		return
	}
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	idx := -1
	for i := range c.b.tasks {
		if c.b.tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		_ = httpapi.WriteError(w, http.StatusNotFound, "Task not found")
		return
	}
	task := c.b.tasks[idx]
	if task.Review.Reviewed() {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "Task has already been reviewed")
		return
	}
	reviewer := c.b.userID
	now := c.b.now().UTC().Truncate(time.Second)
	var review domain.ReviewState
	switch kind {
	case domain.ReviewApproved:
		review = domain.ApprovedBy(reviewer, now)
	case domain.ReviewRejected:
		review = domain.RejectedBy(reviewer, now)
	default:
		if body.FurtherReviewSupervisorID.IsZero() || strings.TrimSpace(body.ReviewComment) == "" {
			_ = httpapi.WriteError(w, http.StatusBadRequest, "Further review requires a supervisor and a comment")
			return
		}
		review = domain.ForwardedBy(reviewer, now, body.FurtherReviewSupervisorID, body.ReviewComment)
	}
	var comment *domain.Comment
	if text := strings.TrimSpace(body.Comment); text != "" {
		comment = &domain.Comment{Text: text, AuthorID: reviewer, CreatedAt: now}
		if m, ok := c.b.member(reviewer); ok {
			comment.AuthorName = m.DisplayName()
		}
	}
	task = task.WithReview(review, comment)
	task.UpdatedAt = &now
	c.b.tasks[idx] = task
	_ = httpapi.WriteData(w, http.StatusOK, task, nil)
}
