// Package stubapi is an in-memory rendition of the task/position/user backend.
// It serves the same envelope and paths as the real service and backs the
// client tests and the taskdesk-stub command.
package stubapi

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

// Options configure a Backend. Token is the bearer token every request must
// carry (empty disables the check); UserID is the user it belongs to and signs
// review decisions.
type Options struct {
	OrgID  domain.ID
	Token  string
	UserID domain.ID
	Now    func() time.Time
}

type Backend struct {
	mu sync.Mutex

	orgID  domain.ID
	token  string
	userID domain.ID
	now    func() time.Time

	companies   map[domain.ID]domain.Ref
	departments map[domain.ID]domain.Ref
	levels      map[domain.ID]domain.Level

	members    []domain.Member
	supervisor map[domain.ID]domain.ID
	teams      []domain.Team
	tasks      []domain.Task
	positions  []domain.Position

	nextID int
}

func New(opts Options) *Backend {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	org := opts.OrgID
	if org.IsZero() {
		org = "1"
	}
	return &Backend{
		orgID:       org,
		token:       opts.Token,
		userID:      opts.UserID,
		now:         now,
		companies:   map[domain.ID]domain.Ref{},
		departments: map[domain.ID]domain.Ref{},
		levels:      map[domain.ID]domain.Level{},
		supervisor:  map[domain.ID]domain.ID{},
		nextID:      1000,
	}
}

func (b *Backend) OrgID() domain.ID { return b.orgID }

func (b *Backend) newID() domain.ID {
	b.nextID++
	return domain.ID(fmt.Sprint(b.nextID))
}

func (b *Backend) AddCompany(ref domain.Ref) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.companies[ref.ID] = ref
}

func (b *Backend) AddDepartment(ref domain.Ref) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.departments[ref.ID] = ref
}

func (b *Backend) AddLevel(l domain.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels[l.ID] = l
}

// AddMember registers m reporting to supervisor (empty for the top of the chain).
func (b *Backend) AddMember(m domain.Member, supervisor domain.ID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.members = append(b.members, m)
	if !supervisor.IsZero() {
		b.supervisor[m.ID] = supervisor
	}
}

// AddTeam registers t; its Members must already be added with AddMember.
func (b *Backend) AddTeam(t domain.Team) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t.MemberCount = len(t.Members)
	b.teams = append(b.teams, t)
}

// AddTask stores t and returns it with an id assigned when missing.
func (b *Backend) AddTask(t domain.Task) domain.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.ID.IsZero() {
		t.ID = b.newID()
	}
	if t.Review.Kind == "" {
		t.Review = domain.PendingReview()
	}
	b.tasks = append(b.tasks, t)
	return t
}

func (b *Backend) AddPosition(p domain.Position) domain.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = b.newID()
	}
	b.positions = append(b.positions, p)
	return p
}

func (b *Backend) Task(id domain.ID) (domain.Task, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

func (b *Backend) Positions() []domain.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Position(nil), b.positions...)
}

func (b *Backend) member(id domain.ID) (domain.Member, bool) {
	for _, m := range b.members {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Member{}, false
}

func (b *Backend) directReports(supervisor domain.ID) []domain.Member {
	var out []domain.Member
	for _, m := range b.members {
		if b.supervisor[m.ID] == supervisor {
			out = append(out, m)
		}
	}
	return out
}

// allReports walks the reporting chain below supervisor, breadth first.
func (b *Backend) allReports(supervisor domain.ID) []domain.Member {
	var out []domain.Member
	seen := map[domain.ID]bool{supervisor: true}
	queue := []domain.ID{supervisor}
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		for _, m := range b.directReports(head) {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
			queue = append(queue, m.ID)
		}
	}
	return out
}

func (b *Backend) chainAbove(id domain.ID) []domain.Member {
	var out []domain.Member
	seen := map[domain.ID]bool{id: true}
	for cur := b.supervisor[id]; !cur.IsZero() && !seen[cur]; cur = b.supervisor[cur] {
		seen[cur] = true
		if m, ok := b.member(cur); ok {
			out = append(out, m)
		}
	}
	return out
}

// taskQuery is the subset of the team-task query parameters the stub honors.
type taskQuery struct {
	Status     string
	StartDate  string
	EndDate    string
	UserName   string
	UserLevel  string
	Company    string
	Department string
	Project    string
}

func refMatches(r *domain.Ref, want string) bool {
	if r == nil {
		return false
	}
	return string(r.ID) == want || strings.EqualFold(r.Name, want)
}

func (q taskQuery) memberMatches(m domain.Member) bool {
	if q.UserName != "" {
		needle := strings.ToLower(q.UserName)
		if !strings.Contains(strings.ToLower(m.Username), needle) &&
			!strings.Contains(strings.ToLower(m.DisplayName()), needle) {
			return false
		}
	}
	if q.UserLevel != "" {
		if m.Level == nil {
			return false
		}
		if fmt.Sprint(m.Level.Rank) != q.UserLevel && !strings.EqualFold(m.Level.Name, q.UserLevel) {
			return false
		}
	}
	return true
}

func (q taskQuery) taskMatches(m domain.Member, t domain.Task) bool {
	if q.Status != "" && string(t.Status) != q.Status {
		return false
	}
	day := t.Day()
	if q.StartDate != "" && day < q.StartDate {
		return false
	}
	if q.EndDate != "" && day > q.EndDate {
		return false
	}
	if q.Project != "" && !strings.EqualFold(t.Project, q.Project) {
		return false
	}
	if q.Company != "" && !refMatches(t.Company, q.Company) && !refMatches(m.Company, q.Company) {
		return false
	}
	if q.Department != "" && !refMatches(t.Department, q.Department) && !refMatches(m.Department, q.Department) {
		return false
	}
	return true
}

func (b *Backend) tasksOf(m domain.Member, q taskQuery) []domain.Task {
	var out []domain.Task
	for _, t := range b.tasks {
		if t.UserID == m.ID && q.taskMatches(m, t) {
			out = append(out, t)
		}
	}
	return out
}

func byDay(tasks []domain.Task) []domain.DailySubmission {
	idx := map[string]int{}
	var out []domain.DailySubmission
	for _, t := range tasks {
		day := t.Day()
		i, ok := idx[day]
		if !ok {
			i = len(out)
			idx[day] = i
			out = append(out, domain.DailySubmission{Date: day})
		}
		out[i].Tasks = append(out[i].Tasks, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func (b *Backend) submissions(m domain.Member, q taskQuery) domain.MemberSubmissions {
	subs := map[string]domain.DailySubmission{}
	for _, d := range byDay(b.tasksOf(m, q)) {
		subs[d.Date] = d
	}
	return domain.MemberSubmissions{User: m, Submissions: subs}
}

func (b *Backend) memberTasks(m domain.Member, q taskQuery) domain.AdminMemberTasks {
	return domain.AdminMemberTasks{User: m, DailyTasks: byDay(b.tasksOf(m, q))}
}

func paginate[T any](items []T, page, limit int) ([]T, domain.Pagination) {
	if limit <= 0 {
		limit = 10
	}
	if page <= 0 {
		page = 1
	}
	total := len(items)
	pages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], domain.Pagination{CurrentPage: page, TotalPages: pages, TotalItems: total}
}

func (b *Backend) resolvePosition(p *domain.Position, in domain.PositionInput) {
	p.Title = in.Title
	p.Description = in.Description
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.Company = nil
	if !in.CompanyID.IsZero() {
		ref, ok := b.companies[in.CompanyID]
		if !ok {
			ref = domain.Ref{ID: in.CompanyID}
		}
		p.Company = &ref
	}
	p.Department = nil
	if !in.DepartmentID.IsZero() {
		ref, ok := b.departments[in.DepartmentID]
		if !ok {
			ref = domain.Ref{ID: in.DepartmentID}
		}
		p.Department = &ref
	}
	p.SupervisoryLevel = nil
	if !in.SupervisoryLevelID.IsZero() {
		l, ok := b.levels[in.SupervisoryLevelID]
		if !ok {
			l = domain.Level{ID: in.SupervisoryLevelID}
		}
		p.SupervisoryLevel = &l
	}
	p.DirectSupervisor = nil
	if !in.DirectSupervisorID.IsZero() {
		ref := domain.PositionRef{ID: in.DirectSupervisorID}
		if i := domain.IndexOfPosition(b.positions, in.DirectSupervisorID); i >= 0 {
			ref.Title = b.positions[i].Title
		}
		p.DirectSupervisor = &ref
	}
}

func (b *Backend) hierarchy() []domain.PositionNode {
	children := map[domain.ID][]domain.Position{}
	var roots []domain.Position
	for _, p := range b.positions {
		if p.DirectSupervisor == nil || domain.IndexOfPosition(b.positions, p.DirectSupervisor.ID) < 0 {
			roots = append(roots, p)
			continue
		}
		children[p.DirectSupervisor.ID] = append(children[p.DirectSupervisor.ID], p)
	}
	seen := map[domain.ID]bool{}
	var build func(p domain.Position) domain.PositionNode
	build = func(p domain.Position) domain.PositionNode {
		seen[p.ID] = true
		n := domain.PositionNode{Position: p}
		for _, c := range children[p.ID] {
			if !seen[c.ID] {
				n.Children = append(n.Children, build(c))
			}
		}
		return n
	}
	out := make([]domain.PositionNode, 0, len(roots))
	for _, r := range roots {
		out = append(out, build(r))
	}
	return out
}
