package domain

import "sort"

// DailySubmission bundles the tasks one user submitted on one day.
type DailySubmission struct {
	Date  string `json:"date"`
	Tasks []Task `json:"tasks"`
}

// MemberSubmissions is one entry of the team-tasks collection:
// a member and their submissions keyed by date.
type MemberSubmissions struct {
	User        Member                     `json:"user"`
	Submissions map[string]DailySubmission `json:"submissions"`
}

// Dates returns the submission dates, newest first.
func (m MemberSubmissions) Dates() []string {
	out := make([]string, 0, len(m.Submissions))
	for d := range m.Submissions {
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// Tasks flattens the submissions, newest date first.
func (m MemberSubmissions) Tasks() []Task {
	var out []Task
	for _, d := range m.Dates() {
		out = append(out, m.Submissions[d].Tasks...)
	}
	return out
}

type TeamReview struct {
	Team    Team                `json:"team"`
	Members []MemberSubmissions `json:"members"`
}

// HierarchicalReviews separates direct reports from named team rosters.
type HierarchicalReviews struct {
	HierarchicalReviews []MemberSubmissions `json:"hierarchical_reviews"`
	TeamReviews         []TeamReview        `json:"team_reviews"`
}

// AdminMemberTasks is one member of the organization-wide daily-task view.
type AdminMemberTasks struct {
	User       Member            `json:"user"`
	DailyTasks []DailySubmission `json:"daily_tasks"`
}

func (a AdminMemberTasks) Tasks() []Task {
	var out []Task
	for _, d := range a.DailyTasks {
		out = append(out, d.Tasks...)
	}
	return out
}

type TeamDailyTasks struct {
	Team    Team               `json:"team"`
	Members []AdminMemberTasks `json:"members"`
}

type UserTaskReport struct {
	User        Member            `json:"user"`
	Submissions []DailySubmission `json:"submissions"`
	Pagination  *Pagination       `json:"pagination,omitempty"`
}

func (r UserTaskReport) Tasks() []Task {
	var out []Task
	for _, d := range r.Submissions {
		out = append(out, d.Tasks...)
	}
	return out
}
