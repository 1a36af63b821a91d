// Package aggregation derives cascading filter candidates and dashboard
// counts from loaded task collections. Everything here is pure.
package aggregation

import (
	"slices"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

// Record is one member with the tasks a collection holds for them. Groups
// lists the teams the member was listed under when the collection is grouped
// by team.
type Record struct {
	Member domain.Member
	Groups []string
	Tasks  []domain.Task
}

// Teams returns the grouping teams plus the member's own team names, without duplicates.
func (r Record) Teams() []string {
	out := make([]string, 0, len(r.Groups)+len(r.Member.Teams))
	seen := map[string]bool{}
	for _, t := range append(append([]string(nil), r.Groups...), r.Member.Teams...) {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// company returns the label of the task's company, falling back to the member's.
func (r Record) company(t domain.Task) string {
	if l := t.Company.Label(); l != "" {
		return l
	}
	return r.Member.Company.Label()
}

func (r Record) department(t domain.Task) string {
	if l := t.Department.Label(); l != "" {
		return l
	}
	return r.Member.Department.Label()
}

func RecordsFromTeamTasks(list []domain.MemberSubmissions) []Record {
	if list == nil {
		return nil
	}
	out := make([]Record, 0, len(list))
	for _, m := range list {
		out = append(out, Record{Member: m.User, Tasks: m.Tasks()})
	}
	return out
}

// merger folds the entries of one member into a single record, so a member
// listed both directly and under a team, or under several teams, is counted once.
type merger struct {
	out   []Record
	index map[string]int
	seen  []map[domain.ID]bool
}

func newMerger() *merger {
	return &merger{out: []Record{}, index: map[string]int{}}
}

func (m *merger) add(member domain.Member, team string, tasks []domain.Task) {
	i, ok := m.index[member.Key()]
	if !ok {
		i = len(m.out)
		m.index[member.Key()] = i
		m.out = append(m.out, Record{Member: member})
		m.seen = append(m.seen, map[domain.ID]bool{})
	}
	r := &m.out[i]
	if team != "" && !slices.Contains(r.Groups, team) {
		r.Groups = append(r.Groups, team)
	}
	for _, t := range tasks {
		if !t.ID.IsZero() {
			if m.seen[i][t.ID] {
				continue
			}
			m.seen[i][t.ID] = true
		}
		r.Tasks = append(r.Tasks, t)
	}
}

// RecordsFromHierarchical merges the direct list and the team lists by member.
func RecordsFromHierarchical(h domain.HierarchicalReviews) []Record {
	if h.HierarchicalReviews == nil && h.TeamReviews == nil {
		return nil
	}
	m := newMerger()
	for _, s := range h.HierarchicalReviews {
		m.add(s.User, "", s.Tasks())
	}
	for _, tr := range h.TeamReviews {
		for _, s := range tr.Members {
			m.add(s.User, tr.Team.Name, s.Tasks())
		}
	}
	return m.out
}

func RecordsFromAdmin(list []domain.AdminMemberTasks) []Record {
	if list == nil {
		return nil
	}
	out := make([]Record, 0, len(list))
	for _, m := range list {
		out = append(out, Record{Member: m.User, Tasks: m.Tasks()})
	}
	return out
}

// RecordsFromTeamsDaily merges members that sit on several teams.
func RecordsFromTeamsDaily(list []domain.TeamDailyTasks) []Record {
	if list == nil {
		return nil
	}
	m := newMerger()
	for _, td := range list {
		for _, a := range td.Members {
			m.add(a.User, td.Team.Name, a.Tasks())
		}
	}
	return m.out
}

// RecordsFromReport wraps a single user's report.
func RecordsFromReport(r *domain.UserTaskReport) []Record {
	if r == nil {
		return nil
	}
	return []Record{{Member: r.User, Tasks: r.Tasks()}}
}
