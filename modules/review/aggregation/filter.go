package aggregation

import (
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

// memberMatches applies the member-level filters: team, user and level.
func memberMatches(r Record, f domain.Filters) bool {
	if team, ok := f.Get(domain.FilterTeam); ok {
		found := false
		for _, t := range r.Teams() {
			if strings.EqualFold(t, team) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if user, ok := f.Get(domain.FilterUserName); ok {
		if !strings.EqualFold(r.Member.Key(), user) && !strings.EqualFold(r.Member.DisplayName(), user) {
			return false
		}
	}
	if level, ok := f.Get(domain.FilterUserLevel); ok {
		l := r.Member.Level
		if l == nil || (strconv.Itoa(l.Rank) != level && !strings.EqualFold(l.Name, level)) {
			return false
		}
	}
	return true
}

var taskFields = []domain.FilterField{
	domain.FilterCompany, domain.FilterDepartment, domain.FilterStatus,
	domain.FilterReviewStatus, domain.FilterStartDate, domain.FilterEndDate,
	domain.FilterProject, domain.FilterSearch,
}

func hasTaskFilter(f domain.Filters) bool {
	for _, field := range taskFields {
		if _, ok := f.Get(field); ok {
			return true
		}
	}
	return false
}

func taskMatches(r Record, t domain.Task, f domain.Filters) bool {
	if v, ok := f.Get(domain.FilterCompany); ok && !strings.EqualFold(r.company(t), v) {
		return false
	}
	if v, ok := f.Get(domain.FilterDepartment); ok && !strings.EqualFold(r.department(t), v) {
		return false
	}
	if v, ok := f.Get(domain.FilterStatus); ok && !strings.EqualFold(string(t.Status), v) {
		return false
	}
	if v, ok := f.Get(domain.FilterReviewStatus); ok {
		kind := t.Review.Kind
		if kind == "" {
			kind = domain.ReviewPending
		}
		if !strings.EqualFold(string(kind), v) {
			return false
		}
	}
	day := t.Day()
	if v, ok := f.Get(domain.FilterStartDate); ok && (day == "" || day < v) {
		return false
	}
	if v, ok := f.Get(domain.FilterEndDate); ok && (day == "" || day > v) {
		return false
	}
	if v, ok := f.Get(domain.FilterProject); ok && !strings.EqualFold(t.Project, v) {
		return false
	}
	if v, ok := f.Get(domain.FilterSearch); ok && !searchMatches(r, t, v) {
		return false
	}
	return true
}

func searchMatches(r Record, t domain.Task, needle string) bool {
	for _, hay := range []string{t.Title, t.Description, t.Project, r.Member.DisplayName(), r.Member.Username} {
		if hay != "" && fuzzy.MatchNormalizedFold(needle, hay) {
			return true
		}
	}
	return false
}

// Apply narrows records to the filters. A record survives when its member
// passes the member-level filters and, if any task-level filter is set, at
// least one of its tasks does. Surviving records carry only matching tasks.
func Apply(records []Record, f domain.Filters) []Record {
	if records == nil {
		return nil
	}
	taskLevel := hasTaskFilter(f)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !memberMatches(r, f) {
			continue
		}
		if !taskLevel {
			out = append(out, r)
			continue
		}
		var tasks []domain.Task
		for _, t := range r.Tasks {
			if taskMatches(r, t, f) {
				tasks = append(tasks, t)
			}
		}
		if len(tasks) == 0 {
			continue
		}
		r.Tasks = tasks
		out = append(out, r)
	}
	return out
}
