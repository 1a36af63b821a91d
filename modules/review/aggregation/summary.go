package aggregation

import (
	"sort"
	"time"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

const recentWindow = 7 * 24 * time.Hour

// Summary holds the dashboard counts of one collection. Tasks without a
// company or department are left out of the respective tallies.
type Summary struct {
	Members          int
	Tasks            int
	Reviewed         int
	UpdatedLast7Days int
	ByReview         map[domain.ReviewKind]int
	ByStatus         map[domain.TaskStatus]int
	ByDepartment     map[string]int
	ByCompany        map[string]int
}

// Summarize computes every count in a single pass over records.
func Summarize(records []Record, now time.Time) Summary {
	s := Summary{
		Members:      len(records),
		ByReview:     map[domain.ReviewKind]int{},
		ByStatus:     map[domain.TaskStatus]int{},
		ByDepartment: map[string]int{},
		ByCompany:    map[string]int{},
	}
	since := now.Add(-recentWindow)
	for _, r := range records {
		for _, t := range r.Tasks {
			s.Tasks++
			kind := t.Review.Kind
			if kind == "" {
				kind = domain.ReviewPending
			}
			s.ByReview[kind]++
			if t.Status != "" {
				s.ByStatus[t.Status]++
			}
			if t.Review.Reviewed() {
				s.Reviewed++
			}
			if c := r.company(t); c != "" {
				s.ByCompany[c]++
			}
			if d := r.department(t); d != "" {
				s.ByDepartment[d]++
			}
			if ts := touched(t); ts != nil && !ts.Before(since) && !ts.After(now) {
				s.UpdatedLast7Days++
			}
		}
	}
	return s
}

func touched(t domain.Task) *time.Time {
	if t.UpdatedAt != nil {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// FurtherReviewCandidates returns the members ranked strictly above reviewer,
// excluding the reviewer, lowest rank first.
func FurtherReviewCandidates(members []domain.Member, reviewer domain.Member) []domain.Member {
	rank := reviewer.Rank()
	seen := map[domain.ID]bool{reviewer.ID: true}
	var out []domain.Member
	for _, m := range members {
		if seen[m.ID] || m.Rank() <= rank {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank() != out[j].Rank() {
			return out[i].Rank() < out[j].Rank()
		}
		return out[i].DisplayName() < out[j].DisplayName()
	})
	return out
}

// Reviewer finds id among members, returning a bare member when absent.
func Reviewer(members []domain.Member, id domain.ID) domain.Member {
	for _, m := range members {
		if m.ID == id {
			return m
		}
	}
	return domain.Member{ID: id}
}
