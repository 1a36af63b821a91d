package domain

import (
	"fmt"
	"net/url"
	"strings"
)

type FilterField string

const (
	FilterStatus       FilterField = "status"
	FilterReviewStatus FilterField = "review_status"
	FilterStartDate    FilterField = "start_date"
	FilterEndDate      FilterField = "end_date"
	FilterCompany      FilterField = "company"
	FilterDepartment   FilterField = "department"
	FilterTeam         FilterField = "team"
	FilterUserName     FilterField = "user_name"
	FilterUserLevel    FilterField = "user_level"
	FilterProject      FilterField = "project"
	FilterSearch       FilterField = "search"
)

var filterFields = []FilterField{
	FilterStatus, FilterReviewStatus, FilterStartDate, FilterEndDate,
	FilterCompany, FilterDepartment, FilterTeam, FilterUserName,
	FilterUserLevel, FilterProject, FilterSearch,
}

func ParseFilterField(s string) (FilterField, error) {
	key := FilterField(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, f := range filterFields {
		if f == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// Filters is the user's current narrowing criteria. A nil field is unset.
type Filters struct {
	Status       *string `json:"status"`
	ReviewStatus *string `json:"review_status"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Company      *string `json:"company"`
	Department   *string `json:"department"`
	Team         *string `json:"team"`
	UserName     *string `json:"user_name"`
	UserLevel    *string `json:"user_level"`
	Project      *string `json:"project"`
	Search       *string `json:"search"`
}

// DefaultFilters is the explicit all-unset record restored by a reset.
func DefaultFilters() Filters {
	return Filters{}
}

func (f *Filters) slot(field FilterField) **string {
	switch field {
	case FilterStatus:
		return &f.Status
	case FilterReviewStatus:
		return &f.ReviewStatus
	case FilterStartDate:
		return &f.StartDate
	case FilterEndDate:
		return &f.EndDate
	case FilterCompany:
		return &f.Company
	case FilterDepartment:
		return &f.Department
	case FilterTeam:
		return &f.Team
	case FilterUserName:
		return &f.UserName
	case FilterUserLevel:
		return &f.UserLevel
	case FilterProject:
		return &f.Project
	case FilterSearch:
		return &f.Search
	default:
		return nil
	}
}

// Get returns the value of field and whether it is set.
func (f Filters) Get(field FilterField) (string, bool) {
	p := f.slot(field)
	if p == nil || *p == nil {
		return "", false
	}
	return **p, true
}

// Set merges one field into a copy of f. An empty value unsets the field.
// Changing company clears department, team and user; changing department
// clears team and user; changing team clears user.
func (f Filters) Set(field FilterField, value string) (Filters, error) {
	p := f.slot(field)
	if p == nil {
		return f, fmt.Errorf("unknown filter %q", field)
	}
	value = strings.TrimSpace(value)
	prev, wasSet := f.Get(field)

	if value == "" {
		*p = nil
	} else {
		v := value
		*p = &v
	}
	if wasSet == (value != "") && prev == value {
		return f, nil
	}

	switch field {
	case FilterCompany:
		f.Department, f.Team, f.UserName = nil, nil, nil
	case FilterDepartment:
		f.Team, f.UserName = nil, nil
	case FilterTeam:
		f.UserName = nil
	}
	return f, nil
}

// MustSet is Set for fields known at compile time.
func (f Filters) MustSet(field FilterField, value string) Filters {
	out, err := f.Set(field, value)
	if err != nil {
		panic(err)
	}
	return out
}

// IsZero reports whether no field is set.
func (f Filters) IsZero() bool {
	for _, field := range filterFields {
		if _, ok := f.Get(field); ok {
			return false
		}
	}
	return true
}

// Query renders the filters the team-tasks endpoint understands.
func (f Filters) Query() url.Values {
	q := url.Values{}
	params := []struct {
		key   string
		field FilterField
	}{
		{"status", FilterStatus},
		{"startDate", FilterStartDate},
		{"endDate", FilterEndDate},
		{"userName", FilterUserName},
		{"userLevel", FilterUserLevel},
		{"company", FilterCompany},
		{"department", FilterDepartment},
		{"project", FilterProject},
	}
	for _, p := range params {
		if v, ok := f.Get(p.field); ok {
			q.Set(p.key, v)
		}
	}
	return q
}
