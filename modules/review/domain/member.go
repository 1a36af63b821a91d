package domain

import "strings"

// Member is a user as seen by the review dashboard: a task submitter and a
// candidate reviewer.
type Member struct {
	ID         ID       `json:"id"`
	Username   string   `json:"username"`
	FirstName  string   `json:"first_name,omitempty"`
	LastName   string   `json:"last_name,omitempty"`
	Role       string   `json:"role,omitempty"`
	Level      *Level   `json:"level,omitempty"`
	Department *Ref     `json:"department,omitempty"`
	Company    *Ref     `json:"company,omitempty"`
	Teams      []string `json:"teams,omitempty"`
}

func (m Member) DisplayName() string {
	name := strings.TrimSpace(m.FirstName + " " + m.LastName)
	if name != "" {
		return name
	}
	if m.Username != "" {
		return m.Username
	}
	return string(m.ID)
}

// Key identifies the member in filter candidate lists.
func (m Member) Key() string {
	if m.Username != "" {
		return m.Username
	}
	return string(m.ID)
}

// Rank is the supervisory rank, 0 when unknown.
func (m Member) Rank() int {
	if m.Level == nil {
		return 0
	}
	return m.Level.Rank
}

type Team struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	IsActive    bool     `json:"is_active"`
	MemberCount int      `json:"member_count"`
	Supervisor  *Ref     `json:"supervisor,omitempty"`
	Members     []Member `json:"members,omitempty"`
}
