package stubapi

import (
	"time"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

// Fixture ids used by Seed.
const (
	DirectorID   domain.ID = "40"
	ManagerID    domain.ID = "10"
	PeerID       domain.ID = "20"
	LeadID       domain.ID = "11"
	SalesID      domain.ID = "12"
	ResearcherID domain.ID = "13"
)

func ref(id domain.ID, name string) *domain.Ref {
	return &domain.Ref{ID: id, Name: name}
}

func level(id domain.ID, name string, rank int) *domain.Level {
	return &domain.Level{ID: id, Name: name, Rank: rank}
}

// Seed fills b with a small organization: a director, two managers, one
// manager's reports across two companies, a team and a position chain.
func Seed(b *Backend) {
	acme := ref("c1", "Acme")
	globex := ref("c2", "Globex")
	eng := ref("d1", "Engineering")
	sales := ref("d2", "Sales")
	research := ref("d3", "Research")
	for _, c := range []*domain.Ref{acme, globex} {
		b.AddCompany(*c)
	}
	for _, d := range []*domain.Ref{eng, sales, research} {
		b.AddDepartment(*d)
	}
	staff := level("l1", "Staff", 1)
	lead := level("l2", "Lead", 2)
	manager := level("l3", "Manager", 3)
	director := level("l4", "Director", 4)
	for _, l := range []*domain.Level{staff, lead, manager, director} {
		b.AddLevel(*l)
	}

	members := []struct {
		m          domain.Member
		supervisor domain.ID
	}{
		{domain.Member{ID: DirectorID, Username: "dana", FirstName: "Dana", LastName: "Reyes", Role: "director", Level: director, Company: acme}, ""},
		{domain.Member{ID: ManagerID, Username: "sam", FirstName: "Sam", LastName: "Ortiz", Role: "manager", Level: manager, Company: acme, Department: eng}, DirectorID},
		{domain.Member{ID: PeerID, Username: "max", FirstName: "Max", LastName: "Chen", Role: "manager", Level: manager, Company: acme, Department: sales}, DirectorID},
		{domain.Member{ID: LeadID, Username: "lee", FirstName: "Lee", LastName: "Park", Role: "lead", Level: lead, Company: acme, Department: eng, Teams: []string{"Platform"}}, ManagerID},
		{domain.Member{ID: SalesID, Username: "kim", FirstName: "Kim", LastName: "Novak", Role: "staff", Level: staff, Company: acme, Department: sales}, ManagerID},
		{domain.Member{ID: ResearcherID, Username: "ana", FirstName: "Ana", LastName: "Silva", Role: "staff", Level: staff, Company: globex, Department: research, Teams: []string{"Platform"}}, LeadID},
	}
	byID := map[domain.ID]domain.Member{}
	for _, e := range members {
		b.AddMember(e.m, e.supervisor)
		byID[e.m.ID] = e.m
	}
	b.AddTeam(domain.Team{
		ID:          "t1",
		Name:        "Platform",
		Description: "Shared services",
		IsActive:    true,
		Supervisor:  &domain.Ref{ID: ManagerID, Name: "Sam Ortiz"},
		Members:     []domain.Member{byID[LeadID], byID[ResearcherID]},
	})

	today := b.now().UTC()
	day := func(offset int) string {
		return today.AddDate(0, 0, -offset).Format(time.DateOnly)
	}
	at := func(offset int) *time.Time {
		t := today.AddDate(0, 0, -offset).Truncate(time.Hour)
		return &t
	}
	tasks := []domain.Task{
		{ID: "t-101", Title: "Migrate build cache", Status: domain.TaskCompleted, UserID: LeadID, Company: acme, Department: eng, Project: "Infra", Date: day(0), CreatedAt: at(0), UpdatedAt: at(0)},
		{ID: "t-102", Title: "Review deploy runbook", Status: domain.TaskInProgress, UserID: LeadID, Company: acme, Department: eng, Project: "Infra", Date: day(1), CreatedAt: at(1), UpdatedAt: at(1)},
		{ID: "t-103", Title: "Quarterly pipeline forecast", Status: domain.TaskCompleted, UserID: SalesID, Company: acme, Department: sales, Project: "Forecast", Date: day(0), CreatedAt: at(0), UpdatedAt: at(0)},
		{ID: "t-104", Title: "Lab notebook cleanup", Status: domain.TaskDelayed, UserID: ResearcherID, Company: globex, Department: research, Project: "Lab", Date: day(2), CreatedAt: at(2), UpdatedAt: at(2)},
		{ID: "t-105", Title: "Vendor call notes", Status: domain.TaskCompleted, UserID: SalesID, Company: acme, Department: sales, Project: "Forecast", Date: day(10), CreatedAt: at(10), UpdatedAt: at(10),
			Review: domain.ApprovedBy(ManagerID, *at(9))},
	}
	for _, t := range tasks {
		b.AddTask(t)
	}

	ceo := b.AddPosition(domain.Position{ID: "p1", Title: "Chief Executive", IsActive: true, Company: acme, SupervisoryLevel: director})
	cto := b.AddPosition(domain.Position{ID: "p2", Title: "Engineering Manager", IsActive: true, Company: acme, Department: eng, SupervisoryLevel: manager,
		DirectSupervisor: &domain.PositionRef{ID: ceo.ID, Title: ceo.Title}})
	b.AddPosition(domain.Position{ID: "p3", Title: "Platform Engineer", IsActive: true, Company: acme, Department: eng, SupervisoryLevel: staff,
		DirectSupervisor: &domain.PositionRef{ID: cto.ID, Title: cto.Title}})
}
