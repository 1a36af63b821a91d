package aggregation

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/iota-uz/taskdesk/modules/review/domain"
)

type set map[string]struct{}

func (s set) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

// relation maps a case-folded parent label to the display labels under it.
// Filters match labels case-insensitively, so lookups fold the same way.
type relation map[string]set

func fold(v string) string {
	return cases.Fold().String(v)
}

func (r relation) link(from, to string) {
	if from == "" || to == "" {
		return
	}
	key := fold(from)
	s, ok := r[key]
	if !ok {
		s = set{}
		r[key] = s
	}
	s[to] = struct{}{}
}

func (r relation) under(key string) set {
	return r[fold(key)]
}

// Index holds the distinct companies, departments, teams and users of a
// collection and how they relate. Companies and departments come from member
// profiles and from each task record.
type Index struct {
	companies   set
	departments set
	teams       set
	users       set

	companyDepartments relation
	companyUsers       relation
	companyTeams       relation
	departmentUsers    relation
	departmentTeams    relation
	teamUsers          relation
}

// BuildIndex scans records once.
func BuildIndex(records []Record) *Index {
	ix := &Index{
		companies:          set{},
		departments:        set{},
		teams:              set{},
		users:              set{},
		companyDepartments: relation{},
		companyUsers:       relation{},
		companyTeams:       relation{},
		departmentUsers:    relation{},
		departmentTeams:    relation{},
		teamUsers:          relation{},
	}
	for _, r := range records {
		user := r.Member.Key()
		teams := r.Teams()
		ix.users.add(user)
		for _, t := range teams {
			ix.teams.add(t)
			ix.teamUsers.link(t, user)
		}
		ix.place(user, teams, r.Member.Company.Label(), r.Member.Department.Label())
		for _, t := range r.Tasks {
			ix.place(user, teams, r.company(t), r.department(t))
		}
	}
	return ix
}

func (ix *Index) place(user string, teams []string, company, department string) {
	ix.companies.add(company)
	ix.departments.add(department)
	ix.companyDepartments.link(company, department)
	ix.companyUsers.link(company, user)
	ix.departmentUsers.link(department, user)
	for _, t := range teams {
		ix.companyTeams.link(company, t)
		ix.departmentTeams.link(department, t)
	}
}

func sorted(s set) []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	collate.New(language.English, collate.IgnoreCase).SortStrings(out)
	return out
}

// narrow intersects base with rel[key] when key is set.
func narrow(base set, rel relation, key string, ok bool) set {
	if !ok {
		return base
	}
	allowed := rel.under(key)
	out := set{}
	for v := range base {
		if _, hit := allowed[v]; hit {
			out[v] = struct{}{}
		}
	}
	return out
}

func (ix *Index) Companies() []string {
	return sorted(ix.companies)
}

// Departments lists departments under the selected company.
func (ix *Index) Departments(f domain.Filters) []string {
	company, hasCompany := f.Get(domain.FilterCompany)
	return sorted(narrow(ix.departments, ix.companyDepartments, company, hasCompany))
}

// Teams lists teams under the selected company and department.
func (ix *Index) Teams(f domain.Filters) []string {
	company, hasCompany := f.Get(domain.FilterCompany)
	department, hasDepartment := f.Get(domain.FilterDepartment)
	out := narrow(ix.teams, ix.companyTeams, company, hasCompany)
	out = narrow(out, ix.departmentTeams, department, hasDepartment)
	return sorted(out)
}

// Users lists users under every selected ancestor.
func (ix *Index) Users(f domain.Filters) []string {
	company, hasCompany := f.Get(domain.FilterCompany)
	department, hasDepartment := f.Get(domain.FilterDepartment)
	team, hasTeam := f.Get(domain.FilterTeam)
	out := narrow(ix.users, ix.companyUsers, company, hasCompany)
	out = narrow(out, ix.departmentUsers, department, hasDepartment)
	out = narrow(out, ix.teamUsers, team, hasTeam)
	return sorted(out)
}
