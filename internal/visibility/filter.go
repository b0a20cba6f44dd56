// Package visibility scopes the resolved graph to what each role may see.
package visibility

import (
	"housingcore/internal/eligibility"
	"housingcore/internal/graph"
	"housingcore/pkg/domain"
)

// Filter answers role-scoped queries over a graph. Results are in store
// order and never include entities the account may not see.
type Filter struct {
	g *graph.Graph
}

// New returns a filter over g.
func New(g *graph.Graph) *Filter { return &Filter{g: g} }

// ProjectsFor returns the projects acc may browse.
//
// Applicants see visible projects offering at least one flat type open to
// them, plus the project they applied to even once hidden. Officers see the
// visible projects outside their prohibited set; the projects they handle are
// listed by HandledProjectsFor instead. Managers see all projects.
func (f *Filter) ProjectsFor(acc domain.Account) []*domain.Project {
	switch u := acc.(type) {
	case *domain.Applicant:
		return f.projects(func(p *domain.Project) bool {
			if p.ID == u.AppliedProjectID {
				return true
			}
			return p.Visible && eligibility.OffersVisibleFlatType(u, p)
		})
	case *domain.Officer:
		return f.projects(func(p *domain.Project) bool {
			return p.Visible && !u.ProhibitedProjects.Contains(p.ID)
		})
	case *domain.Manager:
		return f.projects(func(*domain.Project) bool { return true })
	default:
		return nil
	}
}

// RegisterableProjectsFor lists the visible projects o could register for now.
func (f *Filter) RegisterableProjectsFor(o *domain.Officer) []*domain.Project {
	joined := f.g.JoinedProjectsOf(o)
	return f.projects(func(p *domain.Project) bool {
		return p.Visible && eligibility.OfficerCanRegister(o, p, joined).Allowed
	})
}

// HandledProjectsFor lists the projects o joined or registered for, hidden
// ones included.
func (f *Filter) HandledProjectsFor(o *domain.Officer) []*domain.Project {
	return f.projects(func(p *domain.Project) bool {
		return o.JoinedProjects.Contains(p.ID) || o.RegisteredProjects.Contains(p.ID)
	})
}

// ManagedProjectsFor lists the projects m owns.
func (f *Filter) ManagedProjectsFor(m *domain.Manager) []*domain.Project {
	return f.g.ProjectsOwnedBy(m.ID)
}

// FlatTypesFor returns the flat types of p the applicant may apply for.
func (f *Filter) FlatTypesFor(a *domain.Applicant, p *domain.Project) []domain.FlatType {
	var out []domain.FlatType
	for _, ft := range eligibility.VisibleFlatTypes(a) {
		if p.Offers(ft) {
			out = append(out, ft)
		}
	}
	return out
}

// ApplicationsFor returns the applications acc may review.
// Applicants see their own; officers see their registrations and the
// applicant filings on projects they joined; managers see everything filed
// against projects they own.
func (f *Filter) ApplicationsFor(acc domain.Account) []*domain.Application {
	switch u := acc.(type) {
	case *domain.Applicant:
		return f.g.ApplicationsBy(u.ID)
	case *domain.Officer:
		return f.applications(func(a *domain.Application) bool {
			if a.UserID == u.ID {
				return true
			}
			return a.Kind != domain.KindRegistration && u.JoinedProjects.Contains(a.ProjectID)
		})
	case *domain.Manager:
		return f.applications(func(a *domain.Application) bool {
			p, ok := f.g.Project(a.ProjectID)
			return ok && u.Handles(p)
		})
	default:
		return nil
	}
}

// EnquiriesFor returns the enquiries acc may read. Every user sees their own;
// officials also see the enquiries of projects they handle, and managers see
// all of them.
func (f *Filter) EnquiriesFor(acc domain.Account) []*domain.Enquiry {
	switch u := acc.(type) {
	case *domain.Applicant:
		return f.g.EnquiriesBy(u.ID)
	case *domain.Officer:
		return f.enquiries(func(e *domain.Enquiry) bool {
			return e.FilerID == u.ID || u.JoinedProjects.Contains(e.ProjectID)
		})
	case *domain.Manager:
		return f.enquiries(func(*domain.Enquiry) bool { return true })
	default:
		return nil
	}
}

// CanSeeProject reports whether p is in acc's project view.
func (f *Filter) CanSeeProject(acc domain.Account, p *domain.Project) bool {
	for _, v := range f.ProjectsFor(acc) {
		if v.ID == p.ID {
			return true
		}
	}
	return false
}

func (f *Filter) projects(keep func(*domain.Project) bool) []*domain.Project {
	var out []*domain.Project
	for p := range f.g.Projects.All() {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (f *Filter) applications(keep func(*domain.Application) bool) []*domain.Application {
	var out []*domain.Application
	for a := range f.g.Applications.All() {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func (f *Filter) enquiries(keep func(*domain.Enquiry) bool) []*domain.Enquiry {
	var out []*domain.Enquiry
	for e := range f.g.Enquiries.All() {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
