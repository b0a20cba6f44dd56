// Package graph holds the resolved object graph: one RecordStore per entity
// kind plus the derived reverse indexes and link helpers that keep both
// directions of every relation consistent.
package graph

import (
	"fmt"
	"sort"

	"housingcore/internal/store"
	"housingcore/pkg/domain"
)

// Graph is the explicit context object shared by the loader, the rule
// engines and the lifecycle machines. It is not safe for concurrent use.
type Graph struct {
	Users        *store.RecordStore[string, domain.Account]
	Projects     *store.RecordStore[string, *domain.Project]
	Applications *store.RecordStore[string, *domain.Application]
	Enquiries    *store.RecordStore[string, *domain.Enquiry]

	lastSeq int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		Users:        store.New[string, domain.Account](),
		Projects:     store.New[string, *domain.Project](),
		Applications: store.New[string, *domain.Application](),
		Enquiries:    store.New[string, *domain.Enquiry](),
	}
}

// Account returns any user by ID.
func (g *Graph) Account(id string) (domain.Account, bool) {
	return g.Users.Get(id)
}

// Applicant returns the user with the given ID when it is an applicant.
func (g *Graph) Applicant(id string) (*domain.Applicant, bool) {
	acc, ok := g.Users.Get(id)
	if !ok {
		return nil, false
	}
	a, ok := acc.(*domain.Applicant)
	return a, ok
}

// Officer returns the user with the given ID when it is an officer.
func (g *Graph) Officer(id string) (*domain.Officer, bool) {
	acc, ok := g.Users.Get(id)
	if !ok {
		return nil, false
	}
	o, ok := acc.(*domain.Officer)
	return o, ok
}

// Manager returns the user with the given ID when it is a manager.
func (g *Graph) Manager(id string) (*domain.Manager, bool) {
	acc, ok := g.Users.Get(id)
	if !ok {
		return nil, false
	}
	m, ok := acc.(*domain.Manager)
	return m, ok
}

// Project returns a project by ID.
func (g *Graph) Project(id string) (*domain.Project, bool) { return g.Projects.Get(id) }

// Application returns an application by ID.
func (g *Graph) Application(id string) (*domain.Application, bool) { return g.Applications.Get(id) }

// Enquiry returns an enquiry by ID.
func (g *Graph) Enquiry(id string) (*domain.Enquiry, bool) { return g.Enquiries.Get(id) }

// UserByNRIC finds an account by NRIC, ignoring letter case.
func (g *Graph) UserByNRIC(nric string) (domain.Account, bool) {
	want := normaliseNRIC(nric)
	for acc := range g.Users.All() {
		if normaliseNRIC(acc.Profile().NRIC) == want {
			return acc, true
		}
	}
	return nil, false
}

// Authenticate returns the account whose NRIC and password match.
func (g *Graph) Authenticate(nric, password string) (domain.Account, error) {
	acc, ok := g.UserByNRIC(nric)
	if !ok {
		return nil, domain.ErrEntityNotFound{Entity: domain.EntityUser, ID: nric}
	}
	if acc.Profile().Password != password {
		return nil, fmt.Errorf("user %s: bad credentials: %w", acc.Profile().ID, domain.ErrNotAuthorized)
	}
	return acc, nil
}

// ObserveSeq records a sequence number seen while loading so NextSeq stays
// ahead of every persisted application.
func (g *Graph) ObserveSeq(seq int) {
	if seq > g.lastSeq {
		g.lastSeq = seq
	}
}

// NextSeq returns the creation sequence number for a new application.
func (g *Graph) NextSeq() int {
	g.lastSeq++
	return g.lastSeq
}

// ProjectsOwnedBy returns the projects whose manager is managerID, in store order.
func (g *Graph) ProjectsOwnedBy(managerID string) []*domain.Project {
	var out []*domain.Project
	for p := range g.Projects.All() {
		if p.ManagerID == managerID {
			out = append(out, p)
		}
	}
	return out
}

// ApplicationsBy returns the applications filed by userID, ordered by
// creation sequence.
func (g *Graph) ApplicationsBy(userID string) []*domain.Application {
	return g.collectApplications(func(a *domain.Application) bool { return a.UserID == userID })
}

// ApplicationsForProject returns the applications against projectID, ordered
// by creation sequence.
func (g *Graph) ApplicationsForProject(projectID string) []*domain.Application {
	return g.collectApplications(func(a *domain.Application) bool { return a.ProjectID == projectID })
}

// WithdrawalsOf returns the withdrawal applications targeting applicationID.
func (g *Graph) WithdrawalsOf(applicationID string) []*domain.Application {
	return g.collectApplications(func(a *domain.Application) bool {
		return a.Kind == domain.KindWithdrawal && a.TargetID == applicationID
	})
}

func (g *Graph) collectApplications(keep func(*domain.Application) bool) []*domain.Application {
	var out []*domain.Application
	for a := range g.Applications.All() {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seq != out[j].Seq {
			return out[i].Seq < out[j].Seq
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// EnquiriesBy returns the enquiries filed by userID.
func (g *Graph) EnquiriesBy(userID string) []*domain.Enquiry {
	var out []*domain.Enquiry
	for e := range g.Enquiries.All() {
		if e.FilerID == userID {
			out = append(out, e)
		}
	}
	return out
}

// EnquiriesForProject returns the enquiries about projectID.
func (g *Graph) EnquiriesForProject(projectID string) []*domain.Enquiry {
	var out []*domain.Enquiry
	for e := range g.Enquiries.All() {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out
}

// OfficersOf resolves the project's officer set in order, skipping IDs that
// no longer name an officer.
func (g *Graph) OfficersOf(p *domain.Project) []*domain.Officer {
	var out []*domain.Officer
	for _, id := range p.Officers.IDs() {
		if o, ok := g.Officer(id); ok {
			out = append(out, o)
		}
	}
	return out
}

// JoinedProjectsOf resolves the officer's joined projects in order.
func (g *Graph) JoinedProjectsOf(o *domain.Officer) []*domain.Project {
	var out []*domain.Project
	for _, id := range o.JoinedProjects.IDs() {
		if p, ok := g.Project(id); ok {
			out = append(out, p)
		}
	}
	return out
}

func normaliseNRIC(nric string) string {
	b := []byte(nric)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
