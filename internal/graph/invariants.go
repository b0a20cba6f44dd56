package graph

import (
	"fmt"

	"housingcore/pkg/domain"
)

// Violation describes one broken graph invariant.
type Violation struct {
	Entity domain.EntityType
	ID     string
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Entity, v.ID, v.Detail)
}

// CheckInvariants walks the whole graph and reports every broken invariant.
// A consistent graph yields nil.
func (g *Graph) CheckInvariants() []Violation {
	var out []Violation
	add := func(e domain.EntityType, id, format string, args ...any) {
		out = append(out, Violation{Entity: e, ID: id, Detail: fmt.Sprintf(format, args...)})
	}
	for acc := range g.Users.All() {
		switch u := acc.(type) {
		case *domain.Applicant:
			g.checkApplicant(u, add)
		case *domain.Officer:
			g.checkOfficer(u, add)
		}
	}
	for p := range g.Projects.All() {
		if _, ok := g.Manager(p.ManagerID); !ok {
			add(domain.EntityProject, p.ID, "manager %q is not a manager", p.ManagerID)
		}
		for _, oid := range p.Officers.IDs() {
			o, ok := g.Officer(oid)
			if !ok {
				add(domain.EntityProject, p.ID, "officer %q does not resolve", oid)
				continue
			}
			if !o.JoinedProjects.Contains(p.ID) {
				add(domain.EntityProject, p.ID, "officer %s lists no join back", oid)
			}
		}
	}
	for a := range g.Applications.All() {
		if _, ok := g.Users.Get(a.UserID); !ok {
			add(domain.EntityApplication, a.ID, "user %q does not resolve", a.UserID)
		}
		if _, ok := g.Projects.Get(a.ProjectID); !ok {
			add(domain.EntityApplication, a.ID, "project %q does not resolve", a.ProjectID)
		}
		if a.TargetID != "" && !g.Applications.Has(a.TargetID) {
			add(domain.EntityApplication, a.ID, "target %q does not resolve", a.TargetID)
		}
	}
	for e := range g.Enquiries.All() {
		if _, ok := g.Users.Get(e.FilerID); !ok {
			add(domain.EntityEnquiry, e.ID, "filer %q does not resolve", e.FilerID)
		}
		if _, ok := g.Projects.Get(e.ProjectID); !ok {
			add(domain.EntityEnquiry, e.ID, "project %q does not resolve", e.ProjectID)
		}
	}
	return out
}

type addFunc func(e domain.EntityType, id, format string, args ...any)

func (g *Graph) checkApplicant(a *domain.Applicant, add addFunc) {
	if a.AppliedProjectID != "" {
		if !g.Projects.Has(a.AppliedProjectID) {
			add(domain.EntityUser, a.ID, "applied project %q does not resolve", a.AppliedProjectID)
		}
		if a.CanApply {
			add(domain.EntityUser, a.ID, "has an applied project but can still apply")
		}
	}
	if a.ProjectApplicationID != "" {
		if app, ok := g.Applications.Get(a.ProjectApplicationID); !ok {
			add(domain.EntityUser, a.ID, "project application %q does not resolve", a.ProjectApplicationID)
		} else if app.ProjectID != a.AppliedProjectID {
			add(domain.EntityUser, a.ID, "project application %s is on %s, not applied project %q", app.ID, app.ProjectID, a.AppliedProjectID)
		}
		if a.CanApply {
			add(domain.EntityUser, a.ID, "has a project application but can still apply")
		}
	}
	if a.WithdrawalApplicationID != "" {
		if !g.Applications.Has(a.WithdrawalApplicationID) {
			add(domain.EntityUser, a.ID, "withdrawal application %q does not resolve", a.WithdrawalApplicationID)
		}
		if !a.IsWithdrawing {
			add(domain.EntityUser, a.ID, "has a withdrawal application but is not withdrawing")
		}
	}
}

func (g *Graph) checkOfficer(o *domain.Officer, add addFunc) {
	for _, set := range []domain.IDSet{o.JoinedProjects, o.RegisteredProjects} {
		for _, pid := range set.IDs() {
			if !g.Projects.Has(pid) {
				add(domain.EntityUser, o.ID, "project %q does not resolve", pid)
			}
		}
	}
	if !o.ProhibitedProjects.ContainsAll(o.JoinedProjects.Union(o.RegisteredProjects)) {
		add(domain.EntityUser, o.ID, "prohibited projects do not cover joined and registered")
	}
	for _, pid := range o.JoinedProjects.IDs() {
		if p, ok := g.Project(pid); ok && !p.Officers.Contains(o.ID) {
			add(domain.EntityUser, o.ID, "joined project %s does not list the officer", pid)
		}
	}
	for _, rid := range o.ProjectRegistrations.IDs() {
		if !g.Applications.Has(rid) {
			add(domain.EntityUser, o.ID, "registration %q does not resolve", rid)
		}
	}
}
