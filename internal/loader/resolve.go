package loader

import (
	"sort"

	"housingcore/internal/graph"
	"housingcore/pkg/domain"
)

type resolver struct {
	g       *graph.Graph
	diag    func(domain.Diagnostic)
	pending *pending
}

func (r *resolver) run() {
	for acc := range r.g.Users.All() {
		switch u := acc.(type) {
		case *domain.Applicant:
			r.applicant(u, r.pending.applicants[u.ID])
		case *domain.Officer:
			r.officer(u, r.pending.officers[u.ID])
		}
	}
	for a := range r.g.Applications.All() {
		if a.Kind == domain.KindWithdrawal {
			r.target(a, r.pending.targets[a.ID])
		}
	}
	r.projectOfficers()
	for e := range r.g.Enquiries.All() {
		if e.RepliedBy != "" && !r.g.Users.Has(e.RepliedBy) {
			r.null(domain.EntityEnquiry, e.ID, "replied_by", domain.EntityUser, e.RepliedBy)
			e.RepliedBy = ""
		}
	}
}

func (r *resolver) null(entity domain.EntityType, id, field string, target domain.EntityType, targetID string) {
	r.diag(domain.Diagnostic{
		Kind: domain.DiagnosticNulled, Entity: entity, EntityID: id, Field: field,
		Err: domain.ReferenceError{Entity: entity, ID: id, Field: field, Target: target, TargetID: targetID},
	})
}

func (r *resolver) normalised(id, field string) {
	r.diag(domain.Diagnostic{Kind: domain.DiagnosticNormalized, Entity: domain.EntityUser, EntityID: id, Field: field})
}

// ownApplication resolves id to an application of the given kind filed by userID.
func (r *resolver) ownApplication(id, userID string, kind domain.ApplicationKind) bool {
	a, ok := r.g.Application(id)
	return ok && a.UserID == userID && a.Kind == kind
}

func (r *resolver) applicant(a *domain.Applicant, refs applicantRefs) {
	if id := refs.appliedProject; id != "" {
		if r.g.Projects.Has(id) {
			a.AppliedProjectID = id
		} else {
			r.null(domain.EntityUser, a.ID, "applied_project", domain.EntityProject, id)
		}
	}
	if id := refs.projectApplication; id != "" {
		if r.ownApplication(id, a.ID, domain.KindBTO) {
			a.ProjectApplicationID = id
		} else {
			r.null(domain.EntityUser, a.ID, "project_application", domain.EntityApplication, id)
		}
	}
	if id := refs.withdrawalApplication; id != "" {
		if r.ownApplication(id, a.ID, domain.KindWithdrawal) {
			a.WithdrawalApplicationID = id
		} else {
			r.null(domain.EntityUser, a.ID, "withdrawal_application", domain.EntityApplication, id)
		}
	}
	if app, ok := r.g.Application(a.ProjectApplicationID); ok && app.ProjectID != a.AppliedProjectID {
		a.AppliedProjectID = app.ProjectID
		r.normalised(a.ID, "applied_project")
	}
	if a.CanApply && (a.AppliedProjectID != "" || a.ProjectApplicationID != "") {
		a.CanApply = false
		r.normalised(a.ID, "can_apply")
	}
	if a.WithdrawalApplicationID != "" && !a.IsWithdrawing {
		a.IsWithdrawing = true
		r.normalised(a.ID, "is_withdrawing")
	}
}

func (r *resolver) projectList(o *domain.Officer, field string, ids []string) domain.IDSet {
	var out domain.IDSet
	for _, id := range ids {
		if r.g.Projects.Has(id) {
			out.Add(id)
			continue
		}
		r.null(domain.EntityUser, o.ID, field, domain.EntityProject, id)
	}
	return out
}

func (r *resolver) officer(o *domain.Officer, refs officerRefs) {
	o.JoinedProjects = r.projectList(o, "joined_projects", refs.joined)
	o.RegisteredProjects = r.projectList(o, "registered_projects", refs.registered)
	for _, id := range o.RegisteredProjects.IDs() {
		if o.JoinedProjects.Contains(id) {
			o.RegisteredProjects.Remove(id)
			r.normalised(o.ID, "registered_projects")
		}
	}
	var regs domain.IDSet
	for _, id := range refs.registrations {
		if r.ownApplication(id, o.ID, domain.KindRegistration) {
			regs.Add(id)
			continue
		}
		r.null(domain.EntityUser, o.ID, "project_registrations", domain.EntityApplication, id)
	}
	o.ProjectRegistrations = regs
	o.ProhibitedProjects = o.JoinedProjects.Union(o.RegisteredProjects)
}

func (r *resolver) target(a *domain.Application, id string) {
	if id == "" {
		return
	}
	if r.ownApplication(id, a.UserID, domain.KindBTO) {
		a.TargetID = id
		return
	}
	r.null(domain.EntityApplication, a.ID, "target", domain.EntityApplication, id)
}

// projectOfficers binds each project's officer list and then adds any reverse
// link missing on either side. Both passes walk IDs in ascending order so the
// result does not depend on record order.
func (r *resolver) projectOfficers() {
	projectIDs := sortedKeys(r.pending.projectOfficers)
	for _, pid := range projectIDs {
		p, _ := r.g.Project(pid)
		var officers domain.IDSet
		for _, oid := range r.pending.projectOfficers[pid] {
			if _, ok := r.g.Officer(oid); ok {
				officers.Add(oid)
				continue
			}
			r.null(domain.EntityProject, pid, "officers", domain.EntityUser, oid)
		}
		p.Officers = officers
	}
	officerIDs := sortedKeys(r.pending.officers)
	for _, pid := range projectIDs {
		p, _ := r.g.Project(pid)
		for _, oid := range p.Officers.IDs() {
			o, _ := r.g.Officer(oid)
			if !o.JoinedProjects.Contains(pid) {
				o.RegisteredProjects.Remove(pid)
				o.JoinedProjects.Add(pid)
				o.ProhibitedProjects.Add(pid)
			}
		}
	}
	for _, oid := range officerIDs {
		o, _ := r.g.Officer(oid)
		for _, pid := range o.JoinedProjects.IDs() {
			p, _ := r.g.Project(pid)
			p.Officers.Add(oid)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
