package lifecycle

import (
	"strings"
	"time"

	"housingcore/internal/eligibility"
	"housingcore/pkg/domain"
)

// MaxOfficerSlots caps the officer slots a manager may open on a project.
const MaxOfficerSlots = domain.DefaultOfficerSlots

// ProjectDraft carries the editable fields of a project.
type ProjectDraft struct {
	ID            string // optional on create
	Name          string
	Neighbourhood string
	Units         map[domain.FlatType]int
	OpenDate      time.Time
	CloseDate     time.Time
	OfficerSlots  int // zero means MaxOfficerSlots
	Visible       bool
}

func (d ProjectDraft) validate() domain.Outcome {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return domain.Reject(domain.ReasonInvalidInput, "project name is required")
	case d.OpenDate.IsZero() || d.CloseDate.IsZero():
		return domain.Reject(domain.ReasonInvalidInput, "project window is required")
	case d.CloseDate.Before(d.OpenDate):
		return domain.Reject(domain.ReasonInvalidInput, "project closes before it opens")
	case d.OfficerSlots < 0 || d.OfficerSlots > MaxOfficerSlots:
		return domain.Reject(domain.ReasonInvalidInput, "officer slots must be at most %d", MaxOfficerSlots)
	}
	for ft, n := range d.Units {
		if _, err := domain.ParseFlatType(string(ft)); err != nil {
			return domain.Reject(domain.ReasonInvalidInput, "%v", err)
		}
		if n < 0 {
			return domain.Reject(domain.ReasonInvalidInput, "%s units must not be negative", ft)
		}
	}
	return domain.Accept(d.ID)
}

func (d ProjectDraft) apply(p *domain.Project) {
	p.Name = d.Name
	p.Neighbourhood = d.Neighbourhood
	p.Units = make(map[domain.FlatType]int, len(d.Units))
	for ft, n := range d.Units {
		p.Units[ft] = n
	}
	p.OpenDate = d.OpenDate
	p.CloseDate = d.CloseDate
	p.OfficerSlots = d.OfficerSlots
	if p.OfficerSlots == 0 {
		p.OfficerSlots = MaxOfficerSlots
	}
	p.Visible = d.Visible
}

func (e *Engine) ownedProject(managerID, projectID string) (*domain.Manager, *domain.Project, domain.Outcome, bool) {
	m, out, ok := e.manager(managerID)
	if !ok {
		return nil, nil, out, false
	}
	p, out, ok := e.project(projectID)
	if !ok {
		return nil, nil, out, false
	}
	if !m.Handles(p) {
		return nil, nil, domain.Reject(domain.ReasonNotAuthorized, "manager %s does not own project %s", m.ID, p.ID), false
	}
	return m, p, domain.Outcome{}, true
}

// CreateProject adds a project owned by managerID. A manager may not own two
// projects whose windows intersect.
func (e *Engine) CreateProject(managerID string, draft ProjectDraft) domain.Outcome {
	m, out, ok := e.manager(managerID)
	if !ok {
		return out
	}
	if out := draft.validate(); !out.OK() {
		return out
	}
	p := &domain.Project{ID: draft.ID, ManagerID: m.ID}
	draft.apply(p)
	if d := eligibility.ManagerCanOwn(e.g.ProjectsOwnedBy(m.ID), p, ""); !d.Allowed {
		return d.Outcome("")
	}
	if p.ID == "" {
		p.ID = e.freshID(domain.EntityProject, e.g.Projects.Has)
	}
	if err := e.g.Projects.Put(p.ID, p); err != nil {
		return domain.Reject(domain.ReasonInvalidInput, "%v", err)
	}
	return domain.Accept(p.ID)
}

// EditProject replaces the editable fields of an owned project. The officer
// slot count may not drop below the officers already joined.
func (e *Engine) EditProject(managerID, projectID string, draft ProjectDraft) domain.Outcome {
	m, p, out, ok := e.ownedProject(managerID, projectID)
	if !ok {
		return out
	}
	if out := draft.validate(); !out.OK() {
		return out
	}
	next := &domain.Project{ID: p.ID, ManagerID: m.ID}
	draft.apply(next)
	if next.OfficerSlots < p.Officers.Len() {
		return domain.Reject(domain.ReasonNoOfficerSlots, "project %s already has %d officers", p.ID, p.Officers.Len())
	}
	if d := eligibility.ManagerCanOwn(e.g.ProjectsOwnedBy(m.ID), next, p.ID); !d.Allowed {
		return d.Outcome("")
	}
	next.Officers = p.Officers
	*p = *next
	return domain.Accept(p.ID)
}

// SetProjectVisibility toggles whether applicants and officers can browse
// the project.
func (e *Engine) SetProjectVisibility(managerID, projectID string, visible bool) domain.Outcome {
	_, p, out, ok := e.ownedProject(managerID, projectID)
	if !ok {
		return out
	}
	p.Visible = visible
	return domain.Accept(p.ID)
}

// activeApplication reports whether a blocks deleting its project.
func activeApplication(a *domain.Application) bool {
	if a.Status == domain.StatusPending {
		return true
	}
	return a.Kind == domain.KindBTO && (a.Status == domain.StatusSuccessful || a.Status == domain.StatusBooked)
}

// DeleteProject removes an owned project. It is rejected while any
// application on the project is still active; otherwise the project's
// applications and enquiries are dropped and every officer and applicant
// reference to it is cleared.
func (e *Engine) DeleteProject(managerID, projectID string) domain.Outcome {
	_, p, out, ok := e.ownedProject(managerID, projectID)
	if !ok {
		return out
	}
	apps := e.g.ApplicationsForProject(p.ID)
	for _, a := range apps {
		if activeApplication(a) {
			return domain.Reject(domain.ReasonActiveApplications, "project %s has active %s application %s", p.ID, a.Kind, a.ID)
		}
	}
	for _, a := range apps {
		e.g.DropApplication(a.ID)
	}
	for _, enq := range e.g.EnquiriesForProject(p.ID) {
		e.g.Enquiries.Delete(enq.ID)
	}
	e.g.DetachProject(p.ID)
	e.g.Projects.Delete(p.ID)
	return domain.Accept(p.ID)
}
