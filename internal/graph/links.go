package graph

import "housingcore/pkg/domain"

// Link helpers mutate both ends of a relation together. They do not consult
// eligibility; callers decide whether a change is allowed.

// AddRegistration records a pending registration of o for p. The project
// becomes prohibited for the officer.
func AddRegistration(o *domain.Officer, p *domain.Project, registrationID string) {
	o.RegisteredProjects.Add(p.ID)
	o.ProhibitedProjects.Add(p.ID)
	o.ProjectRegistrations.Add(registrationID)
}

// JoinProject moves p from the officer's registered set to the joined set and
// adds the officer to the project. The project stays prohibited.
func JoinProject(o *domain.Officer, p *domain.Project) {
	o.RegisteredProjects.Remove(p.ID)
	o.JoinedProjects.Add(p.ID)
	o.ProhibitedProjects.Add(p.ID)
	p.Officers.Add(o.ID)
}

// DropRegistration removes p from the officer's registered set. It stays
// prohibited while the officer is still joined.
func DropRegistration(o *domain.Officer, p *domain.Project) {
	o.RegisteredProjects.Remove(p.ID)
	if !o.JoinedProjects.Contains(p.ID) {
		o.ProhibitedProjects.Remove(p.ID)
	}
}

// DetachProject removes every officer-side and applicant-side reference to
// projectID. Used when a project is deleted.
func (g *Graph) DetachProject(projectID string) {
	for acc := range g.Users.All() {
		switch u := acc.(type) {
		case *domain.Officer:
			u.JoinedProjects.Remove(projectID)
			u.RegisteredProjects.Remove(projectID)
			u.ProhibitedProjects.Remove(projectID)
		case *domain.Applicant:
			if u.AppliedProjectID == projectID {
				u.AppliedProjectID = ""
				u.ProjectApplicationID = ""
				u.WithdrawalApplicationID = ""
				u.IsWithdrawing = false
				u.IsReceiptReady = false
				u.CanApply = true
			}
		}
	}
}

// DropApplication deletes an application and scrubs the references held by
// its filer.
func (g *Graph) DropApplication(id string) {
	a, ok := g.Applications.Get(id)
	if !ok {
		return
	}
	g.Applications.Delete(id)
	switch u := g.accountOf(a.UserID).(type) {
	case *domain.Applicant:
		if u.ProjectApplicationID == id {
			u.ProjectApplicationID = ""
		}
		if u.WithdrawalApplicationID == id {
			u.WithdrawalApplicationID = ""
			u.IsWithdrawing = false
		}
	case *domain.Officer:
		u.ProjectRegistrations.Remove(id)
	}
}

func (g *Graph) accountOf(id string) domain.Account {
	acc, _ := g.Users.Get(id)
	return acc
}
