package lifecycle

import (
	"housingcore/internal/graph"
	"housingcore/pkg/domain"
)

// UpdateStatus moves an application out of PENDING and applies the side
// effects of the new state to the applicant or officer who filed it.
func (e *Engine) UpdateStatus(applicationID string, to domain.ApplicationStatus) domain.Outcome {
	app, ok := e.g.Application(applicationID)
	if !ok {
		return notFound(domain.EntityApplication, applicationID)
	}
	if err := CheckTransition(app.Kind, app.Status, to); err != nil {
		return domain.Reject(domain.ReasonIllegalTransition, "%v", err)
	}
	if out := e.guard(app, to); !out.OK() {
		return out
	}
	app.Status = to
	switch app.Kind {
	case domain.KindBTO:
		e.onBTO(app)
	case domain.KindWithdrawal:
		e.onWithdrawal(app)
	case domain.KindRegistration:
		e.onRegistration(app)
	}
	return domain.Accept(app.ID)
}

// ReviewApplication is UpdateStatus on behalf of the manager owning the
// application's project.
func (e *Engine) ReviewApplication(managerID, applicationID string, to domain.ApplicationStatus) domain.Outcome {
	m, out, ok := e.manager(managerID)
	if !ok {
		return out
	}
	app, ok := e.g.Application(applicationID)
	if !ok {
		return notFound(domain.EntityApplication, applicationID)
	}
	p, out, ok := e.project(app.ProjectID)
	if !ok {
		return out
	}
	if !m.Handles(p) {
		return domain.Reject(domain.ReasonNotAuthorized, "manager %s does not own project %s", m.ID, p.ID)
	}
	return e.UpdateStatus(app.ID, to)
}

// guard checks the resource preconditions of a legal transition.
func (e *Engine) guard(app *domain.Application, to domain.ApplicationStatus) domain.Outcome {
	p, out, ok := e.project(app.ProjectID)
	if !ok {
		return out
	}
	switch {
	case app.Kind == domain.KindBTO && to == domain.StatusBooked:
		if p.Units[app.FlatType] <= 0 {
			return domain.Reject(domain.ReasonNoUnitsAvailable, "project %s has no %s units left", p.ID, app.FlatType)
		}
	case app.Kind == domain.KindRegistration && to == domain.StatusSuccessful:
		if p.Officers.Len() >= p.OfficerSlots {
			return domain.Reject(domain.ReasonNoOfficerSlots, "project %s has all %d officer slots filled", p.ID, p.OfficerSlots)
		}
	}
	return domain.Accept(app.ID)
}

func (e *Engine) onBTO(app *domain.Application) {
	a, ok := e.g.Applicant(app.UserID)
	if !ok {
		return
	}
	switch app.Status {
	case domain.StatusBooked:
		p, _ := e.g.Project(app.ProjectID)
		p.Units[app.FlatType]--
		a.CanApply = false
		a.IsReceiptReady = true
	case domain.StatusUnsuccessful, domain.StatusWithdrawn:
		e.closeWithdrawals(app.ID)
		if a.ProjectApplicationID == app.ID {
			releaseApplicant(a)
		}
	}
}

// closeWithdrawals marks pending withdrawals of target as successful once the
// target itself has ended.
func (e *Engine) closeWithdrawals(targetID string) {
	for _, w := range e.g.WithdrawalsOf(targetID) {
		if w.Status == domain.StatusPending {
			w.Status = domain.StatusSuccessful
		}
	}
}

func (e *Engine) onWithdrawal(w *domain.Application) {
	a, ok := e.g.Applicant(w.UserID)
	if !ok {
		return
	}
	if w.Status == domain.StatusUnsuccessful {
		if a.WithdrawalApplicationID == w.ID {
			a.WithdrawalApplicationID = ""
			a.IsWithdrawing = false
		}
		return
	}
	targetID := w.TargetID
	if targetID == "" {
		targetID = a.ProjectApplicationID
	}
	// An approved withdrawal ends the target whatever state it reached; a
	// booked unit goes back to the project.
	if target, ok := e.g.Application(targetID); ok && target.Status != domain.StatusWithdrawn && target.Status != domain.StatusUnsuccessful {
		if target.Status == domain.StatusBooked {
			if p, ok := e.g.Project(target.ProjectID); ok {
				p.Units[target.FlatType]++
			}
		}
		target.Status = domain.StatusWithdrawn
	}
	if a.ProjectApplicationID == targetID || a.WithdrawalApplicationID == w.ID {
		releaseApplicant(a)
	}
}

func (e *Engine) onRegistration(app *domain.Application) {
	o, ok := e.g.Officer(app.UserID)
	if !ok {
		return
	}
	p, ok := e.g.Project(app.ProjectID)
	if !ok {
		return
	}
	switch app.Status {
	case domain.StatusSuccessful:
		graph.JoinProject(o, p)
	case domain.StatusUnsuccessful, domain.StatusWithdrawn:
		graph.DropRegistration(o, p)
	}
}
