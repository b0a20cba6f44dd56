package lifecycle

import (
	"time"

	"housingcore/internal/eligibility"
	"housingcore/internal/graph"
	"housingcore/pkg/domain"
)

// Register files a project registration for officerID on projectID.
func (e *Engine) Register(officerID, projectID string) domain.Outcome {
	o, out, ok := e.officer(officerID)
	if !ok {
		return out
	}
	p, out, ok := e.project(projectID)
	if !ok {
		return out
	}
	if d := eligibility.OfficerCanRegister(o, p, e.g.JoinedProjectsOf(o)); !d.Allowed {
		return d.Outcome("")
	}
	reg := e.newApplication(domain.KindRegistration, o.ID, p.ID)
	if err := e.g.Applications.Put(reg.ID, reg); err != nil {
		return domain.Reject(domain.ReasonInvalidInput, "%v", err)
	}
	graph.AddRegistration(o, p, reg.ID)
	return domain.Accept(reg.ID)
}

// Receipt is the booking confirmation handed to an applicant.
type Receipt struct {
	ApplicationID string
	ApplicantID   string
	ApplicantName string
	NRIC          string
	Age           int
	MaritalStatus domain.MaritalStatus
	ProjectID     string
	ProjectName   string
	Neighbourhood string
	FlatType      domain.FlatType
	BookedBy      string
	IssuedAt      time.Time
}

// BookFlat books the flat of a pending BTO application on a project the
// officer has joined.
func (e *Engine) BookFlat(officerID, applicationID string) (Receipt, domain.Outcome) {
	o, out, ok := e.officer(officerID)
	if !ok {
		return Receipt{}, out
	}
	app, ok := e.g.Application(applicationID)
	if !ok {
		return Receipt{}, notFound(domain.EntityApplication, applicationID)
	}
	if app.Kind != domain.KindBTO {
		return Receipt{}, domain.Reject(domain.ReasonInvalidInput, "application %s is a %s, not a BTO application", app.ID, app.Kind)
	}
	p, out, ok := e.project(app.ProjectID)
	if !ok {
		return Receipt{}, out
	}
	if !o.Handles(p) {
		return Receipt{}, domain.Reject(domain.ReasonNotAuthorized, "officer %s has not joined project %s", o.ID, p.ID)
	}
	if out := e.UpdateStatus(app.ID, domain.StatusBooked); !out.OK() {
		return Receipt{}, out
	}
	r, _ := e.receipt(app, o.ID)
	return r, domain.Accept(app.ID)
}

// Receipt reissues the receipt of a booked application to an official
// handling its project.
func (e *Engine) Receipt(officialID, applicationID string) (Receipt, domain.Outcome) {
	acc, ok := e.g.Account(officialID)
	official, isOfficial := acc.(domain.Official)
	if !ok || !isOfficial {
		return Receipt{}, domain.Reject(domain.ReasonNotAuthorized, "user %s cannot issue receipts", officialID)
	}
	app, ok := e.g.Application(applicationID)
	if !ok {
		return Receipt{}, notFound(domain.EntityApplication, applicationID)
	}
	p, out, ok := e.project(app.ProjectID)
	if !ok {
		return Receipt{}, out
	}
	if !official.Handles(p) {
		return Receipt{}, domain.Reject(domain.ReasonNotAuthorized, "user %s does not handle project %s", officialID, p.ID)
	}
	if app.Kind != domain.KindBTO || app.Status != domain.StatusBooked {
		return Receipt{}, domain.Reject(domain.ReasonInvalidInput, "application %s is not booked", app.ID)
	}
	r, ok := e.receipt(app, officialID)
	if !ok {
		return Receipt{}, notFound(domain.EntityUser, app.UserID)
	}
	return r, domain.Accept(app.ID)
}

func (e *Engine) receipt(app *domain.Application, bookedBy string) (Receipt, bool) {
	a, ok := e.g.Applicant(app.UserID)
	if !ok {
		return Receipt{}, false
	}
	p, _ := e.g.Project(app.ProjectID)
	return Receipt{
		ApplicationID: app.ID,
		ApplicantID:   a.ID,
		ApplicantName: a.Name,
		NRIC:          a.NRIC,
		Age:           a.Age,
		MaritalStatus: a.MaritalStatus,
		ProjectID:     p.ID,
		ProjectName:   p.Name,
		Neighbourhood: p.Neighbourhood,
		FlatType:      app.FlatType,
		BookedBy:      bookedBy,
		IssuedAt:      e.clock.Now(),
	}, true
}
