package lifecycle

import (
	"housingcore/internal/eligibility"
	"housingcore/pkg/domain"
)

// Apply files a BTO application for applicantID on projectID. An empty
// flatType picks the first flat type the applicant may apply for.
func (e *Engine) Apply(applicantID, projectID string, flatType domain.FlatType) domain.Outcome {
	a, out, ok := e.applicant(applicantID)
	if !ok {
		return out
	}
	p, out, ok := e.project(projectID)
	if !ok {
		return out
	}
	if d := eligibility.ApplicantCanApply(a, p); !d.Allowed {
		return d.Outcome("")
	}
	if !p.Visible {
		return domain.Reject(domain.ReasonProjectHidden, "project %s is not open for viewing", p.ID)
	}
	if today := e.clock.Now(); !p.OpenOn(today) {
		return domain.Reject(domain.ReasonProjectClosed, "project %s accepts applications %s..%s, today is %s",
			p.ID, domain.FormatDate(p.OpenDate), domain.FormatDate(p.CloseDate), domain.FormatDate(today))
	}
	types := e.filter.FlatTypesFor(a, p)
	if flatType == "" {
		flatType = types[0]
	}
	if !eligibility.CanSeeFlatType(a, flatType) {
		return domain.Reject(domain.ReasonNotEligible, "applicant %s may not apply for %s", a.ID, flatType)
	}
	if !p.Offers(flatType) {
		return domain.Reject(domain.ReasonFlatTypeNotOffered, "project %s does not offer %s", p.ID, flatType)
	}

	app := e.newApplication(domain.KindBTO, a.ID, p.ID)
	app.FlatType = flatType
	if err := e.g.Applications.Put(app.ID, app); err != nil {
		return domain.Reject(domain.ReasonInvalidInput, "%v", err)
	}
	a.AppliedProjectID = p.ID
	a.ProjectApplicationID = app.ID
	a.CanApply = false
	a.IsWithdrawing = false
	a.IsReceiptReady = false
	return domain.Accept(app.ID)
}

// SubmitWithdrawal files a withdrawal of the applicant's current BTO
// application.
func (e *Engine) SubmitWithdrawal(applicantID string) domain.Outcome {
	a, out, ok := e.applicant(applicantID)
	if !ok {
		return out
	}
	if a.IsWithdrawing {
		return domain.Reject(domain.ReasonAlreadyWithdrawing, "applicant %s already has a withdrawal under review", a.ID)
	}
	target, ok := e.g.Application(a.ProjectApplicationID)
	if a.ProjectApplicationID == "" || !ok {
		return domain.Reject(domain.ReasonNoApplication, "applicant %s has no application to withdraw", a.ID)
	}
	w := e.newApplication(domain.KindWithdrawal, a.ID, target.ProjectID)
	w.TargetID = target.ID
	if err := e.g.Applications.Put(w.ID, w); err != nil {
		return domain.Reject(domain.ReasonInvalidInput, "%v", err)
	}
	a.WithdrawalApplicationID = w.ID
	a.IsWithdrawing = true
	return domain.Accept(w.ID)
}

// releaseApplicant returns a to the state where it may apply again.
func releaseApplicant(a *domain.Applicant) {
	a.AppliedProjectID = ""
	a.ProjectApplicationID = ""
	a.WithdrawalApplicationID = ""
	a.CanApply = true
	a.IsWithdrawing = false
	a.IsReceiptReady = false
}
