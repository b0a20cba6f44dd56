// Package eligibility holds the pure rules deciding who may see, apply for,
// or register to handle a project. Nothing here mutates its inputs.
package eligibility

import (
	"fmt"

	"housingcore/pkg/domain"
)

// Age thresholds for flat-type visibility.
const (
	SingleMinAge  = 35
	MarriedMinAge = 21
)

// Decision is the result of a rule. A denial carries the reason code the
// caller surfaces in its Outcome.
type Decision struct {
	Allowed bool
	Reason  domain.ReasonCode
	Message string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason domain.ReasonCode, format string, args ...any) Decision {
	return Decision{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// Outcome converts a denial into a rejected outcome. Allowed decisions map to
// an accepted outcome for entityID.
func (d Decision) Outcome(entityID string) domain.Outcome {
	if d.Allowed {
		return domain.Accept(entityID)
	}
	return domain.Reject(d.Reason, "%s", d.Message)
}

// VisibleFlatTypes returns the flat types an applicant may see and apply for.
func VisibleFlatTypes(a *domain.Applicant) []domain.FlatType {
	switch {
	case a.MaritalStatus == domain.MaritalSingle && a.Age >= SingleMinAge:
		return []domain.FlatType{domain.FlatTwoRoom}
	case a.MaritalStatus == domain.MaritalMarried && a.Age >= MarriedMinAge:
		return append([]domain.FlatType(nil), domain.AllFlatTypes...)
	default:
		return nil
	}
}

// CanSeeFlatType reports whether ft is among the applicant's visible types.
func CanSeeFlatType(a *domain.Applicant, ft domain.FlatType) bool {
	for _, v := range VisibleFlatTypes(a) {
		if v == ft {
			return true
		}
	}
	return false
}

// OffersVisibleFlatType reports whether p lists any flat type the applicant may see.
func OffersVisibleFlatType(a *domain.Applicant, p *domain.Project) bool {
	for _, ft := range VisibleFlatTypes(a) {
		if p.Offers(ft) {
			return true
		}
	}
	return false
}

// ApplicantCanApply requires canApply and at least one visible flat type on
// offer.
func ApplicantCanApply(a *domain.Applicant, p *domain.Project) Decision {
	if !a.CanApply {
		return deny(domain.ReasonCannotApply, "applicant %s already has an application", a.ID)
	}
	if len(VisibleFlatTypes(a)) == 0 {
		return deny(domain.ReasonNotEligible, "applicant %s (%d, %s) is not eligible for any flat type", a.ID, a.Age, a.MaritalStatus)
	}
	if !OffersVisibleFlatType(a, p) {
		return deny(domain.ReasonFlatTypeNotOffered, "project %s offers no flat type visible to applicant %s", p.ID, a.ID)
	}
	return allow()
}

// WindowsCompatible is the registration window rule between a joined project
// e and a candidate p: e must open and close strictly before p does. A
// candidate that opens later and closes later passes even when the windows
// intersect; one that opens first never does.
func WindowsCompatible(e, p *domain.Project) bool {
	return e.OpenDate.Before(p.OpenDate) && e.CloseDate.Before(p.CloseDate)
}

// OfficerCanRegister decides whether o may register to handle p given the
// projects o has already joined.
func OfficerCanRegister(o *domain.Officer, p *domain.Project, joined []*domain.Project) Decision {
	if o.ProhibitedProjects.Contains(p.ID) {
		return deny(domain.ReasonProhibitedProject, "officer %s is already linked to project %s", o.ID, p.ID)
	}
	for _, e := range joined {
		if !WindowsCompatible(e, p) {
			return deny(domain.ReasonWindowOverlap, "project %s window %s..%s conflicts with joined project %s (%s..%s)",
				p.ID, domain.FormatDate(p.OpenDate), domain.FormatDate(p.CloseDate),
				e.ID, domain.FormatDate(e.OpenDate), domain.FormatDate(e.CloseDate))
		}
	}
	return allow()
}

// WindowsIntersect reports whether two inclusive windows share a day. Used for
// the one-active-project-per-manager rule.
func WindowsIntersect(a, b *domain.Project) bool {
	return !a.CloseDate.Before(b.OpenDate) && !b.CloseDate.Before(a.OpenDate)
}

// ManagerCanOwn rejects a draft whose window intersects another project the
// manager already owns. skipID excludes the project being edited.
func ManagerCanOwn(owned []*domain.Project, draft *domain.Project, skipID string) Decision {
	for _, p := range owned {
		if p.ID == skipID {
			continue
		}
		if WindowsIntersect(p, draft) {
			return deny(domain.ReasonManagerBusy, "manager %s already owns project %s in %s..%s",
				draft.ManagerID, p.ID, domain.FormatDate(p.OpenDate), domain.FormatDate(p.CloseDate))
		}
	}
	return allow()
}
