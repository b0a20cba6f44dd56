package lifecycle

import (
	"housingcore/pkg/domain"
)

type applicationMachine struct {
	kind  domain.ApplicationKind
	label string
	// initial is the only non-terminal state; every legal move leaves it.
	initial domain.ApplicationStatus
	legal   map[domain.ApplicationStatus]struct{}
}

var applicationMachines = map[domain.ApplicationKind]applicationMachine{
	domain.KindBTO: {
		kind:    domain.KindBTO,
		label:   "BTO application",
		initial: domain.StatusPending,
		legal:   toSet(domain.StatusSuccessful, domain.StatusUnsuccessful, domain.StatusBooked, domain.StatusWithdrawn),
	},
	domain.KindRegistration: {
		kind:    domain.KindRegistration,
		label:   "project registration",
		initial: domain.StatusPending,
		legal:   toSet(domain.StatusSuccessful, domain.StatusUnsuccessful, domain.StatusWithdrawn),
	},
	domain.KindWithdrawal: {
		kind:    domain.KindWithdrawal,
		label:   "withdrawal application",
		initial: domain.StatusPending,
		legal:   toSet(domain.StatusSuccessful, domain.StatusUnsuccessful),
	},
}

func toSet(values ...domain.ApplicationStatus) map[domain.ApplicationStatus]struct{} {
	set := make(map[domain.ApplicationStatus]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// CheckTransition returns a TransitionError unless kind may move from -> to.
func CheckTransition(kind domain.ApplicationKind, from, to domain.ApplicationStatus) error {
	m, ok := applicationMachines[kind]
	if !ok || from != m.initial {
		return domain.TransitionError{Kind: kind, From: from, To: to}
	}
	if _, ok := m.legal[to]; !ok {
		return domain.TransitionError{Kind: kind, From: from, To: to}
	}
	return nil
}

// Terminal reports whether status admits no further transitions.
func Terminal(status domain.ApplicationStatus) bool {
	return status != domain.StatusPending
}

// LegalTargets lists the states kind may move to from PENDING, in canonical order.
func LegalTargets(kind domain.ApplicationKind) []domain.ApplicationStatus {
	m, ok := applicationMachines[kind]
	if !ok {
		return nil
	}
	var out []domain.ApplicationStatus
	for _, s := range []domain.ApplicationStatus{domain.StatusSuccessful, domain.StatusUnsuccessful, domain.StatusBooked, domain.StatusWithdrawn} {
		if _, ok := m.legal[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
