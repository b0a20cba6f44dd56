package lifecycle

import (
	"strings"

	"housingcore/pkg/domain"
)

// ChangePassword replaces the password of userID after checking the current
// one.
func (e *Engine) ChangePassword(userID, current, next string) domain.Outcome {
	acc, ok := e.g.Account(userID)
	if !ok {
		return notFound(domain.EntityUser, userID)
	}
	u := acc.Profile()
	if u.Password != current {
		return domain.Reject(domain.ReasonNotAuthorized, "current password for %s does not match", userID)
	}
	if strings.TrimSpace(next) == "" || next != strings.TrimSpace(next) || strings.ContainsAny(next, ",\n\r") {
		return domain.Reject(domain.ReasonInvalidInput, "new password must be non-empty, on one line, without commas or surrounding spaces")
	}
	u.Password = next
	return domain.Accept(u.ID)
}
