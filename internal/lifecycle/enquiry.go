package lifecycle

import (
	"strings"

	"housingcore/pkg/domain"
)

// SubmitEnquiry files a question about a project the user can see.
func (e *Engine) SubmitEnquiry(userID, projectID, message string) domain.Outcome {
	acc, ok := e.g.Account(userID)
	if !ok {
		return notFound(domain.EntityUser, userID)
	}
	p, out, ok := e.project(projectID)
	if !ok {
		return out
	}
	if !e.filter.CanSeeProject(acc, p) {
		return domain.Reject(domain.ReasonProjectHidden, "project %s is not visible to %s", p.ID, userID)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Reject(domain.ReasonInvalidInput, "enquiry message is empty")
	}
	enq := &domain.Enquiry{
		ID:        e.freshID(domain.EntityEnquiry, e.g.Enquiries.Has),
		FilerID:   userID,
		ProjectID: p.ID,
		Message:   message,
	}
	if err := e.g.Enquiries.Put(enq.ID, enq); err != nil {
		return domain.Reject(domain.ReasonInvalidInput, "%v", err)
	}
	return domain.Accept(enq.ID)
}

// ownEnquiry returns an enquiry the user filed that has not been answered.
func (e *Engine) ownEnquiry(userID, enquiryID string) (*domain.Enquiry, domain.Outcome, bool) {
	enq, ok := e.g.Enquiry(enquiryID)
	if !ok {
		return nil, notFound(domain.EntityEnquiry, enquiryID), false
	}
	if enq.FilerID != userID {
		return nil, domain.Reject(domain.ReasonNotAuthorized, "enquiry %s was filed by another user", enq.ID), false
	}
	if enq.Replied() {
		return nil, domain.Reject(domain.ReasonEnquiryReplied, "enquiry %s has already been answered", enq.ID), false
	}
	return enq, domain.Outcome{}, true
}

// EditEnquiry replaces the message of an unanswered enquiry.
func (e *Engine) EditEnquiry(userID, enquiryID, message string) domain.Outcome {
	enq, out, ok := e.ownEnquiry(userID, enquiryID)
	if !ok {
		return out
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return domain.Reject(domain.ReasonInvalidInput, "enquiry message is empty")
	}
	enq.Message = message
	return domain.Accept(enq.ID)
}

// DeleteEnquiry removes an unanswered enquiry.
func (e *Engine) DeleteEnquiry(userID, enquiryID string) domain.Outcome {
	enq, out, ok := e.ownEnquiry(userID, enquiryID)
	if !ok {
		return out
	}
	e.g.Enquiries.Delete(enq.ID)
	return domain.Accept(enq.ID)
}

// ReplyEnquiry answers an enquiry on behalf of an official handling its
// project. An enquiry is answered once.
func (e *Engine) ReplyEnquiry(officialID, enquiryID, reply string) domain.Outcome {
	acc, ok := e.g.Account(officialID)
	if !ok {
		return notFound(domain.EntityUser, officialID)
	}
	official, ok := acc.(domain.Official)
	if !ok {
		return domain.Reject(domain.ReasonNotAuthorized, "%s %s cannot reply to enquiries", acc.Role(), officialID)
	}
	enq, ok := e.g.Enquiry(enquiryID)
	if !ok {
		return notFound(domain.EntityEnquiry, enquiryID)
	}
	p, out, ok := e.project(enq.ProjectID)
	if !ok {
		return out
	}
	if !official.Handles(p) {
		return domain.Reject(domain.ReasonNotAuthorized, "%s %s does not handle project %s", acc.Role(), officialID, p.ID)
	}
	if enq.Replied() {
		return domain.Reject(domain.ReasonEnquiryReplied, "enquiry %s has already been answered", enq.ID)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return domain.Reject(domain.ReasonInvalidInput, "reply is empty")
	}
	enq.Reply = reply
	enq.RepliedBy = officialID
	return domain.Accept(enq.ID)
}
