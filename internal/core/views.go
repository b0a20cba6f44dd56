package core

import (
	"maps"

	"housingcore/pkg/domain"
)

// AccountView is a detached copy of an account.
type AccountView struct {
	ID            string
	Name          string
	NRIC          string
	Age           int
	MaritalStatus domain.MaritalStatus
	Role          domain.Role

	// Applicant state.
	CanApply                bool
	IsWithdrawing           bool
	IsReceiptReady          bool
	AppliedProjectID        string
	ProjectApplicationID    string
	WithdrawalApplicationID string

	// Officer state.
	JoinedProjects       []string
	RegisteredProjects   []string
	ProhibitedProjects   []string
	ProjectRegistrations []string
}

func accountView(acc domain.Account) AccountView {
	u := acc.Profile()
	v := AccountView{
		ID:            u.ID,
		Name:          u.Name,
		NRIC:          u.NRIC,
		Age:           u.Age,
		MaritalStatus: u.MaritalStatus,
		Role:          acc.Role(),
	}
	switch a := acc.(type) {
	case *domain.Applicant:
		v.CanApply = a.CanApply
		v.IsWithdrawing = a.IsWithdrawing
		v.IsReceiptReady = a.IsReceiptReady
		v.AppliedProjectID = a.AppliedProjectID
		v.ProjectApplicationID = a.ProjectApplicationID
		v.WithdrawalApplicationID = a.WithdrawalApplicationID
	case *domain.Officer:
		v.JoinedProjects = a.JoinedProjects.IDs()
		v.RegisteredProjects = a.RegisteredProjects.IDs()
		v.ProhibitedProjects = a.ProhibitedProjects.IDs()
		v.ProjectRegistrations = a.ProjectRegistrations.IDs()
	}
	return v
}

// projectCopy detaches the unit map and officer set from the graph.
func projectCopy(p *domain.Project) domain.Project {
	cp := *p
	cp.Units = maps.Clone(p.Units)
	cp.Officers = p.Officers.Clone()
	return cp
}

func projectCopies(in []*domain.Project) []domain.Project {
	out := make([]domain.Project, 0, len(in))
	for _, p := range in {
		out = append(out, projectCopy(p))
	}
	return out
}

func applicationCopies(in []*domain.Application) []domain.Application {
	out := make([]domain.Application, 0, len(in))
	for _, a := range in {
		out = append(out, *a)
	}
	return out
}

func enquiryCopies(in []*domain.Enquiry) []domain.Enquiry {
	out := make([]domain.Enquiry, 0, len(in))
	for _, e := range in {
		out = append(out, *e)
	}
	return out
}

func (s *Service) account(id string) (domain.Account, error) {
	acc, ok := s.graph.Account(id)
	if !ok {
		return nil, domain.ErrEntityNotFound{Entity: domain.EntityUser, ID: id}
	}
	return acc, nil
}

// Account returns a copy of the account with userID.
func (s *Service) Account(userID string) (AccountView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.account(userID)
	if err != nil {
		return AccountView{}, err
	}
	return accountView(acc), nil
}

// ProjectsFor lists the projects userID may browse.
func (s *Service) ProjectsFor(userID string) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.account(userID)
	if err != nil {
		return nil, err
	}
	return projectCopies(s.engine.Filter().ProjectsFor(acc)), nil
}

// RegisterableProjectsFor lists the projects officerID could register for now.
func (s *Service) RegisterableProjectsFor(officerID string) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.graph.Officer(officerID)
	if !ok {
		return nil, domain.ErrEntityNotFound{Entity: domain.EntityUser, ID: officerID}
	}
	return projectCopies(s.engine.Filter().RegisterableProjectsFor(o)), nil
}

// HandledProjectsFor lists the projects officerID joined or registered for.
func (s *Service) HandledProjectsFor(officerID string) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.graph.Officer(officerID)
	if !ok {
		return nil, domain.ErrEntityNotFound{Entity: domain.EntityUser, ID: officerID}
	}
	return projectCopies(s.engine.Filter().HandledProjectsFor(o)), nil
}

// ApplicationsFor lists the applications userID may see.
func (s *Service) ApplicationsFor(userID string) ([]domain.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.account(userID)
	if err != nil {
		return nil, err
	}
	return applicationCopies(s.engine.Filter().ApplicationsFor(acc)), nil
}

// EnquiriesFor lists the enquiries userID may see.
func (s *Service) EnquiriesFor(userID string) ([]domain.Enquiry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.account(userID)
	if err != nil {
		return nil, err
	}
	return enquiryCopies(s.engine.Filter().EnquiriesFor(acc)), nil
}
