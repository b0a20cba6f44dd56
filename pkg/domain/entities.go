// Package domain defines the persistent entities, value types, and outcome
// primitives shared by the housingcore loader, rules, and lifecycle engines.
package domain

import (
	"fmt"
	"time"
)

// EntityType identifies the kind of record held in the graph.
type EntityType string

// Supported entity kinds. All user roles share EntityUser so that user IDs are
// unique across applicants, officers and managers.
const (
	// EntityUser identifies any user account record.
	EntityUser EntityType = "user"
	// EntityProject identifies a housing project record.
	EntityProject EntityType = "project"
	// EntityApplication identifies an application-like record (BTO,
	// registration, withdrawal).
	EntityApplication EntityType = "application"
	// EntityEnquiry identifies an enquiry record.
	EntityEnquiry EntityType = "enquiry"
)

// Role tags the concrete variant of a user account.
type Role string

// Canonical user roles.
const (
	RoleApplicant Role = "Applicant"
	RoleOfficer   Role = "Officer"
	RoleManager   Role = "Manager"
)

// MaritalStatus captures the marital state used by eligibility rules.
type MaritalStatus string

// Supported marital statuses.
const (
	MaritalSingle  MaritalStatus = "Single"
	MaritalMarried MaritalStatus = "Married"
)

// ParseMaritalStatus maps a persisted value onto a MaritalStatus.
func ParseMaritalStatus(raw string) (MaritalStatus, error) {
	switch MaritalStatus(raw) {
	case MaritalSingle, MaritalMarried:
		return MaritalStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown marital status %q", raw)
	}
}

// FlatType identifies a room type offered by a project.
type FlatType string

// Offered flat types.
const (
	FlatTwoRoom   FlatType = "2-Room"
	FlatThreeRoom FlatType = "3-Room"
)

// AllFlatTypes lists every flat type in canonical order.
var AllFlatTypes = []FlatType{FlatTwoRoom, FlatThreeRoom}

// ParseFlatType maps a persisted value onto a FlatType.
func ParseFlatType(raw string) (FlatType, error) {
	for _, ft := range AllFlatTypes {
		if string(ft) == raw {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown flat type %q", raw)
}

// ApplicationKind distinguishes the application variants.
type ApplicationKind string

// Application variants.
const (
	KindBTO          ApplicationKind = "BTO"
	KindRegistration ApplicationKind = "Registration"
	KindWithdrawal   ApplicationKind = "Withdrawal"
)

// ParseApplicationKind maps a persisted value onto an ApplicationKind.
func ParseApplicationKind(raw string) (ApplicationKind, error) {
	switch ApplicationKind(raw) {
	case KindBTO, KindRegistration, KindWithdrawal:
		return ApplicationKind(raw), nil
	default:
		return "", fmt.Errorf("unknown application kind %q", raw)
	}
}

// ApplicationStatus enumerates the application lifecycle states.
type ApplicationStatus string

// Application lifecycle states. Pending is the only non-terminal state.
const (
	StatusPending      ApplicationStatus = "PENDING"
	StatusSuccessful   ApplicationStatus = "SUCCESSFUL"
	StatusUnsuccessful ApplicationStatus = "UNSUCCESSFUL"
	StatusBooked       ApplicationStatus = "BOOKED"
	StatusWithdrawn    ApplicationStatus = "WITHDRAWN"
)

// ParseApplicationStatus maps a persisted value onto an ApplicationStatus.
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	switch ApplicationStatus(raw) {
	case StatusPending, StatusSuccessful, StatusUnsuccessful, StatusBooked, StatusWithdrawn:
		return ApplicationStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown application status %q", raw)
	}
}

// DateLayout is the persisted date format (dd-mm-yyyy).
const DateLayout = "02-01-2006"

// ParseDate parses a persisted date into a UTC midnight timestamp.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, raw, time.UTC)
}

// FormatDate renders a date using DateLayout.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DefaultPassword is assigned to users whose record carries no password.
const DefaultPassword = "password"

// User contains the fields common to every account.
type User struct {
	ID            string
	Name          string
	NRIC          string
	Age           int
	MaritalStatus MaritalStatus
	Password      string
}

// Account is the sum type over Applicant, Officer and Manager.
type Account interface {
	Profile() *User
	Role() Role
}

// Official is satisfied by accounts that manage enquiries for the projects
// they are attached to.
type Official interface {
	Account
	Handles(p *Project) bool
}

// Applicant is a user that applies for flats.
type Applicant struct {
	User
	CanApply       bool
	IsWithdrawing  bool
	IsReceiptReady bool
	// Nullable references; an empty string is null.
	AppliedProjectID        string
	ProjectApplicationID    string
	WithdrawalApplicationID string
}

// Profile returns the shared user fields.
func (a *Applicant) Profile() *User { return &a.User }

// Role reports RoleApplicant.
func (a *Applicant) Role() Role { return RoleApplicant }

// Officer is a user that registers to handle projects.
type Officer struct {
	User
	JoinedProjects       IDSet
	RegisteredProjects   IDSet
	ProhibitedProjects   IDSet
	ProjectRegistrations IDSet
}

// Profile returns the shared user fields.
func (o *Officer) Profile() *User { return &o.User }

// Role reports RoleOfficer.
func (o *Officer) Role() Role { return RoleOfficer }

// Handles reports whether the officer has joined the project.
func (o *Officer) Handles(p *Project) bool {
	return p != nil && o.JoinedProjects.Contains(p.ID)
}

// Manager is a user that owns projects and reviews applications.
type Manager struct {
	User
}

// Profile returns the shared user fields.
func (m *Manager) Profile() *User { return &m.User }

// Role reports RoleManager.
func (m *Manager) Role() Role { return RoleManager }

// Handles reports whether the manager owns the project.
func (m *Manager) Handles(p *Project) bool {
	return p != nil && p.ManagerID == m.ID
}

// DefaultOfficerSlots caps the number of officers a project accepts when the
// record does not specify a limit.
const DefaultOfficerSlots = 10

// Project is a housing project with an application window.
type Project struct {
	ID            string
	Name          string
	Neighbourhood string
	Units         map[FlatType]int
	OpenDate      time.Time
	CloseDate     time.Time
	ManagerID     string
	OfficerSlots  int
	Officers      IDSet
	Visible       bool
}

// Offers reports whether the project lists the flat type at all.
func (p *Project) Offers(ft FlatType) bool {
	_, ok := p.Units[ft]
	return ok
}

// OfferedFlatTypes returns the listed flat types in canonical order.
func (p *Project) OfferedFlatTypes() []FlatType {
	out := make([]FlatType, 0, len(p.Units))
	for _, ft := range AllFlatTypes {
		if p.Offers(ft) {
			out = append(out, ft)
		}
	}
	return out
}

// OpenOn reports whether the application window contains the given day.
func (p *Project) OpenOn(day time.Time) bool {
	d := truncateDay(day)
	return !d.Before(p.OpenDate) && !d.After(p.CloseDate)
}

// Application is an application-like record. The Kind selects the variant.
type Application struct {
	ID        string
	Kind      ApplicationKind
	UserID    string
	ProjectID string
	Status    ApplicationStatus
	Seq       int
	// FlatType is set for BTO applications.
	FlatType FlatType
	// TargetID points a withdrawal at the BTO application it withdraws.
	TargetID string
}

// Enquiry is a question filed by a user about a project.
type Enquiry struct {
	ID        string
	FilerID   string
	ProjectID string
	Message   string
	Reply     string
	RepliedBy string
}

// Replied reports whether the enquiry has an answer.
func (e *Enquiry) Replied() bool { return e.Reply != "" }

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
