// Package records holds the flat, ID-only record shapes persisted per entity
// kind, the delimited codec that reads and writes them, and the Backend
// abstraction used to fetch and rewrite whole tables.
//
// Records carry raw strings only. Parsing primitive fields and resolving
// references is the loader's job.
package records

// Kind names a persisted table.
type Kind string

// Persisted tables, in hydration order.
const (
	KindApplicants   Kind = "applicants"
	KindOfficers     Kind = "officers"
	KindManagers     Kind = "managers"
	KindProjects     Kind = "projects"
	KindApplications Kind = "applications"
	KindEnquiries    Kind = "enquiries"
)

// Kinds lists every table in hydration order.
var Kinds = []Kind{KindApplicants, KindOfficers, KindManagers, KindProjects, KindApplications, KindEnquiries}

// FileName returns the object key or file name used for the table.
func (k Kind) FileName() string { return string(k) + ".csv" }

// ApplicantRecord is one row of applicants.csv.
type ApplicantRecord struct {
	ID                    string
	Name                  string
	NRIC                  string
	Age                   string
	MaritalStatus         string
	Password              string
	CanApply              string
	IsWithdrawing         string
	IsReceiptReady        string
	AppliedProject        string
	ProjectApplication    string
	WithdrawalApplication string
}

// OfficerRecord is one row of officers.csv. List fields are semicolon-joined IDs.
type OfficerRecord struct {
	ID                   string
	Name                 string
	NRIC                 string
	Age                  string
	MaritalStatus        string
	Password             string
	JoinedProjects       string
	RegisteredProjects   string
	ProjectRegistrations string
}

// ManagerRecord is one row of managers.csv.
type ManagerRecord struct {
	ID            string
	Name          string
	NRIC          string
	Age           string
	MaritalStatus string
	Password      string
}

// ProjectRecord is one row of projects.csv. Units is encoded as
// "2-Room=10;3-Room=5".
type ProjectRecord struct {
	ID            string
	Name          string
	Neighbourhood string
	Units         string
	OpenDate      string
	CloseDate     string
	Manager       string
	OfficerSlots  string
	Officers      string
	Visible       string
}

// ApplicationRecord is one row of applications.csv.
type ApplicationRecord struct {
	ID       string
	Kind     string
	User     string
	Project  string
	Status   string
	Seq      string
	FlatType string
	Target   string
}

// EnquiryRecord is one row of enquiries.csv.
type EnquiryRecord struct {
	ID        string
	Filer     string
	Project   string
	Message   string
	Reply     string
	RepliedBy string
}

// Dataset is the full set of persisted tables.
type Dataset struct {
	Applicants   []ApplicantRecord
	Officers     []OfficerRecord
	Managers     []ManagerRecord
	Projects     []ProjectRecord
	Applications []ApplicationRecord
	Enquiries    []EnquiryRecord
}

// Len returns the total number of records across all tables.
func (d Dataset) Len() int {
	return len(d.Applicants) + len(d.Officers) + len(d.Managers) + len(d.Projects) + len(d.Applications) + len(d.Enquiries)
}

// Clone returns a copy whose slices do not alias d.
func (d Dataset) Clone() Dataset {
	return Dataset{
		Applicants:   append([]ApplicantRecord(nil), d.Applicants...),
		Officers:     append([]OfficerRecord(nil), d.Officers...),
		Managers:     append([]ManagerRecord(nil), d.Managers...),
		Projects:     append([]ProjectRecord(nil), d.Projects...),
		Applications: append([]ApplicationRecord(nil), d.Applications...),
		Enquiries:    append([]EnquiryRecord(nil), d.Enquiries...),
	}
}
