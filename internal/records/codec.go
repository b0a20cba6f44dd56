package records

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

type schema[R any] struct {
	columns []string
	encode  func(R) []string
	decode  func(field func(string) string) R
}

var applicantSchema = schema[ApplicantRecord]{
	columns: []string{"id", "name", "nric", "age", "marital_status", "password", "can_apply", "is_withdrawing", "is_receipt_ready", "applied_project", "project_application", "withdrawal_application"},
	encode: func(r ApplicantRecord) []string {
		return []string{r.ID, r.Name, r.NRIC, r.Age, r.MaritalStatus, r.Password, r.CanApply, r.IsWithdrawing, r.IsReceiptReady, r.AppliedProject, r.ProjectApplication, r.WithdrawalApplication}
	},
	decode: func(f func(string) string) ApplicantRecord {
		return ApplicantRecord{
			ID: f("id"), Name: f("name"), NRIC: f("nric"), Age: f("age"), MaritalStatus: f("marital_status"), Password: f("password"),
			CanApply: f("can_apply"), IsWithdrawing: f("is_withdrawing"), IsReceiptReady: f("is_receipt_ready"),
			AppliedProject: f("applied_project"), ProjectApplication: f("project_application"), WithdrawalApplication: f("withdrawal_application"),
		}
	},
}

var officerSchema = schema[OfficerRecord]{
	columns: []string{"id", "name", "nric", "age", "marital_status", "password", "joined_projects", "registered_projects", "project_registrations"},
	encode: func(r OfficerRecord) []string {
		return []string{r.ID, r.Name, r.NRIC, r.Age, r.MaritalStatus, r.Password, r.JoinedProjects, r.RegisteredProjects, r.ProjectRegistrations}
	},
	decode: func(f func(string) string) OfficerRecord {
		return OfficerRecord{
			ID: f("id"), Name: f("name"), NRIC: f("nric"), Age: f("age"), MaritalStatus: f("marital_status"), Password: f("password"),
			JoinedProjects: f("joined_projects"), RegisteredProjects: f("registered_projects"), ProjectRegistrations: f("project_registrations"),
		}
	},
}

var managerSchema = schema[ManagerRecord]{
	columns: []string{"id", "name", "nric", "age", "marital_status", "password"},
	encode: func(r ManagerRecord) []string {
		return []string{r.ID, r.Name, r.NRIC, r.Age, r.MaritalStatus, r.Password}
	},
	decode: func(f func(string) string) ManagerRecord {
		return ManagerRecord{ID: f("id"), Name: f("name"), NRIC: f("nric"), Age: f("age"), MaritalStatus: f("marital_status"), Password: f("password")}
	},
}

var projectSchema = schema[ProjectRecord]{
	columns: []string{"id", "name", "neighbourhood", "units", "open_date", "close_date", "manager", "officer_slots", "officers", "visible"},
	encode: func(r ProjectRecord) []string {
		return []string{r.ID, r.Name, r.Neighbourhood, r.Units, r.OpenDate, r.CloseDate, r.Manager, r.OfficerSlots, r.Officers, r.Visible}
	},
	decode: func(f func(string) string) ProjectRecord {
		return ProjectRecord{
			ID: f("id"), Name: f("name"), Neighbourhood: f("neighbourhood"), Units: f("units"), OpenDate: f("open_date"), CloseDate: f("close_date"),
			Manager: f("manager"), OfficerSlots: f("officer_slots"), Officers: f("officers"), Visible: f("visible"),
		}
	},
}

var applicationSchema = schema[ApplicationRecord]{
	columns: []string{"id", "kind", "user", "project", "status", "seq", "flat_type", "target"},
	encode: func(r ApplicationRecord) []string {
		return []string{r.ID, r.Kind, r.User, r.Project, r.Status, r.Seq, r.FlatType, r.Target}
	},
	decode: func(f func(string) string) ApplicationRecord {
		return ApplicationRecord{ID: f("id"), Kind: f("kind"), User: f("user"), Project: f("project"), Status: f("status"), Seq: f("seq"), FlatType: f("flat_type"), Target: f("target")}
	},
}

var enquirySchema = schema[EnquiryRecord]{
	columns: []string{"id", "filer", "project", "message", "reply", "replied_by"},
	encode: func(r EnquiryRecord) []string {
		return []string{r.ID, r.Filer, r.Project, r.Message, r.Reply, r.RepliedBy}
	},
	decode: func(f func(string) string) EnquiryRecord {
		return EnquiryRecord{ID: f("id"), Filer: f("filer"), Project: f("project"), Message: f("message"), Reply: f("reply"), RepliedBy: f("replied_by")}
	},
}

func writeTable[R any](w io.Writer, s schema[R], rows []R) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.columns); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(s.encode(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// textColumns hold free text and are read back exactly as written. Every
// other column is an ID, enum, date or number and is trimmed.
var textColumns = map[string]bool{
	"name":          true,
	"password":      true,
	"neighbourhood": true,
	"message":       true,
	"reply":         true,
}

// readTable decodes a table with a header row. Columns are matched by name so
// their order in the file is free; unknown columns are ignored and missing
// ones read as empty strings. An empty input yields no rows.
func readTable[R any](r io.Reader, s schema[R]) ([]R, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := index["id"]; !ok {
		return nil, fmt.Errorf("header is missing the id column")
	}
	var out []R
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			if textColumns[name] {
				return row[i]
			}
			return strings.TrimSpace(row[i])
		}
		out = append(out, s.decode(field))
	}
}

// EncodeTable renders one table of the dataset.
func EncodeTable(d Dataset, kind Kind) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch kind {
	case KindApplicants:
		err = writeTable(&buf, applicantSchema, d.Applicants)
	case KindOfficers:
		err = writeTable(&buf, officerSchema, d.Officers)
	case KindManagers:
		err = writeTable(&buf, managerSchema, d.Managers)
	case KindProjects:
		err = writeTable(&buf, projectSchema, d.Projects)
	case KindApplications:
		err = writeTable(&buf, applicationSchema, d.Applications)
	case KindEnquiries:
		err = writeTable(&buf, enquirySchema, d.Enquiries)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", kind, err)
	}
	return buf.Bytes(), nil
}

// DecodeTable parses one table into the matching field of d.
func DecodeTable(d *Dataset, kind Kind, r io.Reader) error {
	var err error
	switch kind {
	case KindApplicants:
		d.Applicants, err = readTable(r, applicantSchema)
	case KindOfficers:
		d.Officers, err = readTable(r, officerSchema)
	case KindManagers:
		d.Managers, err = readTable(r, managerSchema)
	case KindProjects:
		d.Projects, err = readTable(r, projectSchema)
	case KindApplications:
		d.Applications, err = readTable(r, applicationSchema)
	case KindEnquiries:
		d.Enquiries, err = readTable(r, enquirySchema)
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", kind, err)
	}
	return nil
}

// EncodeDataset renders every table, keyed by kind.
func EncodeDataset(d Dataset) (map[Kind][]byte, error) {
	out := make(map[Kind][]byte, len(Kinds))
	for _, kind := range Kinds {
		data, err := EncodeTable(d, kind)
		if err != nil {
			return nil, err
		}
		out[kind] = data
	}
	return out, nil
}

// DecodeDataset parses the supplied tables. Absent kinds decode as empty.
func DecodeDataset(tables map[Kind][]byte) (Dataset, error) {
	var d Dataset
	for _, kind := range Kinds {
		data, ok := tables[kind]
		if !ok {
			continue
		}
		if err := DecodeTable(&d, kind, bytes.NewReader(data)); err != nil {
			return Dataset{}, err
		}
	}
	return d, nil
}
