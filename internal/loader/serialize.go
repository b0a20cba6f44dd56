package loader

import (
	"strconv"

	"housingcore/internal/graph"
	"housingcore/internal/records"
	"housingcore/pkg/domain"
)

// Serialize flattens g back into records, in store order. Loading the result
// yields an equal graph.
func Serialize(g *graph.Graph) records.Dataset {
	var d records.Dataset
	for acc := range g.Users.All() {
		u := acc.Profile()
		age := strconv.Itoa(u.Age)
		switch v := acc.(type) {
		case *domain.Applicant:
			d.Applicants = append(d.Applicants, records.ApplicantRecord{
				ID: u.ID, Name: u.Name, NRIC: u.NRIC, Age: age, MaritalStatus: string(u.MaritalStatus), Password: u.Password,
				CanApply:              strconv.FormatBool(v.CanApply),
				IsWithdrawing:         strconv.FormatBool(v.IsWithdrawing),
				IsReceiptReady:        strconv.FormatBool(v.IsReceiptReady),
				AppliedProject:        v.AppliedProjectID,
				ProjectApplication:    v.ProjectApplicationID,
				WithdrawalApplication: v.WithdrawalApplicationID,
			})
		case *domain.Officer:
			d.Officers = append(d.Officers, records.OfficerRecord{
				ID: u.ID, Name: u.Name, NRIC: u.NRIC, Age: age, MaritalStatus: string(u.MaritalStatus), Password: u.Password,
				JoinedProjects:       v.JoinedProjects.String(),
				RegisteredProjects:   v.RegisteredProjects.String(),
				ProjectRegistrations: v.ProjectRegistrations.String(),
			})
		case *domain.Manager:
			d.Managers = append(d.Managers, records.ManagerRecord{
				ID: u.ID, Name: u.Name, NRIC: u.NRIC, Age: age, MaritalStatus: string(u.MaritalStatus), Password: u.Password,
			})
		}
	}
	for p := range g.Projects.All() {
		d.Projects = append(d.Projects, records.ProjectRecord{
			ID:            p.ID,
			Name:          p.Name,
			Neighbourhood: p.Neighbourhood,
			Units:         formatUnits(p.Units),
			OpenDate:      domain.FormatDate(p.OpenDate),
			CloseDate:     domain.FormatDate(p.CloseDate),
			Manager:       p.ManagerID,
			OfficerSlots:  strconv.Itoa(p.OfficerSlots),
			Officers:      p.Officers.String(),
			Visible:       strconv.FormatBool(p.Visible),
		})
	}
	for a := range g.Applications.All() {
		d.Applications = append(d.Applications, records.ApplicationRecord{
			ID:       a.ID,
			Kind:     string(a.Kind),
			User:     a.UserID,
			Project:  a.ProjectID,
			Status:   string(a.Status),
			Seq:      strconv.Itoa(a.Seq),
			FlatType: string(a.FlatType),
			Target:   a.TargetID,
		})
	}
	for e := range g.Enquiries.All() {
		d.Enquiries = append(d.Enquiries, records.EnquiryRecord{
			ID: e.ID, Filer: e.FilerID, Project: e.ProjectID, Message: e.Message, Reply: e.Reply, RepliedBy: e.RepliedBy,
		})
	}
	return d
}
