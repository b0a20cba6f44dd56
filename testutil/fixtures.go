// Package testutil holds the sample dataset and import-boundary assertions
// shared by tests across the module.
package testutil

import "housingcore/internal/records"

// SampleDataset returns a small, fully consistent set of records:
//
//   - A1 single 35, A2 single 30, A3 married 21 with a pending 3-Room BTO
//     application B1 on P1;
//   - O1 free, O2 joined to P1;
//   - M1 owns P1 (2025) and hidden P3 (2026), M2 owns P2 (February 2025);
//   - A1 filed enquiry E1 on P1.
//
// Each call returns fresh slices.
func SampleDataset() records.Dataset {
	return records.Dataset{
		Applicants: []records.ApplicantRecord{
			{ID: "A1", Name: "Alice", NRIC: "S1234567A", Age: "35", MaritalStatus: "Single", CanApply: "true", IsWithdrawing: "false", IsReceiptReady: "false"},
			{ID: "A2", Name: "Bala", NRIC: "S2345678B", Age: "30", MaritalStatus: "Single", CanApply: "true", IsWithdrawing: "false", IsReceiptReady: "false"},
			{ID: "A3", Name: "Chen", NRIC: "T3456789C", Age: "21", MaritalStatus: "Married", CanApply: "false", IsWithdrawing: "false", IsReceiptReady: "false",
				AppliedProject: "P1", ProjectApplication: "B1"},
		},
		Officers: []records.OfficerRecord{
			{ID: "O1", Name: "Devi", NRIC: "T1111111D", Age: "40", MaritalStatus: "Married"},
			{ID: "O2", Name: "Ethan", NRIC: "S2222222E", Age: "29", MaritalStatus: "Single", JoinedProjects: "P1"},
		},
		Managers: []records.ManagerRecord{
			{ID: "M1", Name: "Farah", NRIC: "T5555555F", Age: "45", MaritalStatus: "Married", Password: "m1pass"},
			{ID: "M2", Name: "Gopal", NRIC: "S6666666G", Age: "50", MaritalStatus: "Married"},
		},
		Projects: []records.ProjectRecord{
			{ID: "P1", Name: "Acacia Breeze", Neighbourhood: "Yishun", Units: "2-Room=2;3-Room=1", OpenDate: "01-01-2025", CloseDate: "31-12-2025",
				Manager: "M1", OfficerSlots: "3", Officers: "O2", Visible: "true"},
			{ID: "P2", Name: "Birch Grove", Neighbourhood: "Boon Lay", Units: "3-Room=4", OpenDate: "01-02-2025", CloseDate: "28-02-2025",
				Manager: "M2", OfficerSlots: "1", Visible: "true"},
			{ID: "P3", Name: "Cedar Court", Neighbourhood: "Tampines", Units: "2-Room=1", OpenDate: "01-03-2026", CloseDate: "31-03-2026",
				Manager: "M1", OfficerSlots: "10", Visible: "false"},
		},
		Applications: []records.ApplicationRecord{
			{ID: "B1", Kind: "BTO", User: "A3", Project: "P1", Status: "PENDING", Seq: "1", FlatType: "3-Room"},
		},
		Enquiries: []records.EnquiryRecord{
			{ID: "E1", Filer: "A1", Project: "P1", Message: "Is there sheltered parking?"},
		},
	}
}
