package loader

import (
	"errors"
	"fmt"
	"sort"

	"housingcore/internal/graph"
	"housingcore/internal/records"
	"housingcore/pkg/domain"
)

// pending carries the optional references read in Phase 1 until Phase 2
// binds them.
type pending struct {
	applicants      map[string]applicantRefs
	officers        map[string]officerRefs
	projectOfficers map[string][]string
	targets         map[string]string
}

type applicantRefs struct {
	appliedProject        string
	projectApplication    string
	withdrawalApplication string
}

type officerRefs struct {
	joined        []string
	registered    []string
	registrations []string
}

type hydrator struct {
	g       *graph.Graph
	diag    func(domain.Diagnostic)
	pending *pending
}

func (h *hydrator) run(d records.Dataset) {
	h.pending.applicants = make(map[string]applicantRefs, len(d.Applicants))
	h.pending.officers = make(map[string]officerRefs, len(d.Officers))
	h.pending.projectOfficers = make(map[string][]string, len(d.Projects))
	h.pending.targets = make(map[string]string)

	for _, rec := range d.Applicants {
		h.applicant(rec)
	}
	for _, rec := range d.Officers {
		h.officer(rec)
	}
	for _, rec := range d.Managers {
		h.manager(rec)
	}
	for _, rec := range d.Projects {
		h.project(rec)
	}
	for _, rec := range d.Applications {
		h.application(rec)
	}
	h.assignMissingSeq()
	for _, rec := range d.Enquiries {
		h.enquiry(rec)
	}
}

// assignMissingSeq numbers applications loaded without a seq after the
// highest one observed, in ID order.
func (h *hydrator) assignMissingSeq() {
	var missing []*domain.Application
	for a := range h.g.Applications.All() {
		if a.Seq == 0 {
			missing = append(missing, a)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].ID < missing[j].ID })
	for _, a := range missing {
		a.Seq = h.g.NextSeq()
	}
}

func (h *hydrator) drop(entity domain.EntityType, id, field string, err error) {
	h.diag(domain.Diagnostic{Kind: domain.DiagnosticDropped, Entity: entity, EntityID: id, Field: field, Err: err})
}

// requireID reports whether the record carries an ID and drops it otherwise.
func (h *hydrator) requireID(entity domain.EntityType, id string) bool {
	if id != "" {
		return true
	}
	h.drop(entity, "", "id", domain.MalformedError{Entity: entity, Field: "id", Err: errors.New("empty id")})
	return false
}

func (h *hydrator) user(f *fieldErr, id, name, nric, age, marital, password string) domain.User {
	u := domain.User{
		ID:            id,
		Name:          name,
		NRIC:          f.nric(nric),
		Age:           f.integer("age", age, 0),
		MaritalStatus: f.marital(marital),
		Password:      password,
	}
	if u.Password == "" {
		u.Password = domain.DefaultPassword
	}
	return u
}

func (h *hydrator) putUser(acc domain.Account) bool {
	id := acc.Profile().ID
	if err := h.g.Users.Put(id, acc); err != nil {
		h.drop(domain.EntityUser, id, "id", err)
		return false
	}
	return true
}

func (h *hydrator) applicant(rec records.ApplicantRecord) {
	if !h.requireID(domain.EntityUser, rec.ID) {
		return
	}
	f := &fieldErr{entity: domain.EntityUser, id: rec.ID}
	a := &domain.Applicant{
		User:           h.user(f, rec.ID, rec.Name, rec.NRIC, rec.Age, rec.MaritalStatus, rec.Password),
		CanApply:       f.boolean("can_apply", rec.CanApply, true),
		IsWithdrawing:  f.boolean("is_withdrawing", rec.IsWithdrawing, false),
		IsReceiptReady: f.boolean("is_receipt_ready", rec.IsReceiptReady, false),
	}
	if f.err != nil {
		h.drop(domain.EntityUser, rec.ID, "", f.err)
		return
	}
	if h.putUser(a) {
		h.pending.applicants[a.ID] = applicantRefs{
			appliedProject:        rec.AppliedProject,
			projectApplication:    rec.ProjectApplication,
			withdrawalApplication: rec.WithdrawalApplication,
		}
	}
}

func (h *hydrator) officer(rec records.OfficerRecord) {
	if !h.requireID(domain.EntityUser, rec.ID) {
		return
	}
	f := &fieldErr{entity: domain.EntityUser, id: rec.ID}
	o := &domain.Officer{User: h.user(f, rec.ID, rec.Name, rec.NRIC, rec.Age, rec.MaritalStatus, rec.Password)}
	if f.err != nil {
		h.drop(domain.EntityUser, rec.ID, "", f.err)
		return
	}
	if h.putUser(o) {
		h.pending.officers[o.ID] = officerRefs{
			joined:        domain.ParseIDList(rec.JoinedProjects),
			registered:    domain.ParseIDList(rec.RegisteredProjects),
			registrations: domain.ParseIDList(rec.ProjectRegistrations),
		}
	}
}

func (h *hydrator) manager(rec records.ManagerRecord) {
	if !h.requireID(domain.EntityUser, rec.ID) {
		return
	}
	f := &fieldErr{entity: domain.EntityUser, id: rec.ID}
	m := &domain.Manager{User: h.user(f, rec.ID, rec.Name, rec.NRIC, rec.Age, rec.MaritalStatus, rec.Password)}
	if f.err != nil {
		h.drop(domain.EntityUser, rec.ID, "", f.err)
		return
	}
	h.putUser(m)
}

// requiredUser resolves a required user reference and checks its role.
func (h *hydrator) requiredUser(entity domain.EntityType, id, field, userID string, roles ...domain.Role) bool {
	ref := domain.ReferenceError{Entity: entity, ID: id, Field: field, Target: domain.EntityUser, TargetID: userID, Required: true}
	acc, ok := h.g.Users.Get(userID)
	if !ok {
		h.drop(entity, id, field, ref)
		return false
	}
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if acc.Role() == r {
			return true
		}
	}
	h.drop(entity, id, field, fmt.Errorf("%w: user has role %s, want %v", ref, acc.Role(), roles))
	return false
}

func (h *hydrator) requiredProject(entity domain.EntityType, id, field, projectID string) bool {
	if h.g.Projects.Has(projectID) {
		return true
	}
	h.drop(entity, id, field, domain.ReferenceError{Entity: entity, ID: id, Field: field, Target: domain.EntityProject, TargetID: projectID, Required: true})
	return false
}

func (h *hydrator) project(rec records.ProjectRecord) {
	if !h.requireID(domain.EntityProject, rec.ID) {
		return
	}
	f := &fieldErr{entity: domain.EntityProject, id: rec.ID}
	p := &domain.Project{
		ID:            rec.ID,
		Name:          rec.Name,
		Neighbourhood: rec.Neighbourhood,
		Units:         f.units(rec.Units),
		OpenDate:      f.date("open_date", rec.OpenDate),
		CloseDate:     f.date("close_date", rec.CloseDate),
		ManagerID:     rec.Manager,
		OfficerSlots:  f.integer("officer_slots", rec.OfficerSlots, domain.DefaultOfficerSlots),
		Visible:       f.boolean("visible", rec.Visible, true),
	}
	if f.err == nil && p.CloseDate.Before(p.OpenDate) {
		f.fail("close_date", fmt.Errorf("closes %s before opening %s", rec.CloseDate, rec.OpenDate))
	}
	if f.err != nil {
		h.drop(domain.EntityProject, rec.ID, "", f.err)
		return
	}
	if !h.requiredUser(domain.EntityProject, p.ID, "manager", p.ManagerID, domain.RoleManager) {
		return
	}
	if err := h.g.Projects.Put(p.ID, p); err != nil {
		h.drop(domain.EntityProject, p.ID, "id", err)
		return
	}
	h.pending.projectOfficers[p.ID] = domain.ParseIDList(rec.Officers)
}

func (h *hydrator) application(rec records.ApplicationRecord) {
	if !h.requireID(domain.EntityApplication, rec.ID) {
		return
	}
	f := &fieldErr{entity: domain.EntityApplication, id: rec.ID}
	kind, err := domain.ParseApplicationKind(rec.Kind)
	if err != nil {
		f.fail("kind", err)
	}
	status := domain.StatusPending
	if rec.Status != "" {
		if status, err = domain.ParseApplicationStatus(rec.Status); err != nil {
			f.fail("status", err)
		}
	}
	a := &domain.Application{
		ID:        rec.ID,
		Kind:      kind,
		UserID:    rec.User,
		ProjectID: rec.Project,
		Status:    status,
		Seq:       f.integer("seq", rec.Seq, 0),
	}
	if kind == domain.KindBTO {
		if a.FlatType, err = domain.ParseFlatType(rec.FlatType); err != nil {
			f.fail("flat_type", err)
		}
	}
	if f.err != nil {
		h.drop(domain.EntityApplication, rec.ID, "", f.err)
		return
	}
	role := domain.RoleApplicant
	if kind == domain.KindRegistration {
		role = domain.RoleOfficer
	}
	if !h.requiredUser(domain.EntityApplication, a.ID, "user", a.UserID, role) ||
		!h.requiredProject(domain.EntityApplication, a.ID, "project", a.ProjectID) {
		return
	}
	if err := h.g.Applications.Put(a.ID, a); err != nil {
		h.drop(domain.EntityApplication, a.ID, "id", err)
		return
	}
	h.g.ObserveSeq(a.Seq)
	if kind == domain.KindWithdrawal && rec.Target != "" {
		h.pending.targets[a.ID] = rec.Target
	}
}

func (h *hydrator) enquiry(rec records.EnquiryRecord) {
	if !h.requireID(domain.EntityEnquiry, rec.ID) {
		return
	}
	e := &domain.Enquiry{ID: rec.ID, FilerID: rec.Filer, ProjectID: rec.Project, Message: rec.Message, Reply: rec.Reply, RepliedBy: rec.RepliedBy}
	if !h.requiredUser(domain.EntityEnquiry, e.ID, "filer", e.FilerID) ||
		!h.requiredProject(domain.EntityEnquiry, e.ID, "project", e.ProjectID) {
		return
	}
	if err := h.g.Enquiries.Put(e.ID, e); err != nil {
		h.drop(domain.EntityEnquiry, e.ID, "id", err)
	}
}
