package graph

import (
	"errors"
	"testing"
	"time"

	"housingcore/pkg/domain"
)

func day(s string) time.Time {
	t, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixture(t *testing.T) (*Graph, *domain.Officer, *domain.Project) {
	t.Helper()
	g := New()
	m := &domain.Manager{User: domain.User{ID: "M1", NRIC: "T1234567J", Password: "secret"}}
	o := &domain.Officer{User: domain.User{ID: "O1", NRIC: "S7654321B", Password: domain.DefaultPassword}}
	a := &domain.Applicant{User: domain.User{ID: "A1", NRIC: "S1111111A"}, CanApply: true}
	for _, acc := range []domain.Account{m, o, a} {
		if err := g.Users.Put(acc.Profile().ID, acc); err != nil {
			t.Fatalf("put user: %v", err)
		}
	}
	p := &domain.Project{ID: "P1", ManagerID: "M1", OpenDate: day("01-02-2025"), CloseDate: day("28-02-2025"), Units: map[domain.FlatType]int{domain.FlatTwoRoom: 2}}
	if err := g.Projects.Put(p.ID, p); err != nil {
		t.Fatalf("put project: %v", err)
	}
	return g, o, p
}

func TestTypedAccessors(t *testing.T) {
	g, _, _ := fixture(t)
	if _, ok := g.Officer("O1"); !ok {
		t.Fatalf("expected officer O1")
	}
	if _, ok := g.Applicant("O1"); ok {
		t.Fatalf("officer must not resolve as applicant")
	}
	if _, ok := g.Manager("missing"); ok {
		t.Fatalf("unexpected manager")
	}
	if acc, ok := g.UserByNRIC("t1234567j"); !ok || acc.Role() != domain.RoleManager {
		t.Fatalf("lookup by nric failed: %v %v", acc, ok)
	}
}

func TestAuthenticate(t *testing.T) {
	g, _, _ := fixture(t)
	if _, err := g.Authenticate("T1234567J", "secret"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := g.Authenticate("T1234567J", "wrong"); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if _, err := g.Authenticate("S0000000Z", "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeqMonotonic(t *testing.T) {
	g := New()
	g.ObserveSeq(7)
	g.ObserveSeq(3)
	if n := g.NextSeq(); n != 8 {
		t.Fatalf("expected 8, got %d", n)
	}
	if n := g.NextSeq(); n != 9 {
		t.Fatalf("expected 9, got %d", n)
	}
}

func TestLinkHelpersKeepInvariants(t *testing.T) {
	g, o, p := fixture(t)
	reg := &domain.Application{ID: "R1", Kind: domain.KindRegistration, UserID: o.ID, ProjectID: p.ID, Status: domain.StatusPending, Seq: g.NextSeq()}
	if err := g.Applications.Put(reg.ID, reg); err != nil {
		t.Fatalf("put: %v", err)
	}
	AddRegistration(o, p, reg.ID)
	if v := g.CheckInvariants(); len(v) != 0 {
		t.Fatalf("unexpected violations after register: %v", v)
	}
	JoinProject(o, p)
	if o.RegisteredProjects.Contains(p.ID) || !o.JoinedProjects.Contains(p.ID) || !p.Officers.Contains(o.ID) {
		t.Fatalf("join did not move project: %+v", o)
	}
	if v := g.CheckInvariants(); len(v) != 0 {
		t.Fatalf("unexpected violations after join: %v", v)
	}
	DropRegistration(o, p)
	if !o.ProhibitedProjects.Contains(p.ID) {
		t.Fatalf("joined project must stay prohibited")
	}
}

func TestDropRegistrationReleasesProhibition(t *testing.T) {
	_, o, p := fixture(t)
	AddRegistration(o, p, "R1")
	DropRegistration(o, p)
	if o.ProhibitedProjects.Contains(p.ID) || o.RegisteredProjects.Contains(p.ID) {
		t.Fatalf("expected project released: %+v", o)
	}
}

func TestCheckInvariantsReportsBreakage(t *testing.T) {
	g, o, p := fixture(t)
	o.JoinedProjects.Add(p.ID)
	a, _ := g.Applicant("A1")
	a.WithdrawalApplicationID = "W9"
	v := g.CheckInvariants()
	if len(v) < 3 {
		t.Fatalf("expected prohibited, join-back and withdrawal violations, got %v", v)
	}
}

func TestReverseIndexes(t *testing.T) {
	g, _, p := fixture(t)
	for i, id := range []string{"B2", "B1"} {
		app := &domain.Application{ID: id, Kind: domain.KindBTO, UserID: "A1", ProjectID: p.ID, Status: domain.StatusPending, Seq: 10 - i}
		if err := g.Applications.Put(id, app); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	apps := g.ApplicationsBy("A1")
	if len(apps) != 2 || apps[0].ID != "B1" {
		t.Fatalf("expected seq ordering, got %+v", apps)
	}
	if got := g.ProjectsOwnedBy("M1"); len(got) != 1 || got[0].ID != "P1" {
		t.Fatalf("unexpected owned projects %+v", got)
	}
	g.DropApplication("B1")
	if len(g.ApplicationsForProject(p.ID)) != 1 {
		t.Fatalf("expected one application left")
	}
}
