package loader

import (
	"bytes"
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"housingcore/internal/records"
	"housingcore/pkg/domain"
	"housingcore/testutil"
)

func mustLoad(t *testing.T, d records.Dataset) (*Pipeline, records.Dataset) {
	t.Helper()
	p := NewPipeline()
	if err := p.Hydrate(d); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if err := p.Resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	g, err := p.Graph()
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	return p, Serialize(g)
}

func sortByID(d records.Dataset) records.Dataset {
	d = d.Clone()
	sort.Slice(d.Applicants, func(i, j int) bool { return d.Applicants[i].ID < d.Applicants[j].ID })
	sort.Slice(d.Officers, func(i, j int) bool { return d.Officers[i].ID < d.Officers[j].ID })
	sort.Slice(d.Managers, func(i, j int) bool { return d.Managers[i].ID < d.Managers[j].ID })
	sort.Slice(d.Projects, func(i, j int) bool { return d.Projects[i].ID < d.Projects[j].ID })
	sort.Slice(d.Applications, func(i, j int) bool { return d.Applications[i].ID < d.Applications[j].ID })
	sort.Slice(d.Enquiries, func(i, j int) bool { return d.Enquiries[i].ID < d.Enquiries[j].ID })
	return d
}

func TestLoadSampleIsClean(t *testing.T) {
	g, report, err := Load(testutil.SampleDataset())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !report.Clean() {
		t.Fatalf("expected clean report, got %+v", report.Diagnostics)
	}
	if v := g.CheckInvariants(); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
	o2, _ := g.Officer("O2")
	if !o2.ProhibitedProjects.Contains("P1") {
		t.Fatalf("joined project must be prohibited")
	}
	a1, _ := g.Applicant("A1")
	if a1.Password != domain.DefaultPassword {
		t.Fatalf("expected default password, got %q", a1.Password)
	}
}

func TestPhaseOrder(t *testing.T) {
	p := NewPipeline()
	if err := p.Resolve(); !errors.Is(err, ErrPhaseOrder) {
		t.Fatalf("expected ErrPhaseOrder from early resolve, got %v", err)
	}
	if _, err := p.Graph(); !errors.Is(err, ErrPhaseOrder) {
		t.Fatalf("expected ErrPhaseOrder from early graph, got %v", err)
	}
	if err := p.Hydrate(records.Dataset{}); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if err := p.Hydrate(records.Dataset{}); !errors.Is(err, ErrPhaseOrder) {
		t.Fatalf("expected ErrPhaseOrder from second hydrate, got %v", err)
	}
	if err := p.Resolve(); err != nil || p.State() != StateResolved {
		t.Fatalf("resolve: %v %s", err, p.State())
	}
}

func TestHydrateDropsDanglingApplication(t *testing.T) {
	d := testutil.SampleDataset()
	d.Applications = append(d.Applications,
		records.ApplicationRecord{ID: "B9", Kind: "BTO", User: "A404", Project: "P1", FlatType: "2-Room"},
		records.ApplicationRecord{ID: "B8", Kind: "BTO", User: "A1", Project: "P404", FlatType: "2-Room"},
		records.ApplicationRecord{ID: "R9", Kind: "Registration", User: "A1", Project: "P1"},
	)
	g, report, err := Load(d)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, id := range []string{"B9", "B8", "R9"} {
		if g.Applications.Has(id) {
			t.Fatalf("expected %s dropped", id)
		}
	}
	if n := report.Count(domain.ErrMissingRequiredReference); n != 3 {
		t.Fatalf("expected 3 missing-reference diagnostics, got %d: %+v", n, report.Diagnostics)
	}
	if g.Applications.Len() != 1 {
		t.Fatalf("expected the valid application kept")
	}
}

func TestHydrateProjectRequiresManager(t *testing.T) {
	d := testutil.SampleDataset()
	d.Projects[1].Manager = "O1"
	g, report, _ := Load(d)
	if g.Projects.Has("P2") {
		t.Fatalf("project managed by an officer must be dropped")
	}
	if report.Count(domain.ErrMissingRequiredReference) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", report.Diagnostics)
	}
}

func TestHydrateMalformedAndDuplicate(t *testing.T) {
	d := testutil.SampleDataset()
	d.Applicants[1].NRIC = "X123"
	d.Officers = append(d.Officers, records.OfficerRecord{ID: "A1", Name: "Dup", NRIC: "S9999999Z", Age: "30", MaritalStatus: "Single"})
	d.Projects[2].Units = "4-Room=1"
	g, report, _ := Load(d)
	if g.Users.Has("A2") || g.Projects.Has("P3") {
		t.Fatalf("malformed records must be dropped")
	}
	if n := report.Count(domain.ErrMalformedRecord); n != 2 {
		t.Fatalf("expected 2 malformed diagnostics, got %d", n)
	}
	if n := report.Count(domain.ErrDuplicateKey); n != 1 {
		t.Fatalf("expected 1 duplicate diagnostic, got %d", n)
	}
	if acc, _ := g.Account("A1"); acc.Role() != domain.RoleApplicant {
		t.Fatalf("first record must win the id")
	}
}

func TestResolveNullsAndNormalises(t *testing.T) {
	d := testutil.SampleDataset()
	d.Applicants[0].AppliedProject = "P2"
	d.Applicants[0].CanApply = "true"
	d.Applicants[1].ProjectApplication = "B1" // belongs to A3
	d.Applicants[2].WithdrawalApplication = "W404"
	d.Officers[0].RegisteredProjects = "P2;P404"
	g, report, _ := Load(d)

	a1, _ := g.Applicant("A1")
	if a1.CanApply {
		t.Fatalf("expected canApply forced false")
	}
	a2, _ := g.Applicant("A2")
	if a2.ProjectApplicationID != "" {
		t.Fatalf("foreign application must be nulled")
	}
	a3, _ := g.Applicant("A3")
	if a3.WithdrawalApplicationID != "" || a3.IsWithdrawing {
		t.Fatalf("dangling withdrawal must be nulled: %+v", a3)
	}
	o1, _ := g.Officer("O1")
	if got := o1.RegisteredProjects.IDs(); !reflect.DeepEqual(got, []string{"P2"}) {
		t.Fatalf("unexpected registered %v", got)
	}
	if !o1.ProhibitedProjects.Contains("P2") {
		t.Fatalf("registered project must be prohibited")
	}
	if n := report.Count(domain.ErrUnresolvedOptionalReference); n != 3 {
		t.Fatalf("expected 3 nulled references, got %d: %+v", n, report.Diagnostics)
	}
	if v := g.CheckInvariants(); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
}

func TestResolveReconcilesOfficerLinks(t *testing.T) {
	d := testutil.SampleDataset()
	d.Officers[1].JoinedProjects = ""   // only P1 lists O2
	d.Officers[0].JoinedProjects = "P2" // P2 does not list O1
	g, _, _ := Load(d)
	o2, _ := g.Officer("O2")
	if !o2.JoinedProjects.Contains("P1") || !o2.ProhibitedProjects.Contains("P1") {
		t.Fatalf("expected reverse link added to officer: %+v", o2)
	}
	p2, _ := g.Project("P2")
	if !p2.Officers.Contains("O1") {
		t.Fatalf("expected reverse link added to project")
	}
	if v := g.CheckInvariants(); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
}

func TestResolveOrderIndependent(t *testing.T) {
	base := testutil.SampleDataset()
	base.Officers[0].JoinedProjects = "P2"
	base.Projects[0].Officers = "O2;O1"
	base.Applications = append(base.Applications,
		records.ApplicationRecord{ID: "R2", Kind: "Registration", User: "O1", Project: "P3"},
		records.ApplicationRecord{ID: "R1", Kind: "Registration", User: "O2", Project: "P2"},
	)
	base.Enquiries = append(base.Enquiries,
		records.EnquiryRecord{ID: "E2", Filer: "A2", Project: "P2", Message: "Any corner units?"},
		records.EnquiryRecord{ID: "E3", Filer: "O1", Project: "P1", Message: "Lift access?", Reply: "Yes.", RepliedBy: "M1"},
	)
	_, want := mustLoad(t, base)
	want = sortByID(want)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		d := base.Clone()
		rng.Shuffle(len(d.Applicants), func(i, j int) { d.Applicants[i], d.Applicants[j] = d.Applicants[j], d.Applicants[i] })
		rng.Shuffle(len(d.Officers), func(i, j int) { d.Officers[i], d.Officers[j] = d.Officers[j], d.Officers[i] })
		rng.Shuffle(len(d.Managers), func(i, j int) { d.Managers[i], d.Managers[j] = d.Managers[j], d.Managers[i] })
		rng.Shuffle(len(d.Projects), func(i, j int) { d.Projects[i], d.Projects[j] = d.Projects[j], d.Projects[i] })
		rng.Shuffle(len(d.Applications), func(i, j int) { d.Applications[i], d.Applications[j] = d.Applications[j], d.Applications[i] })
		rng.Shuffle(len(d.Enquiries), func(i, j int) { d.Enquiries[i], d.Enquiries[j] = d.Enquiries[j], d.Enquiries[i] })
		_, got := mustLoad(t, d)
		if got = sortByID(got); !reflect.DeepEqual(got, want) {
			t.Fatalf("shuffle %d produced a different graph:\n got %+v\nwant %+v", i, got, want)
		}
	}
}

func TestRoundTripThroughCSV(t *testing.T) {
	_, first := mustLoad(t, testutil.SampleDataset())
	tables, err := records.EncodeDataset(first)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := records.DecodeDataset(tables)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, second := mustLoad(t, decoded)
	if !p.Report().Clean() {
		t.Fatalf("reload produced diagnostics: %+v", p.Report().Diagnostics)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip changed the dataset:\n%+v\n%+v", first, second)
	}
	again, _ := records.EncodeDataset(second)
	for kind, data := range tables {
		if !bytes.Equal(data, again[kind]) {
			t.Fatalf("%s bytes differ after round trip", kind)
		}
	}
}

func TestRoundTripKeepsTextWhitespace(t *testing.T) {
	d := testutil.SampleDataset()
	d.Managers[0].Password = " m1 pass "
	d.Projects[0].Name = " Acacia Breeze "
	d.Enquiries[0].Message = "  Is there sheltered parking?"
	_, first := mustLoad(t, d)
	tables, err := records.EncodeDataset(first)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := records.DecodeDataset(tables)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	g, _, err := Load(decoded)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := g.Authenticate("T5555555F", " m1 pass "); err != nil {
		t.Fatalf("padded password lost on reload: %v", err)
	}
	p1, _ := g.Project("P1")
	e1, _ := g.Enquiry("E1")
	if p1.Name != " Acacia Breeze " || e1.Message != "  Is there sheltered parking?" {
		t.Fatalf("text changed on reload: %q %q", p1.Name, e1.Message)
	}
}

func TestHydrateAssignsMissingSeq(t *testing.T) {
	d := testutil.SampleDataset()
	d.Applications[0].Seq = "4"
	d.Applications = append(d.Applications, records.ApplicationRecord{ID: "R1", Kind: "Registration", User: "O1", Project: "P2"})
	g, _, _ := Load(d)
	r1, _ := g.Application("R1")
	if r1.Seq != 5 || r1.Status != domain.StatusPending {
		t.Fatalf("expected seq 5 and pending default, got %+v", r1)
	}
}

func TestHydrateSeqIndependentOfRecordOrder(t *testing.T) {
	d := testutil.SampleDataset()
	d.Applicants[0].CanApply = "false"
	d.Applicants[0].AppliedProject = "P1"
	d.Applicants[0].ProjectApplication = "B2"
	d.Applications[0].Seq = ""
	d.Applications = append(d.Applications, records.ApplicationRecord{ID: "B2", Kind: "BTO", User: "A1", Project: "P1", FlatType: "2-Room"})
	swapped := d.Clone()
	swapped.Applications[0], swapped.Applications[1] = swapped.Applications[1], swapped.Applications[0]
	for _, tc := range []struct {
		name string
		d    records.Dataset
	}{{"as written", d}, {"swapped", swapped}} {
		g, _, err := Load(tc.d)
		if err != nil {
			t.Fatalf("%s: load: %v", tc.name, err)
		}
		b1, _ := g.Application("B1")
		b2, _ := g.Application("B2")
		if b1.Seq != 1 || b2.Seq != 2 {
			t.Fatalf("%s: seq follows record order: B1=%d B2=%d", tc.name, b1.Seq, b2.Seq)
		}
	}
}

func TestResolveAlignsAppliedProjectWithApplication(t *testing.T) {
	d := testutil.SampleDataset()
	d.Applicants[2].AppliedProject = "P2" // B1 is on P1
	g, report, err := Load(d)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	a3, _ := g.Applicant("A3")
	if a3.AppliedProjectID != "P1" || a3.ProjectApplicationID != "B1" {
		t.Fatalf("applied project must follow the application: %+v", a3)
	}
	var normalized int
	for _, diag := range report.Diagnostics {
		if diag.Kind == domain.DiagnosticNormalized && diag.EntityID == "A3" && diag.Field == "applied_project" {
			normalized++
		}
	}
	if normalized != 1 {
		t.Fatalf("expected one applied_project diagnostic, got %+v", report.Diagnostics)
	}
	if v := g.CheckInvariants(); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
}

type recordingLogger struct{ warns int }

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Warn(string, ...any)  { l.warns++ }

func TestDiagnosticsAreLogged(t *testing.T) {
	d := testutil.SampleDataset()
	d.Enquiries[0].Filer = "nobody"
	log := &recordingLogger{}
	if _, _, err := Load(d, WithLogger(log)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if log.warns != 1 {
		t.Fatalf("expected one warning, got %d", log.warns)
	}
}
