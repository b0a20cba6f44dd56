package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"housingcore/internal/lifecycle"
	"housingcore/internal/records"
	"housingcore/pkg/domain"
)

// errUsage marks a flag error that has already been printed.
var errUsage = errors.New("usage error")

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse parses args and checks that every named string flag is non-empty.
func (a *app) parse(fs *flag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	for _, name := range required {
		if f := fs.Lookup(name); f == nil || strings.TrimSpace(f.Value.String()) == "" {
			_, _ = fmt.Fprintf(a.stderr, "%s: -%s is required\n", fs.Name(), name)
			return errUsage
		}
	}
	return nil
}

// report prints an outcome. Rejections go to stderr and yield errRejected.
func (a *app) report(out domain.Outcome, err error) error {
	if err != nil {
		return err
	}
	if !out.OK() {
		_, _ = fmt.Fprintln(a.stderr, out.Err())
		return errRejected
	}
	_, err = fmt.Fprintf(a.stdout, "accepted %s\n", out.EntityID)
	return err
}

func runCheck(_ context.Context, a *app, args []string) error {
	fs := a.flags("check")
	strict := fs.Bool("strict", false, "fail when the load reported diagnostics")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	report := a.svc.Report()
	for _, d := range report.Diagnostics {
		_, _ = fmt.Fprintf(a.stdout, "%s %s %s %s: %s\n", d.Kind, d.Entity, d.EntityID, d.Field, d.Message())
	}
	violations := a.svc.CheckInvariants()
	for _, v := range violations {
		_, _ = fmt.Fprintf(a.stdout, "violation %s\n", v)
	}
	if _, err := fmt.Fprintf(a.stdout, "records=%d diagnostics=%d violations=%d\n",
		a.svc.Dataset().Len(), len(report.Diagnostics), len(violations)); err != nil {
		return err
	}
	switch {
	case len(violations) > 0:
		return fmt.Errorf("%d invariant violations", len(violations))
	case *strict && len(report.Diagnostics) > 0:
		return fmt.Errorf("%d load diagnostics", len(report.Diagnostics))
	}
	return nil
}

func runExport(_ context.Context, a *app, args []string) error {
	fs := a.flags("export")
	dir := fs.String("dir", "", "directory to write the CSV tables into")
	if err := a.parse(fs, args, "dir"); err != nil {
		return err
	}
	tables, err := records.EncodeDataset(a.svc.Dataset())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*dir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", *dir, err)
	}
	for _, kind := range records.Kinds {
		path := filepath.Join(*dir, kind.FileName())
		if err := os.WriteFile(path, tables[kind], 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		_, _ = fmt.Fprintln(a.stdout, path)
	}
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := a.flags("login")
	nric := fs.String("nric", "", "NRIC")
	password := fs.String("password", "", "password")
	if err := a.parse(fs, args, "nric"); err != nil {
		return err
	}
	view, err := a.svc.Authenticate(ctx, *nric, *password)
	if err != nil {
		_, _ = fmt.Fprintf(a.stderr, "login failed: %v\n", err)
		return errRejected
	}
	_, err = fmt.Fprintf(a.stdout, "%s\t%s\t%s\n", view.ID, view.Name, view.Role)
	return err
}

func runPasswd(ctx context.Context, a *app, args []string) error {
	fs := a.flags("passwd")
	user := fs.String("user", "", "user ID")
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := a.parse(fs, args, "user", "new"); err != nil {
		return err
	}
	return a.report(a.svc.ChangePassword(ctx, *user, *current, *next))
}

func formatUnits(units map[domain.FlatType]int) string {
	parts := make([]string, 0, len(units))
	for _, ft := range domain.AllFlatTypes {
		if n, ok := units[ft]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", ft, n))
		}
	}
	return strings.Join(parts, ";")
}

func parseUnits(raw string) (map[domain.FlatType]int, error) {
	units := make(map[domain.FlatType]int)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, count, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("units entry %q is not type=count", part)
		}
		ft, err := domain.ParseFlatType(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil {
			return nil, fmt.Errorf("units for %s: %w", ft, err)
		}
		units[ft] = n
	}
	return units, nil
}

func runProjects(_ context.Context, a *app, args []string) error {
	fs := a.flags("projects")
	user := fs.String("user", "", "user ID")
	registerable := fs.Bool("registerable", false, "list only projects the officer may register for")
	handled := fs.Bool("handled", false, "list the projects the officer joined or registered for")
	if err := a.parse(fs, args, "user"); err != nil {
		return err
	}
	list := a.svc.ProjectsFor
	switch {
	case *registerable && *handled:
		_, _ = fmt.Fprintln(a.stderr, "projects: -registerable and -handled are exclusive")
		return errUsage
	case *registerable:
		list = a.svc.RegisterableProjectsFor
	case *handled:
		list = a.svc.HandledProjectsFor
	}
	projects, err := list(*user)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tNEIGHBOURHOOD\tOPEN\tCLOSE\tUNITS\tMANAGER\tOFFICERS\tVISIBLE")
	for _, p := range projects {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d/%d\t%t\n",
			p.ID, p.Name, p.Neighbourhood, domain.FormatDate(p.OpenDate), domain.FormatDate(p.CloseDate),
			formatUnits(p.Units), p.ManagerID, p.Officers.Len(), p.OfficerSlots, p.Visible)
	}
	return tw.Flush()
}

func runApplications(_ context.Context, a *app, args []string) error {
	fs := a.flags("applications")
	user := fs.String("user", "", "user ID")
	if err := a.parse(fs, args, "user"); err != nil {
		return err
	}
	apps, err := a.svc.ApplicationsFor(*user)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tKIND\tUSER\tPROJECT\tSTATUS\tFLAT\tTARGET")
	for _, ap := range apps {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			ap.ID, ap.Kind, ap.UserID, ap.ProjectID, ap.Status, ap.FlatType, ap.TargetID)
	}
	return tw.Flush()
}

func runEnquiries(_ context.Context, a *app, args []string) error {
	fs := a.flags("enquiries")
	user := fs.String("user", "", "user ID")
	if err := a.parse(fs, args, "user"); err != nil {
		return err
	}
	enquiries, err := a.svc.EnquiriesFor(*user)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tFILER\tPROJECT\tMESSAGE\tREPLY")
	for _, e := range enquiries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.FilerID, e.ProjectID, e.Message, e.Reply)
	}
	return tw.Flush()
}

func runApply(ctx context.Context, a *app, args []string) error {
	fs := a.flags("apply")
	user := fs.String("user", "", "applicant or officer ID")
	project := fs.String("project", "", "project ID")
	flat := fs.String("flat", "", "flat type (2-Room or 3-Room)")
	if err := a.parse(fs, args, "user", "project", "flat"); err != nil {
		return err
	}
	ft, err := domain.ParseFlatType(*flat)
	if err != nil {
		return err
	}
	return a.report(a.svc.Apply(ctx, *user, *project, ft))
}

func runWithdraw(ctx context.Context, a *app, args []string) error {
	fs := a.flags("withdraw")
	user := fs.String("user", "", "applicant or officer ID")
	if err := a.parse(fs, args, "user"); err != nil {
		return err
	}
	return a.report(a.svc.SubmitWithdrawal(ctx, *user))
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := a.flags("register")
	user := fs.String("user", "", "officer ID")
	project := fs.String("project", "", "project ID")
	if err := a.parse(fs, args, "user", "project"); err != nil {
		return err
	}
	return a.report(a.svc.Register(ctx, *user, *project))
}

func runReview(ctx context.Context, a *app, args []string) error {
	fs := a.flags("review")
	user := fs.String("user", "", "manager ID")
	appID := fs.String("app", "", "application ID")
	status := fs.String("status", "", "SUCCESSFUL or UNSUCCESSFUL")
	if err := a.parse(fs, args, "user", "app", "status"); err != nil {
		return err
	}
	to, err := domain.ParseApplicationStatus(strings.ToUpper(*status))
	if err != nil {
		return err
	}
	return a.report(a.svc.ReviewApplication(ctx, *user, *appID, to))
}

func (a *app) printReceipt(r lifecycle.Receipt) error {
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 1, ' ', 0)
	for _, row := range [][2]string{
		{"application", r.ApplicationID},
		{"applicant", fmt.Sprintf("%s (%s)", r.ApplicantName, r.ApplicantID)},
		{"nric", r.NRIC},
		{"age", strconv.Itoa(r.Age)},
		{"marital status", string(r.MaritalStatus)},
		{"project", fmt.Sprintf("%s (%s)", r.ProjectName, r.ProjectID)},
		{"neighbourhood", r.Neighbourhood},
		{"flat type", string(r.FlatType)},
		{"booked by", r.BookedBy},
		{"issued at", r.IssuedAt.Format(time.RFC3339)},
	} {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

func runBook(ctx context.Context, a *app, args []string) error {
	fs := a.flags("book")
	user := fs.String("user", "", "officer ID")
	appID := fs.String("app", "", "application ID")
	if err := a.parse(fs, args, "user", "app"); err != nil {
		return err
	}
	receipt, out, err := a.svc.BookFlat(ctx, *user, *appID)
	if err := a.report(out, err); err != nil {
		return err
	}
	return a.printReceipt(receipt)
}

func runReceipt(_ context.Context, a *app, args []string) error {
	fs := a.flags("receipt")
	user := fs.String("user", "", "officer or manager ID")
	appID := fs.String("app", "", "application ID")
	if err := a.parse(fs, args, "user", "app"); err != nil {
		return err
	}
	receipt, out := a.svc.Receipt(*user, *appID)
	if !out.OK() {
		_, _ = fmt.Fprintln(a.stderr, out.Err())
		return errRejected
	}
	return a.printReceipt(receipt)
}

// projectFlags binds the editable project attributes onto draft.
func projectFlags(fs *flag.FlagSet, draft *lifecycle.ProjectDraft) (units, open, closing *string) {
	fs.StringVar(&draft.Name, "name", draft.Name, "project name")
	fs.StringVar(&draft.Neighbourhood, "neighbourhood", draft.Neighbourhood, "neighbourhood")
	fs.IntVar(&draft.OfficerSlots, "slots", draft.OfficerSlots, "officer slots (0 means the maximum)")
	fs.BoolVar(&draft.Visible, "visible", draft.Visible, "visible to applicants")
	units = fs.String("units", formatUnits(draft.Units), "units, for example 2-Room=10;3-Room=5")
	open = fs.String("open", formatOptionalDate(draft.OpenDate), "opening date (dd-mm-yyyy)")
	closing = fs.String("close", formatOptionalDate(draft.CloseDate), "closing date (dd-mm-yyyy)")
	return units, open, closing
}

func formatOptionalDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return domain.FormatDate(t)
}

func finishDraft(draft *lifecycle.ProjectDraft, units, open, closing string) error {
	var err error
	if draft.Units, err = parseUnits(units); err != nil {
		return err
	}
	if draft.OpenDate, err = domain.ParseDate(open); err != nil {
		return fmt.Errorf("open date: %w", err)
	}
	if draft.CloseDate, err = domain.ParseDate(closing); err != nil {
		return fmt.Errorf("close date: %w", err)
	}
	return nil
}

func runCreateProject(ctx context.Context, a *app, args []string) error {
	fs := a.flags("create-project")
	user := fs.String("user", "", "manager ID")
	draft := lifecycle.ProjectDraft{Visible: true}
	fs.StringVar(&draft.ID, "id", "", "project ID (generated when empty)")
	units, open, closing := projectFlags(fs, &draft)
	if err := a.parse(fs, args, "user", "name", "open", "close"); err != nil {
		return err
	}
	if err := finishDraft(&draft, *units, *open, *closing); err != nil {
		return err
	}
	return a.report(a.svc.CreateProject(ctx, *user, draft))
}

func (a *app) currentDraft(managerID, projectID string) (lifecycle.ProjectDraft, error) {
	projects, err := a.svc.ProjectsFor(managerID)
	if err != nil {
		return lifecycle.ProjectDraft{}, err
	}
	for _, p := range projects {
		if p.ID == projectID {
			return lifecycle.ProjectDraft{
				ID: p.ID, Name: p.Name, Neighbourhood: p.Neighbourhood, Units: p.Units,
				OpenDate: p.OpenDate, CloseDate: p.CloseDate, OfficerSlots: p.OfficerSlots, Visible: p.Visible,
			}, nil
		}
	}
	return lifecycle.ProjectDraft{}, domain.ErrEntityNotFound{Entity: domain.EntityProject, ID: projectID}
}

// splitTarget reads -user and -project ahead of the remaining flags so the
// edit defaults can be taken from the stored project.
func (a *app) splitTarget(name string, args []string) (user, project string, rest []string, err error) {
	fs := a.flags(name)
	fs.StringVar(&user, "user", "", "manager ID")
	fs.StringVar(&project, "project", "", "project ID")
	var idx []int
	for i := 0; i < len(args); i++ {
		key, _, hasValue := strings.Cut(strings.TrimLeft(args[i], "-"), "=")
		if strings.HasPrefix(args[i], "-") && (key == "user" || key == "project") {
			idx = append(idx, i)
			if !hasValue && i+1 < len(args) {
				i++
				idx = append(idx, i)
			}
			continue
		}
		rest = append(rest, args[i])
	}
	target := make([]string, 0, len(idx))
	for _, i := range idx {
		target = append(target, args[i])
	}
	if err := a.parse(fs, target, "user", "project"); err != nil {
		return "", "", nil, err
	}
	return user, project, rest, nil
}

func runEditProject(ctx context.Context, a *app, args []string) error {
	user, project, rest, err := a.splitTarget("edit-project", args)
	if err != nil {
		return err
	}
	draft, err := a.currentDraft(user, project)
	if err != nil {
		return err
	}
	fs := a.flags("edit-project")
	units, open, closing := projectFlags(fs, &draft)
	if err := a.parse(fs, rest); err != nil {
		return err
	}
	if err := finishDraft(&draft, *units, *open, *closing); err != nil {
		return err
	}
	return a.report(a.svc.EditProject(ctx, user, project, draft))
}

func runVisibility(ctx context.Context, a *app, args []string) error {
	fs := a.flags("visibility")
	user := fs.String("user", "", "manager ID")
	project := fs.String("project", "", "project ID")
	visible := fs.Bool("visible", true, "visible to applicants")
	if err := a.parse(fs, args, "user", "project"); err != nil {
		return err
	}
	return a.report(a.svc.SetProjectVisibility(ctx, *user, *project, *visible))
}

func runDeleteProject(ctx context.Context, a *app, args []string) error {
	fs := a.flags("delete-project")
	user := fs.String("user", "", "manager ID")
	project := fs.String("project", "", "project ID")
	if err := a.parse(fs, args, "user", "project"); err != nil {
		return err
	}
	return a.report(a.svc.DeleteProject(ctx, *user, *project))
}

func runEnquire(ctx context.Context, a *app, args []string) error {
	fs := a.flags("enquire")
	user := fs.String("user", "", "applicant or officer ID")
	project := fs.String("project", "", "project ID")
	message := fs.String("message", "", "enquiry text")
	if err := a.parse(fs, args, "user", "project", "message"); err != nil {
		return err
	}
	return a.report(a.svc.SubmitEnquiry(ctx, *user, *project, *message))
}

func runEditEnquiry(ctx context.Context, a *app, args []string) error {
	fs := a.flags("edit-enquiry")
	user := fs.String("user", "", "filer ID")
	enquiry := fs.String("enquiry", "", "enquiry ID")
	message := fs.String("message", "", "new enquiry text")
	if err := a.parse(fs, args, "user", "enquiry", "message"); err != nil {
		return err
	}
	return a.report(a.svc.EditEnquiry(ctx, *user, *enquiry, *message))
}

func runDeleteEnquiry(ctx context.Context, a *app, args []string) error {
	fs := a.flags("delete-enquiry")
	user := fs.String("user", "", "filer ID")
	enquiry := fs.String("enquiry", "", "enquiry ID")
	if err := a.parse(fs, args, "user", "enquiry"); err != nil {
		return err
	}
	return a.report(a.svc.DeleteEnquiry(ctx, *user, *enquiry))
}

func runReply(ctx context.Context, a *app, args []string) error {
	fs := a.flags("reply")
	user := fs.String("user", "", "officer or manager ID")
	enquiry := fs.String("enquiry", "", "enquiry ID")
	message := fs.String("message", "", "reply text")
	if err := a.parse(fs, args, "user", "enquiry", "message"); err != nil {
		return err
	}
	return a.report(a.svc.ReplyEnquiry(ctx, *user, *enquiry, *message))
}
