// Command housingctl loads the housing record tables from the configured
// backend and runs one query or workflow operation against them.
//
// Usage:
//
//	housingctl [-config housingcore.yaml] <command> [flags]
//
// Accepted mutations are written back to the backend before the command
// exits. A rejected operation exits with status 1.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"housingcore/internal/config"
	"housingcore/internal/core"
	"housingcore/internal/lifecycle"
	"housingcore/internal/records"
)

var (
	exitFunc    = os.Exit
	openBackend = core.OpenBackend
)

// clock is nil outside tests, which means the wall clock.
var clock lifecycle.Clock

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"check":          {"load the tables and report diagnostics and invariant violations", runCheck},
	"export":         {"write the loaded tables as CSV files into a directory", runExport},
	"login":          {"authenticate by NRIC and password", runLogin},
	"passwd":         {"change a user's password", runPasswd},
	"projects":       {"list the projects a user can see", runProjects},
	"applications":   {"list the applications a user can see", runApplications},
	"enquiries":      {"list the enquiries a user can see", runEnquiries},
	"apply":          {"file a BTO application", runApply},
	"withdraw":       {"request withdrawal of the current application", runWithdraw},
	"register":       {"register an officer to handle a project", runRegister},
	"review":         {"approve or reject an application as manager", runReview},
	"book":           {"book the flat of a successful application", runBook},
	"receipt":        {"print the receipt of a booked application", runReceipt},
	"create-project": {"create a project", runCreateProject},
	"edit-project":   {"edit a project's attributes", runEditProject},
	"visibility":     {"show or hide a project", runVisibility},
	"delete-project": {"delete a project", runDeleteProject},
	"enquire":        {"submit an enquiry", runEnquire},
	"edit-enquiry":   {"edit an unanswered enquiry", runEditEnquiry},
	"delete-enquiry": {"delete an unanswered enquiry", runDeleteEnquiry},
	"reply":          {"reply to an enquiry", runReply},
}

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

// errRejected marks a rejected outcome that has already been reported.
var errRejected = errors.New("operation rejected")

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("housingctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var configPath string
	fs.StringVar(&configPath, "config", os.Getenv("HOUSINGCORE_CONFIG"), "path to a YAML config file")
	fs.Usage = func() { usage(fs, stderr) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(fs, stderr)
		return 2
	}
	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n", name)
		usage(fs, stderr)
		return 2
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	ctx := context.Background()
	a, err := newApp(ctx, cfg, stdout, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	runErr := cmd.run(ctx, a, fs.Args()[1:])
	closeErr := a.close(ctx)
	switch {
	case errors.Is(runErr, flag.ErrHelp):
		return 0
	case errors.Is(runErr, errUsage):
		return 2
	case errors.Is(runErr, errRejected):
		return 1
	case runErr != nil:
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", name, runErr)
		return 1
	case closeErr != nil:
		_, _ = fmt.Fprintf(stderr, "%v\n", closeErr)
		return 1
	}
	return 0
}

func usage(fs *flag.FlagSet, w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: housingctl [-config file] <command> [flags]")
	fs.PrintDefaults()
	_, _ = fmt.Fprintln(w, "commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "  %-15s %s\n", name, commands[name].summary)
	}
}

// app carries the loaded service and the sinks that must be flushed on exit.
type app struct {
	svc     *core.Service
	backend records.Backend
	stdout  io.Writer
	stderr  io.Writer
	obs     *observability
}

func newApp(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) (*app, error) {
	logger, err := cfg.Log.NewLogger(stderr)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	obs, err := newObservability(cfg, logger, stderr)
	if err != nil {
		return nil, err
	}
	backend, err := openBackend(ctx, cfg.Backend())
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open backend: %w", err), obs.flush(ctx))
	}
	opts := append(obs.options(), core.WithLogger(logger), core.WithBackend(backend))
	if clock != nil {
		opts = append(opts, core.WithClock(clock))
	}
	svc := core.NewService(opts...)
	if _, err := svc.Load(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("load: %w", err), obs.flush(ctx), core.CloseBackend(backend))
	}
	return &app{svc: svc, backend: backend, stdout: stdout, stderr: stderr, obs: obs}, nil
}

func (a *app) close(ctx context.Context) error {
	return errors.Join(a.obs.flush(ctx), core.CloseBackend(a.backend))
}
