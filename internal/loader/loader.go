// Package loader rebuilds the object graph from flat records in two strictly
// ordered phases. Hydration creates every entity and checks required
// references; resolution then binds optional references, derives reverse
// links and normalises runtime flags. Serialize is the inverse.
package loader

import (
	"errors"
	"fmt"

	"housingcore/internal/graph"
	"housingcore/internal/records"
	"housingcore/pkg/domain"
)

// Logger is the subset of structured logging the loader needs. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// State is the position of a Pipeline in the load barrier.
type State int

// Pipeline states.
const (
	StateUnloaded State = iota
	StateHydrated
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateHydrated:
		return "hydrated"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrPhaseOrder is returned when a phase is invoked out of order.
var ErrPhaseOrder = errors.New("load phase out of order")

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger routes diagnostics to logger.
func WithLogger(logger Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pipeline drives one load. It is single use.
type Pipeline struct {
	logger  Logger
	state   State
	graph   *graph.Graph
	report  domain.LoadReport
	pending pending
}

// NewPipeline returns a pipeline in the Unloaded state.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{logger: noopLogger{}, graph: graph.New()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports the current phase.
func (p *Pipeline) State() State { return p.state }

// Report returns the diagnostics collected so far.
func (p *Pipeline) Report() domain.LoadReport { return p.report }

// Hydrate runs Phase 1 over d.
func (p *Pipeline) Hydrate(d records.Dataset) error {
	if p.state != StateUnloaded {
		return fmt.Errorf("hydrate in state %s: %w", p.state, ErrPhaseOrder)
	}
	h := hydrator{g: p.graph, diag: p.diagnose, pending: &p.pending}
	h.run(d)
	p.state = StateHydrated
	return nil
}

// Resolve runs Phase 2. It requires a completed Hydrate.
func (p *Pipeline) Resolve() error {
	if p.state != StateHydrated {
		return fmt.Errorf("resolve in state %s: %w", p.state, ErrPhaseOrder)
	}
	r := resolver{g: p.graph, diag: p.diagnose, pending: &p.pending}
	r.run()
	p.pending = pending{}
	p.state = StateResolved
	return nil
}

// Graph returns the resolved graph. It is an error to ask before Resolve.
func (p *Pipeline) Graph() (*graph.Graph, error) {
	if p.state != StateResolved {
		return nil, fmt.Errorf("graph requested in state %s: %w", p.state, ErrPhaseOrder)
	}
	return p.graph, nil
}

func (p *Pipeline) diagnose(d domain.Diagnostic) {
	p.report.Add(d)
	p.logger.Warn("load diagnostic", "kind", string(d.Kind), "entity", string(d.Entity), "id", d.EntityID, "field", d.Field, "error", d.Message())
}

// Load runs both phases over d.
func Load(d records.Dataset, opts ...Option) (*graph.Graph, domain.LoadReport, error) {
	p := NewPipeline(opts...)
	if err := p.Hydrate(d); err != nil {
		return nil, domain.LoadReport{}, err
	}
	if err := p.Resolve(); err != nil {
		return nil, p.Report(), err
	}
	g, err := p.Graph()
	p.logger.Debug("graph loaded", "users", g.Users.Len(), "projects", g.Projects.Len(),
		"applications", g.Applications.Len(), "enquiries", g.Enquiries.Len(), "diagnostics", len(p.report.Diagnostics))
	return g, p.Report(), err
}
