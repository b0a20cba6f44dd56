// Package lifecycle drives every mutation of the resolved graph: the
// application state machine, the applicant session and officer membership
// machines that react to it, and the project and enquiry operations of
// managers and officials.
//
// Operations return a domain.Outcome. A rejection leaves the graph unchanged.
package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"housingcore/internal/graph"
	"housingcore/internal/visibility"
	"housingcore/pkg/domain"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock. A nil ClockFunc reads the wall clock.
type ClockFunc func() time.Time

// Now returns the current time in UTC.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

// IDGenerator names entities created at runtime.
type IDGenerator interface {
	NewID(entity domain.EntityType) string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func(entity domain.EntityType) string

// NewID calls f.
func (f IDGeneratorFunc) NewID(entity domain.EntityType) string { return f(entity) }

// UUIDGenerator returns random UUIDs.
type UUIDGenerator struct{}

// NewID returns a fresh random UUID.
func (UUIDGenerator) NewID(domain.EntityType) string { return uuid.NewString() }

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for application windows and receipts.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// WithIDGenerator overrides how new entities are named.
func WithIDGenerator(ids IDGenerator) Option {
	return func(e *Engine) {
		if ids != nil {
			e.ids = ids
		}
	}
}

// Engine applies lifecycle operations to one graph. It is not safe for
// concurrent use.
type Engine struct {
	g      *graph.Graph
	filter *visibility.Filter
	clock  Clock
	ids    IDGenerator
}

// NewEngine binds an engine to g.
func NewEngine(g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{g: g, filter: visibility.New(g), clock: ClockFunc(nil), ids: UUIDGenerator{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the graph the engine mutates.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Filter returns the visibility filter over the same graph.
func (e *Engine) Filter() *visibility.Filter { return e.filter }

func notFound(entity domain.EntityType, id string) domain.Outcome {
	return domain.Reject(domain.ReasonNotFound, "%s %s not found", entity, id)
}

func (e *Engine) applicant(id string) (*domain.Applicant, domain.Outcome, bool) {
	a, ok := e.g.Applicant(id)
	if !ok {
		return nil, domain.Reject(domain.ReasonNotFound, "applicant %s not found", id), false
	}
	return a, domain.Outcome{}, true
}

func (e *Engine) officer(id string) (*domain.Officer, domain.Outcome, bool) {
	o, ok := e.g.Officer(id)
	if !ok {
		return nil, domain.Reject(domain.ReasonNotFound, "officer %s not found", id), false
	}
	return o, domain.Outcome{}, true
}

func (e *Engine) manager(id string) (*domain.Manager, domain.Outcome, bool) {
	m, ok := e.g.Manager(id)
	if !ok {
		return nil, domain.Reject(domain.ReasonNotFound, "manager %s not found", id), false
	}
	return m, domain.Outcome{}, true
}

func (e *Engine) project(id string) (*domain.Project, domain.Outcome, bool) {
	p, ok := e.g.Project(id)
	if !ok {
		return nil, notFound(domain.EntityProject, id), false
	}
	return p, domain.Outcome{}, true
}

func (e *Engine) newApplication(kind domain.ApplicationKind, userID, projectID string) *domain.Application {
	return &domain.Application{
		ID:        e.freshID(domain.EntityApplication, e.g.Applications.Has),
		Kind:      kind,
		UserID:    userID,
		ProjectID: projectID,
		Status:    domain.StatusPending,
		Seq:       e.g.NextSeq(),
	}
}

const maxIDAttempts = 16

// freshID asks the generator for an unused ID, falling back to a UUID when it
// keeps colliding.
func (e *Engine) freshID(entity domain.EntityType, taken func(string) bool) string {
	for range maxIDAttempts {
		id := e.ids.NewID(entity)
		if id != "" && !taken(id) {
			return id
		}
	}
	return uuid.NewString()
}
