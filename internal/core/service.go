// Package core exposes the housing workflow as a Service: one mutual-exclusion
// boundary around the graph, observability for every operation, and a
// write-back of the full dataset after each accepted mutation.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"housingcore/internal/graph"
	"housingcore/internal/infra/persistence/memory"
	"housingcore/internal/lifecycle"
	"housingcore/internal/loader"
	"housingcore/internal/records"
	"housingcore/pkg/domain"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger routes service logs to logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder installs a metrics sink.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAuditRecorder installs an audit sink.
func WithAuditRecorder(a AuditRecorder) Option {
	return func(s *Service) {
		if a != nil {
			s.audit = a
		}
	}
}

// WithBackend sets where the dataset is loaded from and written back to.
func WithBackend(b records.Backend) Option {
	return func(s *Service) {
		if b != nil {
			s.backend = b
		}
	}
}

// WithClock overrides the clock used for application windows, receipts and
// audit timestamps.
func WithClock(c lifecycle.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator overrides how IDs of new entities are minted.
func WithIDGenerator(ids lifecycle.IDGenerator) Option {
	return func(s *Service) {
		if ids != nil {
			s.ids = ids
		}
	}
}

// Service serialises every operation on the graph behind one mutex.
type Service struct {
	mu      sync.Mutex
	backend records.Backend
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	clock   lifecycle.Clock
	ids     lifecycle.IDGenerator

	graph  *graph.Graph
	engine *lifecycle.Engine
	report domain.LoadReport
}

// NewService returns a service over an empty graph. Without WithBackend the
// dataset lives in memory only.
func NewService(opts ...Option) *Service {
	s := &Service{
		backend: memory.NewStore(),
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		audit:   noopAudit{},
		clock:   lifecycle.ClockFunc(nil),
		ids:     lifecycle.UUIDGenerator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.install(graph.New(), domain.LoadReport{})
	return s
}

func (s *Service) install(g *graph.Graph, report domain.LoadReport) {
	s.graph = g
	s.engine = lifecycle.NewEngine(g, lifecycle.WithClock(s.clock), lifecycle.WithIDGenerator(s.ids))
	s.report = report
}

// Backend returns the configured backend.
func (s *Service) Backend() records.Backend { return s.backend }

// Load reads the dataset from the backend and replaces the graph. Per-record
// problems are reported, not returned as errors.
func (s *Service) Load(ctx context.Context) (domain.LoadReport, error) {
	ctx, span := s.tracer.Start(ctx, OpLoad)
	started := time.Now()
	d, err := s.backend.Load(ctx)
	if err != nil {
		err = fmt.Errorf("load dataset: %w", err)
		s.finish(ctx, span, OpLoad, "", started, domain.Outcome{}, err)
		return domain.LoadReport{}, err
	}
	report, err := s.LoadDataset(d)
	out := domain.Accept("")
	if err != nil {
		out = domain.Outcome{}
	}
	s.finish(ctx, span, OpLoad, "", started, out, err)
	return report, err
}

// LoadDataset replaces the graph with one built from d without touching the
// backend.
func (s *Service) LoadDataset(d records.Dataset) (domain.LoadReport, error) {
	g, report, err := loader.Load(d, loader.WithLogger(s.logger))
	if err != nil {
		return report, err
	}
	s.mu.Lock()
	s.install(g, report)
	s.mu.Unlock()
	s.logger.Info("dataset loaded", "records", d.Len(), "diagnostics", len(report.Diagnostics))
	return report, nil
}

// Report returns the diagnostics of the last load.
func (s *Service) Report() domain.LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Dataset serialises the current graph.
func (s *Service) Dataset() records.Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loader.Serialize(s.graph)
}

// Save writes the current graph to the backend.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx)
}

func (s *Service) persist(ctx context.Context) error {
	if err := s.backend.Save(ctx, loader.Serialize(s.graph)); err != nil {
		return fmt.Errorf("save dataset: %w", err)
	}
	return nil
}

// restore rebuilds the graph from a snapshot taken before a failed write.
func (s *Service) restore(d records.Dataset) error {
	g, _, err := loader.Load(d)
	if err != nil {
		return fmt.Errorf("restore graph: %w", err)
	}
	s.install(g, s.report)
	s.logger.Warn("mutation rolled back after failed save", "records", d.Len())
	return nil
}

// CheckInvariants reports every broken graph invariant.
func (s *Service) CheckInvariants() []graph.Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.CheckInvariants()
}

// mutate runs fn under the lock and persists the graph when fn accepts. When
// the write fails the graph is restored to its state before fn, so memory
// never runs ahead of the backend.
func (s *Service) mutate(ctx context.Context, op, actor string, fn func(*lifecycle.Engine) domain.Outcome) (domain.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, op)
	started := time.Now()
	s.mu.Lock()
	before := loader.Serialize(s.graph)
	out := fn(s.engine)
	var err error
	if out.OK() {
		if err = s.persist(ctx); err != nil {
			err = errors.Join(err, s.restore(before))
		}
	}
	s.mu.Unlock()
	s.finish(ctx, span, op, actor, started, out, err)
	return out, err
}

func (s *Service) finish(ctx context.Context, span TraceSpan, op, actor string, started time.Time, out domain.Outcome, err error) {
	duration := time.Since(started)
	entry := AuditEntry{
		Operation: op,
		EntityID:  out.EntityID,
		Actor:     actor,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if meta, ok := operations[op]; ok {
		entry.Entity = meta.entity
		entry.Action = meta.action
	}
	spanErr := err
	switch {
	case err != nil:
		entry.Status = AuditStatusError
		entry.Error = err.Error()
		s.logger.Error("operation failed", "operation", op, "actor", actor, "error", err)
	case !out.OK():
		entry.Status = AuditStatusRejected
		entry.Reason = out.Reason
		entry.Error = out.Message
		spanErr = out.Err()
		s.logger.Info("operation rejected", "operation", op, "actor", actor, "reason", string(out.Reason), "message", out.Message)
	default:
		entry.Status = AuditStatusSuccess
		s.logger.Debug("operation accepted", "operation", op, "actor", actor, "entity_id", out.EntityID)
	}
	span.End(spanErr)
	s.metrics.Observe(ctx, op, entry.Status == AuditStatusSuccess, duration)
	s.audit.Record(ctx, entry)
}

// Authenticate resolves a login to an account view.
func (s *Service) Authenticate(ctx context.Context, nric, password string) (AccountView, error) {
	ctx, span := s.tracer.Start(ctx, OpAuthenticate)
	started := time.Now()
	s.mu.Lock()
	acc, err := s.graph.Authenticate(nric, password)
	var view AccountView
	if err == nil {
		view = accountView(acc)
	}
	s.mu.Unlock()
	out := domain.Accept(view.ID)
	if err != nil {
		out = domain.Reject(domain.ReasonNotAuthorized, "%v", err)
	}
	s.finish(ctx, span, OpAuthenticate, nric, started, out, nil)
	return view, err
}

// ChangePassword replaces a user's password.
func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) (domain.Outcome, error) {
	return s.mutate(ctx, OpChangePassword, userID, func(e *lifecycle.Engine) domain.Outcome {
		return e.ChangePassword(userID, current, next)
	})
}

// Apply files a BTO application.
func (s *Service) Apply(ctx context.Context, applicantID, projectID string, flatType domain.FlatType) (domain.Outcome, error) {
	return s.mutate(ctx, OpApply, applicantID, func(e *lifecycle.Engine) domain.Outcome {
		return e.Apply(applicantID, projectID, flatType)
	})
}

// SubmitWithdrawal files a withdrawal of the applicant's application.
func (s *Service) SubmitWithdrawal(ctx context.Context, applicantID string) (domain.Outcome, error) {
	return s.mutate(ctx, OpSubmitWithdrawal, applicantID, func(e *lifecycle.Engine) domain.Outcome {
		return e.SubmitWithdrawal(applicantID)
	})
}

// Register files an officer registration.
func (s *Service) Register(ctx context.Context, officerID, projectID string) (domain.Outcome, error) {
	return s.mutate(ctx, OpRegister, officerID, func(e *lifecycle.Engine) domain.Outcome {
		return e.Register(officerID, projectID)
	})
}

// UpdateStatus moves an application out of PENDING without an ownership
// check.
func (s *Service) UpdateStatus(ctx context.Context, applicationID string, to domain.ApplicationStatus) (domain.Outcome, error) {
	return s.mutate(ctx, OpUpdateStatus, "", func(e *lifecycle.Engine) domain.Outcome {
		return e.UpdateStatus(applicationID, to)
	})
}

// ReviewApplication is UpdateStatus by the owning manager.
func (s *Service) ReviewApplication(ctx context.Context, managerID, applicationID string, to domain.ApplicationStatus) (domain.Outcome, error) {
	return s.mutate(ctx, OpReviewApplication, managerID, func(e *lifecycle.Engine) domain.Outcome {
		return e.ReviewApplication(managerID, applicationID, to)
	})
}

// BookFlat books a flat and returns the receipt.
func (s *Service) BookFlat(ctx context.Context, officerID, applicationID string) (lifecycle.Receipt, domain.Outcome, error) {
	var receipt lifecycle.Receipt
	out, err := s.mutate(ctx, OpBookFlat, officerID, func(e *lifecycle.Engine) domain.Outcome {
		var out domain.Outcome
		receipt, out = e.BookFlat(officerID, applicationID)
		return out
	})
	return receipt, out, err
}

// Receipt reissues a booking receipt.
func (s *Service) Receipt(officialID, applicationID string) (lifecycle.Receipt, domain.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Receipt(officialID, applicationID)
}

// CreateProject adds a project owned by managerID.
func (s *Service) CreateProject(ctx context.Context, managerID string, draft lifecycle.ProjectDraft) (domain.Outcome, error) {
	return s.mutate(ctx, OpCreateProject, managerID, func(e *lifecycle.Engine) domain.Outcome {
		return e.CreateProject(managerID, draft)
	})
}

// EditProject replaces the editable fields of an owned project.
func (s *Service) EditProject(ctx context.Context, managerID, projectID string, draft lifecycle.ProjectDraft) (domain.Outcome, error) {
	return s.mutate(ctx, OpEditProject, managerID, func(e *lifecycle.Engine) domain.Outcome {
		return e.EditProject(managerID, projectID, draft)
	})
}

// SetProjectVisibility toggles project visibility.
func (s *Service) SetProjectVisibility(ctx context.Context, managerID, projectID string, visible bool) (domain.Outcome, error) {
	return s.mutate(ctx, OpSetVisibility, managerID, func(e *lifecycle.Engine) domain.Outcome {
		return e.SetProjectVisibility(managerID, projectID, visible)
	})
}

// DeleteProject removes an owned project.
func (s *Service) DeleteProject(ctx context.Context, managerID, projectID string) (domain.Outcome, error) {
	return s.mutate(ctx, OpDeleteProject, managerID, func(e *lifecycle.Engine) domain.Outcome {
		return e.DeleteProject(managerID, projectID)
	})
}

// SubmitEnquiry files an enquiry.
func (s *Service) SubmitEnquiry(ctx context.Context, userID, projectID, message string) (domain.Outcome, error) {
	return s.mutate(ctx, OpSubmitEnquiry, userID, func(e *lifecycle.Engine) domain.Outcome {
		return e.SubmitEnquiry(userID, projectID, message)
	})
}

// EditEnquiry edits an unanswered enquiry.
func (s *Service) EditEnquiry(ctx context.Context, userID, enquiryID, message string) (domain.Outcome, error) {
	return s.mutate(ctx, OpEditEnquiry, userID, func(e *lifecycle.Engine) domain.Outcome {
		return e.EditEnquiry(userID, enquiryID, message)
	})
}

// DeleteEnquiry removes an unanswered enquiry.
func (s *Service) DeleteEnquiry(ctx context.Context, userID, enquiryID string) (domain.Outcome, error) {
	return s.mutate(ctx, OpDeleteEnquiry, userID, func(e *lifecycle.Engine) domain.Outcome {
		return e.DeleteEnquiry(userID, enquiryID)
	})
}

// ReplyEnquiry answers an enquiry.
func (s *Service) ReplyEnquiry(ctx context.Context, officialID, enquiryID, reply string) (domain.Outcome, error) {
	return s.mutate(ctx, OpReplyEnquiry, officialID, func(e *lifecycle.Engine) domain.Outcome {
		return e.ReplyEnquiry(officialID, enquiryID, reply)
	})
}
