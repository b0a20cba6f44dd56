package core

import (
	"context"
	"time"

	"housingcore/pkg/domain"
)

// Logger is the structured logger used by the service. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder observes the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}

// Tracer starts a span around each service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended once with the operation error, nil on success.
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// AuditStatus classifies an audited operation.
type AuditStatus string

// Audit statuses.
const (
	AuditStatusSuccess  AuditStatus = "success"
	AuditStatusRejected AuditStatus = "rejected"
	AuditStatusError    AuditStatus = "error"
)

// Action names what an operation does to its entity.
type Action string

// Audited actions.
const (
	ActionCreate     Action = "create"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionTransition Action = "transition"
	ActionLoad       Action = "load"
)

// AuditEntry describes one completed service operation.
type AuditEntry struct {
	Operation string
	Entity    domain.EntityType
	Action    Action
	EntityID  string
	Actor     string
	Status    AuditStatus
	Reason    domain.ReasonCode
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives an entry for every service operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEntry) {}

type operationMeta struct {
	entity domain.EntityType
	action Action
}

// Operation names used for logging, metrics, tracing and audit.
const (
	OpLoad              = "load"
	OpApply             = "apply"
	OpSubmitWithdrawal  = "submit_withdrawal"
	OpRegister          = "register"
	OpUpdateStatus      = "update_status"
	OpReviewApplication = "review_application"
	OpBookFlat          = "book_flat"
	OpCreateProject     = "create_project"
	OpEditProject       = "edit_project"
	OpSetVisibility     = "set_project_visibility"
	OpDeleteProject     = "delete_project"
	OpSubmitEnquiry     = "submit_enquiry"
	OpEditEnquiry       = "edit_enquiry"
	OpDeleteEnquiry     = "delete_enquiry"
	OpReplyEnquiry      = "reply_enquiry"
	OpChangePassword    = "change_password"
	OpAuthenticate      = "authenticate"
)

var operations = map[string]operationMeta{
	OpLoad:              {action: ActionLoad},
	OpApply:             {entity: domain.EntityApplication, action: ActionCreate},
	OpSubmitWithdrawal:  {entity: domain.EntityApplication, action: ActionCreate},
	OpRegister:          {entity: domain.EntityApplication, action: ActionCreate},
	OpUpdateStatus:      {entity: domain.EntityApplication, action: ActionTransition},
	OpReviewApplication: {entity: domain.EntityApplication, action: ActionTransition},
	OpBookFlat:          {entity: domain.EntityApplication, action: ActionTransition},
	OpCreateProject:     {entity: domain.EntityProject, action: ActionCreate},
	OpEditProject:       {entity: domain.EntityProject, action: ActionUpdate},
	OpSetVisibility:     {entity: domain.EntityProject, action: ActionUpdate},
	OpDeleteProject:     {entity: domain.EntityProject, action: ActionDelete},
	OpSubmitEnquiry:     {entity: domain.EntityEnquiry, action: ActionCreate},
	OpEditEnquiry:       {entity: domain.EntityEnquiry, action: ActionUpdate},
	OpDeleteEnquiry:     {entity: domain.EntityEnquiry, action: ActionDelete},
	OpReplyEnquiry:      {entity: domain.EntityEnquiry, action: ActionUpdate},
	OpChangePassword:    {entity: domain.EntityUser, action: ActionUpdate},
	OpAuthenticate:      {entity: domain.EntityUser},
}
