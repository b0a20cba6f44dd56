package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/common/expfmt"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"housingcore/internal/config"
	"housingcore/internal/core"
)

// observability holds the recorders selected by config and flushes them to
// stderr when the command finishes.
type observability struct {
	out      io.Writer
	logger   *slog.Logger
	expvar   *core.ExpvarMetricsRecorder
	prom     *core.PrometheusMetricsRecorder
	tracer   core.Tracer
	provider *sdktrace.TracerProvider
}

func newObservability(cfg config.Config, logger *slog.Logger, out io.Writer) (*observability, error) {
	o := &observability{out: out, logger: logger}
	switch cfg.Metrics {
	case "", "none":
	case "expvar":
		o.expvar = core.NewExpvarMetricsRecorder("")
	case "prometheus":
		o.prom = core.NewPrometheusMetricsRecorder(nil)
	default:
		return nil, fmt.Errorf("unknown metrics mode %q", cfg.Metrics)
	}
	switch cfg.Tracing {
	case "", "none":
	case "json":
		o.tracer = core.NewJSONTracer(out)
	case "otel":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return nil, fmt.Errorf("trace exporter: %w", err)
		}
		o.provider = sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		o.tracer = core.NewOTelTracer(o.provider)
	default:
		return nil, fmt.Errorf("unknown tracing mode %q", cfg.Tracing)
	}
	return o, nil
}

func (o *observability) options() []core.Option {
	opts := []core.Option{core.WithAuditRecorder(auditLog{logger: o.logger})}
	switch {
	case o.expvar != nil:
		opts = append(opts, core.WithMetricsRecorder(o.expvar))
	case o.prom != nil:
		opts = append(opts, core.WithMetricsRecorder(o.prom))
	}
	if o.tracer != nil {
		opts = append(opts, core.WithTracer(o.tracer))
	}
	return opts
}

func (o *observability) flush(ctx context.Context) error {
	if o.expvar != nil {
		if err := json.NewEncoder(o.out).Encode(o.expvar.Snapshot()); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	if o.prom != nil {
		families, err := o.prom.Registry().Gather()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		enc := expfmt.NewEncoder(o.out, expfmt.NewFormat(expfmt.TypeTextPlain))
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}
	}
	if o.provider != nil {
		if err := o.provider.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown tracer: %w", err)
		}
	}
	return nil
}

// auditLog writes audit entries to the debug log.
type auditLog struct{ logger *slog.Logger }

func (a auditLog) Record(ctx context.Context, e core.AuditEntry) {
	a.logger.DebugContext(ctx, "audit",
		"operation", e.Operation,
		"entity", e.Entity,
		"action", e.Action,
		"id", e.EntityID,
		"actor", e.Actor,
		"status", e.Status,
		"reason", e.Reason,
		"error", e.Error,
		"duration", e.Duration,
	)
}
