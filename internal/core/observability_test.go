package core

import (
	"bytes"
	"context"
	"encoding/json"
	"expvar"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"housingcore/pkg/domain"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) find(op string, status AuditStatus) (AuditEntry, bool) {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			return entry, true
		}
	}
	return AuditEntry{}, false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

type captureLogger struct {
	lines []string
}

func (l *captureLogger) log(level, msg string) { l.lines = append(l.lines, level+" "+msg) }

func (l *captureLogger) Debug(msg string, _ ...any) { l.log("DEBUG", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.log("INFO", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.log("WARN", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.log("ERROR", msg) }

func TestServiceObservability(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	var traceBuf bytes.Buffer
	tracer := NewJSONTracer(&traceBuf)
	logger := &captureLogger{}
	svc, _ := newLoadedService(t,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(logger),
	)

	if _, err := svc.Apply(ctx, "A2", "P1", ""); err != nil {
		t.Fatalf("apply: %v", err)
	}
	out, err := svc.Apply(ctx, "A1", "P1", "")
	if err != nil || !out.OK() {
		t.Fatalf("apply: %+v %v", out, err)
	}

	rejected, ok := audit.find(OpApply, AuditStatusRejected)
	if !ok || rejected.Reason != domain.ReasonNotEligible || rejected.Actor != "A2" {
		t.Fatalf("expected rejected apply audit, got %+v", audit.entries)
	}
	accepted, ok := audit.find(OpApply, AuditStatusSuccess)
	if !ok || accepted.EntityID != out.EntityID || accepted.Entity != domain.EntityApplication || accepted.Action != ActionCreate {
		t.Fatalf("expected accepted apply audit, got %+v", accepted)
	}
	if !accepted.Timestamp.Equal(fixedNow) {
		t.Fatalf("audit timestamp should come from the clock, got %v", accepted.Timestamp)
	}
	if _, ok := audit.find(OpLoad, AuditStatusSuccess); !ok {
		t.Fatalf("load should be audited")
	}

	want := []metricsCall{{OpLoad, true}, {OpApply, false}, {OpApply, true}}
	if len(metrics.calls) != len(want) {
		t.Fatalf("expected %d metric calls, got %+v", len(want), metrics.calls)
	}
	for i, call := range want {
		if metrics.calls[i] != call {
			t.Fatalf("metric %d: expected %+v, got %+v", i, call, metrics.calls[i])
		}
	}

	entries := tracer.Entries()
	if len(entries) != 3 || entries[1].Status != "error" || !strings.Contains(entries[1].Error, "not_eligible") {
		t.Fatalf("unexpected trace entries %+v", entries)
	}
	lines := strings.Split(strings.TrimSpace(traceBuf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 JSON lines, got %q", traceBuf.String())
	}
	var decoded JSONTraceEntry
	if err := json.Unmarshal([]byte(lines[2]), &decoded); err != nil || decoded.Operation != OpApply || decoded.Status != "success" {
		t.Fatalf("unexpected encoded span %q (%v)", lines[2], err)
	}

	var sawInfo, sawDebug bool
	for _, line := range logger.lines {
		sawInfo = sawInfo || line == "INFO operation rejected"
		sawDebug = sawDebug || line == "DEBUG operation accepted"
	}
	if !sawInfo || !sawDebug {
		t.Fatalf("unexpected log lines %v", logger.lines)
	}
}

func TestNoopLogger(t *testing.T) {
	var logger Logger = noopLogger{}
	logger.Debug("m", "k", "v")
	logger.Info("m")
	logger.Warn("m")
	logger.Error("m")
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	rec.Observe(context.Background(), OpApply, true, 2*time.Millisecond)
	rec.Observe(context.Background(), OpApply, false, time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Second)

	snap := rec.Snapshot()
	got := snap.Operations[OpApply]
	if got.Calls != 2 || got.Errors != 1 || got.TotalMS != 3 || got.MaxMS != 2 {
		t.Fatalf("unexpected stats %+v", got)
	}
	if _, ok := snap.Operations[""]; ok {
		t.Fatalf("empty operations are ignored")
	}
	rec.Observe(context.Background(), OpApply, true, time.Millisecond)
	if snap.Operations[OpApply].Calls != 2 {
		t.Fatalf("snapshot must not track later observations")
	}
	published := expvar.Get(rec.Name())
	if published == nil || !strings.Contains(published.String(), OpApply) {
		t.Fatalf("expected expvar export under %s", rec.Name())
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	rec := NewPrometheusMetricsRecorder(prometheus.NewRegistry())
	rec.Observe(context.Background(), OpBookFlat, true, 10*time.Millisecond)
	rec.Observe(context.Background(), OpBookFlat, true, 20*time.Millisecond)
	rec.Observe(context.Background(), OpBookFlat, false, time.Millisecond)
	rec.Observe(context.Background(), "", true, time.Millisecond)

	if got := promtestutil.ToFloat64(rec.results.WithLabelValues(OpBookFlat, "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := promtestutil.ToFloat64(rec.results.WithLabelValues(OpBookFlat, "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
	if n := promtestutil.CollectAndCount(rec.latency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
	families, err := rec.Registry().Gather()
	if err != nil || len(families) != 2 {
		t.Fatalf("expected two metric families, got %d (%v)", len(families), err)
	}
	if NewPrometheusMetricsRecorder(nil).Registry() == nil {
		t.Fatalf("nil registry should be replaced")
	}
}

func TestOTelTracer(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	svc, _ := newLoadedService(t, WithTracer(NewOTelTracer(tp)))
	if _, err := svc.Register(context.Background(), "O2", "P2"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(context.Background(), "O1", "P2"); err != nil {
		t.Fatalf("register: %v", err)
	}
	spans := recorder.Ended()
	if len(spans) != 3 {
		t.Fatalf("expected load + 2 register spans, got %d", len(spans))
	}
	if spans[1].Name() != OpRegister || spans[1].Status().Code != codes.Error {
		t.Fatalf("overlapping registration should end in error, got %s %v", spans[1].Name(), spans[1].Status())
	}
	if spans[2].Status().Code != codes.Ok {
		t.Fatalf("accepted registration should end ok, got %v", spans[2].Status())
	}
	var sawAttr bool
	for _, kv := range spans[2].Attributes() {
		if string(kv.Key) == "housingcore.operation" && kv.Value.AsString() == OpRegister {
			sawAttr = true
		}
	}
	if !sawAttr {
		t.Fatalf("missing operation attribute on %v", spans[2].Attributes())
	}
	if NewOTelTracer(nil) == nil {
		t.Fatalf("global provider fallback returned nil")
	}
}
