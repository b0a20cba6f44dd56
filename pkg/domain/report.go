package domain

import "errors"

// DiagnosticKind classifies a load-time diagnostic.
type DiagnosticKind string

// Diagnostic kinds emitted by the loader.
const (
	// DiagnosticDropped marks a record that was not stored.
	DiagnosticDropped DiagnosticKind = "dropped"
	// DiagnosticNulled marks a reference field set to null.
	DiagnosticNulled DiagnosticKind = "nulled"
	// DiagnosticNormalized marks a runtime flag forced to satisfy an invariant.
	DiagnosticNormalized DiagnosticKind = "normalized"
)

// Diagnostic reports one per-record failure isolated during loading.
type Diagnostic struct {
	Kind     DiagnosticKind
	Entity   EntityType
	EntityID string
	Field    string
	Err      error
}

// Message renders the diagnostic error text.
func (d Diagnostic) Message() string {
	if d.Err == nil {
		return string(d.Kind)
	}
	return d.Err.Error()
}

// LoadReport aggregates diagnostics from the load pipeline.
type LoadReport struct {
	Diagnostics []Diagnostic
}

// Add appends a diagnostic.
func (r *LoadReport) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Merge appends diagnostics from another report.
func (r *LoadReport) Merge(other LoadReport) {
	if len(other.Diagnostics) == 0 {
		return
	}
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// Count returns the number of diagnostics whose error matches target.
func (r LoadReport) Count(target error) int {
	n := 0
	for _, d := range r.Diagnostics {
		if errors.Is(d.Err, target) {
			n++
		}
	}
	return n
}

// Clean reports whether the load produced no diagnostics.
func (r LoadReport) Clean() bool { return len(r.Diagnostics) == 0 }
