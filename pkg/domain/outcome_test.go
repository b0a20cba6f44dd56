package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestOutcomeErrMapsReasons(t *testing.T) {
	if err := Accept("B1").Err(); err != nil {
		t.Fatalf("accepted outcome returned %v", err)
	}
	cases := []struct {
		reason ReasonCode
		want   error
	}{
		{ReasonNotFound, ErrNotFound},
		{ReasonNotAuthorized, ErrNotAuthorized},
		{ReasonIllegalTransition, ErrIllegalTransition},
		{ReasonWindowOverlap, ErrEligibilityViolation},
		{ReasonNoUnitsAvailable, ErrEligibilityViolation},
	}
	for _, tc := range cases {
		err := Reject(tc.reason, "project %s", "P1").Err()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.reason, tc.want, err)
		}
		var rej RejectionError
		if !errors.As(err, &rej) || rej.Outcome.Reason != tc.reason {
			t.Fatalf("%s: expected RejectionError, got %T", tc.reason, err)
		}
		if !strings.Contains(err.Error(), "project P1") {
			t.Fatalf("%s: message lost: %v", tc.reason, err)
		}
	}
	if got := (Outcome{Reason: ReasonCannotApply}).Err().Error(); got != "rejected: cannot_apply" {
		t.Fatalf("unexpected bare rejection text %q", got)
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{ReferenceError{Entity: EntityApplication, ID: "B1", Field: "user", Target: EntityUser, TargetID: "A9", Required: true}, ErrMissingRequiredReference},
		{ReferenceError{Entity: EntityUser, ID: "A1", Field: "applied_project", Target: EntityProject, TargetID: "P9"}, ErrUnresolvedOptionalReference},
		{DuplicateKeyError{Key: "A1"}, ErrDuplicateKey},
		{TransitionError{Kind: KindBTO, From: StatusBooked, To: StatusPending}, ErrIllegalTransition},
		{MalformedError{Entity: EntityUser, ID: "A1", Field: "age", Err: errors.New("bad")}, ErrMalformedRecord},
		{ErrEntityNotFound{Entity: EntityProject, ID: "P9"}, ErrNotFound},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.want) {
			t.Fatalf("%T: expected %v", tc.err, tc.want)
		}
		if tc.err.Error() == "" {
			t.Fatalf("%T: empty message", tc.err)
		}
	}
}

func TestLoadReportCounts(t *testing.T) {
	var r LoadReport
	if !r.Clean() {
		t.Fatalf("new report not clean")
	}
	r.Add(Diagnostic{Kind: DiagnosticDropped, Entity: EntityUser, EntityID: "A9", Err: MalformedError{Entity: EntityUser, ID: "A9", Field: "nric", Err: errors.New("bad")}})
	var other LoadReport
	other.Add(Diagnostic{Kind: DiagnosticNulled, Entity: EntityUser, EntityID: "A1", Err: ReferenceError{Entity: EntityUser, ID: "A1"}})
	other.Add(Diagnostic{Kind: DiagnosticNormalized, Entity: EntityUser, EntityID: "A2"})
	r.Merge(other)
	r.Merge(LoadReport{})
	if len(r.Diagnostics) != 3 || r.Clean() {
		t.Fatalf("unexpected diagnostics %v", r.Diagnostics)
	}
	if r.Count(ErrMalformedRecord) != 1 || r.Count(ErrUnresolvedOptionalReference) != 1 {
		t.Fatalf("unexpected counts")
	}
	if r.Diagnostics[2].Message() != string(DiagnosticNormalized) {
		t.Fatalf("expected kind as message for diagnostic without error")
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseFlatType("4-Room"); err == nil {
		t.Fatalf("expected unknown flat type error")
	}
	if ft, err := ParseFlatType("2-Room"); err != nil || ft != FlatTwoRoom {
		t.Fatalf("unexpected flat type %q %v", ft, err)
	}
	if _, err := ParseApplicationStatus("pending"); err == nil {
		t.Fatalf("expected statuses to be case sensitive")
	}
	if k, err := ParseApplicationKind("Withdrawal"); err != nil || k != KindWithdrawal {
		t.Fatalf("unexpected kind %q %v", k, err)
	}
	d, err := ParseDate("29-02-2024")
	if err != nil || FormatDate(d) != "29-02-2024" {
		t.Fatalf("date round trip failed: %v", err)
	}
	if _, err := ParseDate("2024-02-29"); err == nil {
		t.Fatalf("expected layout error")
	}
}
