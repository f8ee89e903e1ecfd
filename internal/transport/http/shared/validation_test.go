package shared

import "testing"

func TestValidatorEnumExactMatch(t *testing.T) {
	v := NewValidator()
	v.Enum("leaveType", "VL", []string{"VL", "SL"}, "leave type must be VL or SL")
	if v.HasIssues() {
		t.Fatalf("expected exact value to pass, got %v", v.Issues())
	}
}

func TestValidatorEnumRejectsCaseMismatch(t *testing.T) {
	// The value is stored as-is downstream, so "vl" must fail here with a
	// field-level issue rather than surfacing later as an opaque error.
	v := NewValidator()
	v.Enum("leaveType", "vl", []string{"VL", "SL"}, "leave type must be VL or SL")
	if !v.HasIssues() {
		t.Fatal("expected case-mismatched value to be rejected")
	}
	issues := v.Issues()
	if len(issues) != 1 || issues[0].Field != "leaveType" {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestValidatorEnumSkipsEmpty(t *testing.T) {
	// Required covers presence; Enum stays quiet on empty values.
	v := NewValidator()
	v.Enum("role", "", []string{"employee", "admin"}, "role must be employee or admin")
	if v.HasIssues() {
		t.Fatalf("expected empty value to be skipped, got %v", v.Issues())
	}
}
