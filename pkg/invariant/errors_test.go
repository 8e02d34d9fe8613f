package invariant

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "op only",
			err:  New("merge").Err(),
			want: []string{"merge", "invariant violation"},
		},
		{
			name: "full context",
			err:  New("materialize").Instance("root.1").Candidate([]int{3, 5}).Detailf("%d components", 0).Err(),
			want: []string{"materialize", "instance root.1", "candidate [3 5]", "(0 components)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, w := range tt.want {
				if !strings.Contains(msg, w) {
					t.Errorf("Error() = %q, missing %q", msg, w)
				}
			}
		})
	}
}

func TestIsViolation(t *testing.T) {
	cause := errors.New("dangling edge")
	err := New("prune").Cause(cause).Err()

	if !IsViolation(err) {
		t.Error("expected invariant error to match ErrViolation")
	}
	if !errors.Is(err, cause) {
		t.Error("expected invariant error to match its cause")
	}
	if !IsViolation(fmt.Errorf("wrapped: %w", err)) {
		t.Error("expected wrapped invariant error to match ErrViolation")
	}
	if IsViolation(cause) {
		t.Error("plain error must not be a violation")
	}
}

func TestContext(t *testing.T) {
	err := New("split").Err()
	got := Context(err, "abc", []int{1})

	var ie *Error
	if !errors.As(got, &ie) {
		t.Fatalf("Context() returned %T", got)
	}
	if ie.InstanceID != "abc" || len(ie.Candidate) != 1 {
		t.Errorf("Context() = %+v", ie)
	}

	plain := errors.New("io")
	if Context(plain, "abc", nil) != plain {
		t.Error("Context() must not touch non-invariant errors")
	}
}
