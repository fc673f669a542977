package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeInvalidGeometry, "component r1: non-positive length %.1f", -2.0),
			want: "INVALID_GEOMETRY: component r1: non-positive length -2.0",
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeInvalidNetlist, stderrors.New("unexpected EOF"), "parse netlist"),
			want: "INVALID_NETLIST: parse netlist: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeUnresolvableNet, "component c3 has no chip pin")

	if !Is(err, ErrCodeUnresolvableNet) {
		t.Error("Is() = false for matching code")
	}
	if Is(err, ErrCodeResolutionFailed) {
		t.Error("Is() = true for non-matching code")
	}
	if Is(stderrors.New("plain"), ErrCodeUnresolvableNet) {
		t.Error("Is() = true for a plain error")
	}
}

func TestIsThroughWrapping(t *testing.T) {
	inner := New(ErrCodeResolutionFailed, "no free position within radius 90.0")
	outer := fmt.Errorf("resolve d2: %w", inner)

	if !Is(outer, ErrCodeResolutionFailed) {
		t.Error("Is() should unwrap fmt.Errorf chains")
	}
	if got := GetCode(outer); got != ErrCodeResolutionFailed {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeResolutionFailed)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(ErrCodeInternal, cause, "render failed")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeBudgetExceeded, "attempt budget of 100 exhausted")
	if got := UserMessage(err); strings.Contains(got, "BUDGET_EXCEEDED") {
		t.Errorf("UserMessage() = %q, should not contain the code", got)
	}

	plain := stderrors.New("plain failure")
	if got := UserMessage(plain); got != "plain failure" {
		t.Errorf("UserMessage() = %q, want %q", got, "plain failure")
	}
}

func TestGetCodeForPlainError(t *testing.T) {
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode() = %q, want empty", got)
	}
}
