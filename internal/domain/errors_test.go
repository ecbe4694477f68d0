package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	authErr := &AuthError{Message: "unknown api key"}
	validationErr := &ValidationError{Field: "protocol", Message: "is required"}
	conflictErr := &ConflictError{Message: "row is locked"}
	notFoundErr := &NotFoundError{Resource: "history entry", ID: "abc"}

	cases := []struct {
		err   error
		check func(error) bool
		want  bool
	}{
		{authErr, IsAuth, true},
		{validationErr, IsAuth, false},
		{validationErr, IsValidation, true},
		{conflictErr, IsConflict, true},
		{notFoundErr, IsNotFound, true},
		{fmt.Errorf("wrapped: %w", conflictErr), IsConflict, true},
		{errors.New("plain"), IsConflict, false},
		{nil, IsAuth, false},
	}
	for i, tc := range cases {
		if got := tc.check(tc.err); got != tc.want {
			t.Errorf("case %d: got %v, want %v for %v", i, got, tc.want, tc.err)
		}
	}
}

func TestConflictErrorUnwrap(t *testing.T) {
	cause := errors.New("lock timeout")
	err := &ConflictError{Message: "concurrent writer", Err: cause}

	if !errors.Is(err, cause) {
		t.Fatal("expected ConflictError to unwrap to its cause")
	}
	if msg := err.Error(); msg != "conflict: concurrent writer: lock timeout" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	withField := &ValidationError{Field: "as_of", Message: "must be RFC 3339"}
	if withField.Error() != "validation: as_of: must be RFC 3339" {
		t.Fatalf("unexpected message: %q", withField.Error())
	}

	bare := &ValidationError{Message: "empty batch"}
	if bare.Error() != "validation: empty batch" {
		t.Fatalf("unexpected message: %q", bare.Error())
	}
}
