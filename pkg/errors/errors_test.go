package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodePredicatesSeeThroughWrapping(t *testing.T) {
	base := NewInvalidInputError("user id must be a number")
	wrapped := fmt.Errorf("parse /ban: %w", base)

	if !IsInvalidInput(wrapped) {
		t.Fatal("expected wrapped error to be invalid input")
	}
	if IsNotFound(wrapped) || IsUnavailable(wrapped) {
		t.Fatal("unexpected code match")
	}
	if got := UserMessage(wrapped); got != "user id must be a number" {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestUnavailableErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("Forbidden: bot was blocked by the user")
	err := NewUnavailableError("send failed", cause)

	if !IsUnavailable(err) {
		t.Fatal("expected unavailable code")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	want := "[SERVICE_UNAVAILABLE] send failed: Forbidden: bot was blocked by the user"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestUserMessageFallsBackToPlainError(t *testing.T) {
	if got := UserMessage(errors.New("boom")); got != "boom" {
		t.Errorf("UserMessage = %q", got)
	}
}
