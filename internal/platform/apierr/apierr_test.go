package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusOfWrapped(t *testing.T) {
	base := NotFound("user_not_found", "user %d not found", 42)
	wrapped := fmt.Errorf("save results: %w", base)

	if got := StatusOf(wrapped); got != http.StatusNotFound {
		t.Fatalf("status: want=%d got=%d", http.StatusNotFound, got)
	}
	e, ok := As(wrapped)
	if !ok {
		t.Fatal("expected *Error in chain")
	}
	if e.Code != "user_not_found" {
		t.Fatalf("code: want=%q got=%q", "user_not_found", e.Code)
	}
	if e.Error() != "user 42 not found" {
		t.Fatalf("message: got=%q", e.Error())
	}
}

func TestStatusOfPlainError(t *testing.T) {
	if got := StatusOf(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("status: want=500 got=%d", got)
	}
	if got := StatusOf(nil); got != http.StatusInternalServerError {
		t.Fatalf("nil status: want=500 got=%d", got)
	}
}

func TestErrorFallbackText(t *testing.T) {
	if got := New(http.StatusConflict, "dup", nil).Error(); got != "dup" {
		t.Fatalf("want code text, got %q", got)
	}
	if got := New(http.StatusTeapot, "", nil).Error(); got != "api error (418)" {
		t.Fatalf("want status text, got %q", got)
	}
}
