package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppErrorError(t *testing.T) {
	err := New("TEST", "boom", http.StatusBadRequest)
	if err.Error() != "boom" {
		t.Fatalf("unexpected message: %s", err.Error())
	}

	inner := errors.New("inner cause")
	wrapped := err.WithInternal(inner)
	if wrapped.Error() != "boom: inner cause" {
		t.Fatalf("unexpected wrapped message: %s", wrapped.Error())
	}
	if !errors.Is(wrapped, inner) {
		t.Fatal("expected errors.Is to find the internal error")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Fatal("expected nil for nil input")
	}

	app := New("X", "msg", http.StatusConflict)
	if got := FromError(app); got != app {
		t.Fatal("expected AppError passthrough")
	}

	plain := errors.New("plain")
	converted := FromError(plain)
	if converted.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", converted.Code)
	}
	if !errors.Is(converted, plain) {
		t.Fatal("expected original error retained as internal")
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(cause, "store unavailable")
	if err.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause")
	}
}
