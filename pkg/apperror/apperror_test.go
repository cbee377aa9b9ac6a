package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *Error
		kind   Kind
		code   int
		status int
	}{
		{name: "not found", err: NotFound("nothing here", nil), kind: KindNotFound, code: 404, status: http.StatusNotFound},
		{name: "duplicate", err: InvalidDuplicateEntry("email already exists"), kind: KindInvalidDuplicateEntry, code: 409, status: http.StatusConflict},
		{name: "internal", err: InternalServerError("query failed", errors.New("boom")), kind: KindInternalServerError, code: 500, status: http.StatusInternalServerError},
		{name: "forbidden", err: Forbidden("not yours"), kind: KindForbidden, code: 403, status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Fatalf("kind = %q, want %q", tt.err.Kind, tt.kind)
			}
			if tt.err.Code != tt.code {
				t.Fatalf("code = %d, want %d", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Fatalf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestError_MessageAndCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := InternalServerError("failed to run query", cause)

	if err.Error() != "failed to run query: connection reset" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be discoverable via errors.Is")
	}

	plain := NotFound("Nothing was found with this id.", map[string]interface{}{"id": "42"})
	if plain.Error() != "Nothing was found with this id." {
		t.Fatalf("unexpected error string: %q", plain.Error())
	}
}

func TestKindOf_WrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Forbidden("denied"))

	if got := KindOf(wrapped); got != KindForbidden {
		t.Fatalf("KindOf() = %q, want forbidden", got)
	}
	if !Is(wrapped, KindForbidden) {
		t.Fatal("expected Is to match through wrapping")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Fatal("expected empty kind for unclassified error")
	}
}

func TestWithMessageKey(t *testing.T) {
	err := NotFound("no orders have been placed yet", nil).WithMessageKey(MessageOrdersEmpty)
	if err.MessageKey != MessageOrdersEmpty {
		t.Fatalf("message key = %q", err.MessageKey)
	}
	if err.Kind != KindNotFound {
		t.Fatal("message key must not change the kind")
	}
}
