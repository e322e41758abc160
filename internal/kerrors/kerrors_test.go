package kerrors

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusKnownKinds(t *testing.T) {
	cases := map[Kind]int{
		InvalidParameter:    http.StatusBadRequest,
		AddressNotFound:     http.StatusNotFound,
		NameTaken:           http.StatusConflict,
		InsufficientFunds:   http.StatusForbidden,
		TransactionConflict: http.StatusConflict,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", kind, got, want)
		}
	}
}

func TestHTTPStatusWSOnlyKindsFallBackTo500(t *testing.T) {
	for _, kind := range []Kind{MessageTooLong, MiningDisabled} {
		if got := HTTPStatus(kind); got != http.StatusInternalServerError {
			t.Errorf("HTTPStatus(%q) = %d, want 500", kind, got)
		}
	}
}

func TestToWireDomainError(t *testing.T) {
	err := New(NameTaken, "name %q is taken", "bob").WithField("bob")
	status, code, message, info := ToWire(err)
	if status != http.StatusConflict {
		t.Errorf("status = %d, want %d", status, http.StatusConflict)
	}
	if code != string(NameTaken) {
		t.Errorf("code = %q, want %q", code, NameTaken)
	}
	if message != `name "bob" is taken` {
		t.Errorf("message = %q", message)
	}
	if info != "bob" {
		t.Errorf("info = %q, want %q", info, "bob")
	}
}

func TestToWireOpaqueError(t *testing.T) {
	status, code, _, info := ToWire(errors.New("boom"))
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if code != string(InternalServerError) {
		t.Errorf("code = %q, want %q", code, InternalServerError)
	}
	if info != "" {
		t.Errorf("info = %q, want empty for an opaque error", info)
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if err := Wrap(nil, "context"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWrapPreservesUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	wrapped := Wrap(cause, "while doing thing")
	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
}

func TestAsDomainErrorChain(t *testing.T) {
	de := New(InsufficientFunds, "not enough")
	wrapped := Wrap(de, "transfer failed")
	got, ok := AsDomainError(wrapped)
	if !ok {
		t.Fatalf("expected AsDomainError to find the domain error in the chain")
	}
	if got.Kind != InsufficientFunds {
		t.Fatalf("got kind %q, want %q", got.Kind, InsufficientFunds)
	}
}
