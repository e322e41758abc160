// Package kerrors defines Kromer's typed domain-error taxonomy and the
// single place that maps each kind to an HTTP status and a Krist-compatible
// wire error code. Orchestration code returns *Error (or a plain error for
// unexpected failures); it never writes status codes or wire codes itself.
package kerrors

import (
	"errors"
	"fmt"
	"net/http"

	"kromer/pkg/utils"
)

// Kind is a closed set of domain-error categories.
type Kind string

const (
	InvalidParameter     Kind = "invalid_parameter"
	MissingParameter     Kind = "missing_parameter"
	AuthFailed           Kind = "auth_failed"
	AddressNotFound      Kind = "address_not_found"
	NameNotFound         Kind = "name_not_found"
	NameTaken            Kind = "name_taken"
	NotNameOwner         Kind = "not_name_owner"
	InsufficientFunds    Kind = "insufficient_funds"
	SameWalletTransfer   Kind = "same_wallet_transfer"
	TransactionNotFound  Kind = "transaction_not_found"
	TransactionsDisabled Kind = "transactions_disabled"
	TransactionConflict  Kind = "transaction_conflict"
	InvalidWebSocketTok  Kind = "invalid_websocket_token"
	MessageTooLong       Kind = "message_too_long"
	MiningDisabled       Kind = "mining_disabled"
	InternalServerError  Kind = "internal_server_error"
)

// statusByKind is the HTTP status mapping. WS-only kinds carry no
// meaningful HTTP status; HTTPStatus falls back to 500 for those, but
// callers on the WS path never consult it.
var statusByKind = map[Kind]int{
	InvalidParameter:     http.StatusBadRequest,
	MissingParameter:     http.StatusBadRequest,
	AuthFailed:           http.StatusUnauthorized,
	AddressNotFound:      http.StatusNotFound,
	NameNotFound:         http.StatusNotFound,
	NameTaken:            http.StatusConflict,
	NotNameOwner:         http.StatusUnauthorized,
	InsufficientFunds:    http.StatusForbidden,
	SameWalletTransfer:   http.StatusBadRequest,
	TransactionNotFound:  http.StatusNotFound,
	TransactionsDisabled: http.StatusLocked,
	TransactionConflict:  http.StatusConflict,
	InvalidWebSocketTok:  http.StatusBadRequest,
	InternalServerError:  http.StatusInternalServerError,
}

// Error is a typed domain error: a Kind plus a human-readable message and
// an optional field/identifier the kind refers to (the "p" in
// TransactionConflict(p), the "n" in NameNotFound(n), etc).
type Error struct {
	Kind    Kind
	Field   string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error of the given kind, formatting message like
// fmt.Sprintf.
func New(kind Kind, message string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(message, args...)}
}

// WithField attaches the subject identifier (an address, name, or
// parameter name) the error refers to.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// Wrap adds context to err, preserving it as the unwrap target. It delegates
// to pkg/utils.Wrap; this wrapper exists so callers in this package only ever
// import "kromer/internal/kerrors".
func Wrap(err error, message string) error {
	return utils.Wrap(err, message)
}

// AsDomainError extracts a *Error from err if one is anywhere in its chain.
func AsDomainError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HTTPStatus returns the status code for kind, defaulting to 500 for
// WS-only kinds (MessageTooLong, MiningDisabled) which should never reach
// an HTTP response writer.
func HTTPStatus(kind Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// ToWire maps any error into (status, wireCode, message, info) for the
// Krist-style envelope. Unrecognized errors - including context
// cancellation, DB failures, and serialization errors - become opaque
// internal_server_error responses; only *Error values carry a field.
func ToWire(err error) (status int, code string, message string, info string) {
	if de, ok := AsDomainError(err); ok {
		return HTTPStatus(de.Kind), string(de.Kind), de.Message, de.Field
	}
	return http.StatusInternalServerError, string(InternalServerError), "internal server error", ""
}

// WSCode returns the wire error code for a WS-only error frame; it accepts
// both domain errors and the two WS-specific sentinels below.
func WSCode(err error) string {
	if de, ok := AsDomainError(err); ok {
		return string(de.Kind)
	}
	return string(InternalServerError)
}

// ErrMessageTooLong and ErrMiningDisabled are the two WS-only conditions
// that never surface over HTTP.
var (
	ErrMessageTooLong  = &Error{Kind: MessageTooLong, Message: "message_too_long"}
	ErrMiningDisabled  = &Error{Kind: MiningDisabled, Message: "mining_disabled"}
)
