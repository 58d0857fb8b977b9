package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies failures so transports can map them to status codes and
// user-facing messages.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindValidation        Kind = "validation"
	KindInsufficientStock Kind = "insufficient_stock"
	KindCommitFailure     Kind = "commit_failure"
	KindPaymentState      Kind = "payment_state"
	KindNotFound          Kind = "not_found"
	KindNotAuthorized     Kind = "not_authorized"
	KindBusy              Kind = "busy"
)

// Sentinels for errors.Is checks; they match any *Error of the same kind.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrCommitFailure     = &Error{Kind: KindCommitFailure}
	ErrPaymentState      = &Error{Kind: KindPaymentState}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrNotAuthorized     = &Error{Kind: KindNotAuthorized}
	ErrBusy              = &Error{Kind: KindBusy}
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Details carries template data for localized messages.
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Validation(op, field, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: message,
		Details: map[string]any{"Field": field, "Detail": message},
	}
}

func InsufficientStock(op, batchCode string, requested, available float64) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Op:      op,
		Message: fmt.Sprintf("insufficient stock for batch %s: requested %g, available %g", batchCode, requested, available),
		Details: map[string]any{"BatchCode": batchCode, "Requested": requested, "Available": available},
	}
}

func CommitFailure(op string, err error) *Error {
	return &Error{
		Kind:    KindCommitFailure,
		Op:      op,
		Message: "commit failed",
		Err:     err,
	}
}

func PaymentState(op string, orderID int64, reason string) *Error {
	return &Error{
		Kind:    KindPaymentState,
		Op:      op,
		Message: reason,
		Details: map[string]any{"OrderID": orderID},
	}
}

func NotFound(op, what string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Op:      op,
		Message: what + " not found",
		Details: map[string]any{"Detail": what},
	}
}

func NotAuthorized(op string) *Error {
	return &Error{Kind: KindNotAuthorized, Op: op, Message: "operation not permitted for this session"}
}

func Busy(op, message string) *Error {
	return &Error{Kind: KindBusy, Op: op, Message: message}
}

// MessageID maps a kind to its entry in the i18n catalogs.
func MessageID(kind Kind) string {
	switch kind {
	case KindValidation:
		return "ValidationError"
	case KindInsufficientStock:
		return "InsufficientStock"
	case KindCommitFailure:
		return "CommitFailure"
	case KindPaymentState:
		return "PaymentState"
	case KindNotFound:
		return "NotFound"
	case KindNotAuthorized:
		return "NotAuthorized"
	case KindBusy:
		return "CheckoutBusy"
	default:
		return "InternalError"
	}
}
