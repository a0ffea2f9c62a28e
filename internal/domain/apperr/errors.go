// internal/domain/apperr/errors.go
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindForbidden
	KindUnauthorized
	KindInvalidInput
	KindInvalidQuantity
	KindInsufficientStock
	KindUnavailable
	KindEmptyCart
	KindAlreadyCancelled
	KindNotCancellable
	KindNotEditable
	KindInvalidStockState
	KindConflict
)

var kindNames = map[Kind]string{
	KindUnknown:           "internal_error",
	KindNotFound:          "not_found",
	KindForbidden:         "forbidden",
	KindUnauthorized:      "unauthorized",
	KindInvalidInput:      "invalid_input",
	KindInvalidQuantity:   "invalid_quantity",
	KindInsufficientStock: "insufficient_stock",
	KindUnavailable:       "unavailable",
	KindEmptyCart:         "empty_cart",
	KindAlreadyCancelled:  "already_cancelled",
	KindNotCancellable:    "not_cancellable",
	KindNotEditable:       "not_editable",
	KindInvalidStockState: "invalid_stock_state",
	KindConflict:          "conflict",
}

// String returns the wire name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is a typed domain failure.
// Available and Requested are only meaningful for KindInsufficientStock.
type Error struct {
	Kind      Kind
	Entity    string
	Message   string
	Available int
	Requested int
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrInvalidQuantity   = &Error{Kind: KindInvalidQuantity, Message: "invalid quantity"}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock, Message: "insufficient stock"}
	ErrUnavailable       = &Error{Kind: KindUnavailable, Message: "product unavailable"}
	ErrEmptyCart         = &Error{Kind: KindEmptyCart, Message: "cart is empty"}
	ErrAlreadyCancelled  = &Error{Kind: KindAlreadyCancelled, Message: "order already cancelled"}
	ErrNotCancellable    = &Error{Kind: KindNotCancellable, Message: "order cannot be cancelled"}
	ErrNotEditable       = &Error{Kind: KindNotEditable, Message: "order cannot be edited"}
	ErrInvalidStockState = &Error{Kind: KindInvalidStockState, Message: "invalid stock state"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
)

// New creates an error of the given kind
func New(kind Kind, entity, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Entity:  entity,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a cause to a new error of the given kind
func Wrap(err error, kind Kind, entity, format string, args ...interface{}) *Error {
	e := New(kind, entity, format, args...)
	e.Err = err
	return e
}

// NotFound reports a missing (or invisible) entity
func NotFound(entity string, id interface{}) *Error {
	return New(KindNotFound, entity, "%s %v not found", entity, id)
}

// InsufficientStock reports a stock shortfall with both quantities
func InsufficientStock(product string, available, requested int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Entity:    product,
		Message:   fmt.Sprintf("insufficient stock for product '%s': available %d, requested %d", product, available, requested),
		Available: available,
		Requested: requested,
	}
}

// KindOf extracts the kind of err, or KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As returns the *Error in err's chain, if any
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
