package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for transport mapping.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
)

// Errors returned by the session, order and payment services.
var (
	ErrInvalidTable         = errors.New("table not found")
	ErrInvalidToken         = errors.New("invalid table token")
	ErrTokenExpired         = errors.New("table token expired")
	ErrTableExists          = errors.New("table number already exists")
	ErrInvalidTableNumber   = errors.New("table_number is required")
	ErrEmptyItems           = errors.New("items are required")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInvalidPhone         = errors.New("phone must be 10-13 digits")
	ErrInvalidCustomerName  = errors.New("customer_name is required")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
	ErrInvalidPaymentType   = errors.New("invalid payment_type")
	ErrInvalidDrinkType     = errors.New("invalid drink_type")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrMenuNotFound         = errors.New("menu not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrTotalMismatch        = errors.New("total_amount does not match order total")
	ErrAmountMismatch       = errors.New("amount paid does not match amount due")
	ErrInsufficientPayment  = errors.New("amount paid is less than amount due")
	ErrPaymentTypeMismatch  = errors.New("payment is not a qris payment")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrTransitionNotAllowed = errors.New("status transition not allowed for this actor")
)

// StockError reports which menu ran out during checkout.
type StockError struct {
	MenuID    int64
	Requested int32
	Available int32
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for menu %d: requested %d, available %d", e.MenuID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// TransitionError carries the rejected from/to pair.
type TransitionError struct {
	Entity string
	From   string
	To     string
	cause  error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s: %v", e.Entity, e.From, e.To, e.cause)
}

func (e *TransitionError) Unwrap() error { return e.cause }

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidTable, KindNotFound},
	{ErrMenuNotFound, KindNotFound},
	{ErrOrderNotFound, KindNotFound},
	{ErrPaymentNotFound, KindNotFound},
	{ErrInvalidToken, KindUnauthorized},
	{ErrTokenExpired, KindUnauthorized},
	{ErrInvalidTableNumber, KindValidation},
	{ErrEmptyItems, KindValidation},
	{ErrInvalidQuantity, KindValidation},
	{ErrInvalidPhone, KindValidation},
	{ErrInvalidCustomerName, KindValidation},
	{ErrInvalidPaymentMethod, KindValidation},
	{ErrInvalidPaymentType, KindValidation},
	{ErrInvalidDrinkType, KindValidation},
	{ErrInvalidAmount, KindValidation},
	{ErrInvalidStatus, KindValidation},
	{ErrTableExists, KindConflict},
	{ErrInsufficientStock, KindConflict},
	{ErrTotalMismatch, KindConflict},
	{ErrAmountMismatch, KindConflict},
	{ErrInsufficientPayment, KindConflict},
	{ErrPaymentTypeMismatch, KindConflict},
	{ErrInvalidTransition, KindConflict},
	{ErrTransitionNotAllowed, KindConflict},
}

// KindOf returns the kind of the first known sentinel in err's chain.
// Unknown errors are KindServer.
func KindOf(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindServer
}
