package services

import "errors"

var (
	// ErrInsufficientInventory means a reserve request did not fit the
	// remaining capacity of a ticket type.
	ErrInsufficientInventory = errors.New("insufficient inventory")

	// ErrInvalidState means a transition was attempted on a reservation or
	// order that already left the pending state.
	ErrInvalidState = errors.New("invalid state")

	// ErrReservationExpired means a payment confirmation arrived after the
	// reservation deadline. The order gets flagged for manual review.
	ErrReservationExpired = errors.New("reservation expired")

	// ErrInvalidSignature means a webhook failed its authenticity check.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrOrderNotFound means a gateway correlation key did not map to any
	// known order.
	ErrOrderNotFound = errors.New("order not found")
)
