package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCustomerInactive means the customer record is missing or disabled.
	ErrCustomerInactive = errors.New("customer account not found or inactive")

	// ErrQuoteNotFound covers both a nonexistent quote id and a quote owned
	// by a different customer; callers must not distinguish the two.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrQuoteExpired means the quote's validity window has passed.
	ErrQuoteExpired = errors.New("quote has expired")

	// ErrQuoteAlreadyBooked means another booking claimed the quote first.
	ErrQuoteAlreadyBooked = errors.New("quote has already been booked")

	// ErrServiceNotQuoted means the booking named a service type that was
	// not among the quote's persisted rate options.
	ErrServiceNotQuoted = errors.New("service type was not quoted")
)

// CarrierError is an expected failure from the carrier integration: a rejected
// request, an unusable response, or a transport error. The carrier gateway
// converts every such condition into a CarrierError so callers never see raw
// transport errors.
type CarrierError struct {
	Op      string // carrier operation, e.g. "rates"
	Message string
	Raw     []byte // raw carrier response body, kept for diagnostics
}

func (e *CarrierError) Error() string {
	return fmt.Sprintf("aramexconnect: %s: %s", e.Op, e.Message)
}
