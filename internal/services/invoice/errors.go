package invoice

import "errors"

// Service errors
var (
	ErrInvalidOrderID     = errors.New("order id must not be empty")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrGatewayUnavailable = errors.New("gateway request failed")
)
