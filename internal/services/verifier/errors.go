package verifier

import "errors"

// Distinct failure kinds so rejected postbacks can be diagnosed even though
// callers only branch on accept/reject.
var (
	ErrNoToken             = errors.New("postback token missing")
	ErrTokenExpired        = errors.New("postback token expired")
	ErrTokenInvalid        = errors.New("postback token signature invalid")
	ErrMissingInvoiceClaim = errors.New("postback token carries no invoice claim")
	ErrInvoiceMismatch     = errors.New("postback token invoice claim mismatch")
)
