// Package verifier admits or rejects inbound postbacks based on the signed
// token the gateway attaches to every notification.
package verifier

import (
	"errors"
	"time"

	"cryptopay/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// clockSkew is how much clock drift between us and the gateway is tolerated
// when checking token expiry.
const clockSkew = 5 * time.Minute

// postbackClaims carries the invoice identity under either of the two claim
// names the gateway has been observed to use.
type postbackClaims struct {
	jwt.RegisteredClaims
	InvoiceID string `json:"invoice_id"`
	UUID      string `json:"uuid"`
}

func (c *postbackClaims) invoiceClaim() string {
	if c.InvoiceID != "" {
		return c.InvoiceID
	}
	return c.UUID
}

// Verifier validates postback tokens against the shared secret.
type Verifier struct {
	secret string
}

// New creates a Verifier. An empty secret disables verification entirely:
// every token is accepted. That permissive fallback is an operational risk
// accepted for environments where no secret has been configured yet.
func New(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Enabled reports whether a secret is configured.
func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify reports whether the token admits a postback for the claimed
// invoice. See VerifyToken for the underlying failure kinds.
func (v *Verifier) Verify(token, claimedInvoiceID string) bool {
	return v.VerifyToken(token, claimedInvoiceID) == nil
}

// VerifyToken checks signature, expiry (with clock-skew leeway) and invoice
// identity. The token's claim and the claimed id are both normalized to the
// canonical prefixed form before comparison. It has no side effects.
func (v *Verifier) VerifyToken(token, claimedInvoiceID string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return ErrNoToken
	}

	claims := &postbackClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(v.secret), nil
	}, jwt.WithLeeway(clockSkew))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}

	claim := claims.invoiceClaim()
	if claim == "" {
		return ErrMissingInvoiceClaim
	}
	if models.NormalizeInvoiceID(claim) != models.NormalizeInvoiceID(claimedInvoiceID) {
		return ErrInvoiceMismatch
	}
	return nil
}
