package verifier

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "postback-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestVerifyToken(t *testing.T) {
	v := New(testSecret)
	exp := time.Now().Add(10 * time.Minute).Unix()

	tests := []struct {
		name      string
		token     string
		invoiceID string
		wantErr   error
	}{
		{
			name:      "valid token with invoice_id claim",
			token:     signToken(t, testSecret, jwt.MapClaims{"exp": exp, "invoice_id": "INV-ABC"}),
			invoiceID: "INV-ABC",
		},
		{
			name:      "valid token with uuid claim",
			token:     signToken(t, testSecret, jwt.MapClaims{"exp": exp, "uuid": "ABC"}),
			invoiceID: "INV-ABC",
		},
		{
			name:      "bare claimed id is normalized before comparison",
			token:     signToken(t, testSecret, jwt.MapClaims{"exp": exp, "invoice_id": "INV-ABC"}),
			invoiceID: "ABC",
		},
		{
			name:      "wrong secret",
			token:     signToken(t, "not-the-secret", jwt.MapClaims{"exp": exp, "invoice_id": "INV-ABC"}),
			invoiceID: "INV-ABC",
			wantErr:   ErrTokenInvalid,
		},
		{
			name: "expired beyond skew window",
			token: signToken(t, testSecret, jwt.MapClaims{
				"exp":        time.Now().Add(-10 * time.Minute).Unix(),
				"invoice_id": "INV-ABC",
			}),
			invoiceID: "INV-ABC",
			wantErr:   ErrTokenExpired,
		},
		{
			name: "expired within skew window is accepted",
			token: signToken(t, testSecret, jwt.MapClaims{
				"exp":        time.Now().Add(-2 * time.Minute).Unix(),
				"invoice_id": "INV-ABC",
			}),
			invoiceID: "INV-ABC",
		},
		{
			name:      "missing invoice claim",
			token:     signToken(t, testSecret, jwt.MapClaims{"exp": exp}),
			invoiceID: "INV-ABC",
			wantErr:   ErrMissingInvoiceClaim,
		},
		{
			name:      "invoice claim mismatch",
			token:     signToken(t, testSecret, jwt.MapClaims{"exp": exp, "invoice_id": "INV-OTHER"}),
			invoiceID: "INV-ABC",
			wantErr:   ErrInvoiceMismatch,
		},
		{
			name:      "empty token",
			token:     "",
			invoiceID: "INV-ABC",
			wantErr:   ErrNoToken,
		},
		{
			name:      "garbage token",
			token:     "not.a.jwt",
			invoiceID: "INV-ABC",
			wantErr:   ErrTokenInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.VerifyToken(tt.token, tt.invoiceID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, v.Verify(tt.token, tt.invoiceID))
			} else {
				assert.NoError(t, err)
				assert.True(t, v.Verify(tt.token, tt.invoiceID))
			}
		})
	}
}

func TestVerifyWithoutSecretIsPermissive(t *testing.T) {
	v := New("")
	assert.False(t, v.Enabled())

	assert.True(t, v.Verify("", "INV-ABC"))
	assert.True(t, v.Verify("complete garbage", "INV-ABC"))
	assert.True(t, v.Verify(
		signToken(t, "whatever", jwt.MapClaims{"invoice_id": "INV-OTHER"}),
		"INV-ABC",
	))
}
