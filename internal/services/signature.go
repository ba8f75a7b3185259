package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
)

// VerifyPaymentSignature authenticates a checkout completion callback.
// Razorpay signs hex(HMAC-SHA256(secret, orderHandle + "|" + paymentID)); the
// comparison is constant time. Empty inputs are a validation failure, reported
// before any HMAC work so a malformed request is never logged as a forgery.
func VerifyPaymentSignature(orderHandle, paymentID, signature, secret string) error {
	if orderHandle == "" || paymentID == "" || signature == "" {
		return apperrors.Validation("order handle, payment id and signature are required")
	}
	if secret == "" {
		return apperrors.Validation("gateway secret is not configured")
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderHandle + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.Authentication("signature mismatch")
	}
	return nil
}
