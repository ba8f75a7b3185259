package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
	"github.com/sanket-rajput/agritraceDep/internal/models"
)

// PaymentCompletionAssertion is the untrusted payload the gateway's browser
// callback hands to the client. It lives only for the duration of a confirm
// request and is never persisted as-is.
type PaymentCompletionAssertion struct {
	PaymentID   string
	OrderHandle string
	Signature   string
}

// Validate is the strict parse step at the trust boundary: every field must be
// present before any business logic sees the payload.
func (a PaymentCompletionAssertion) Validate() error {
	if a.PaymentID == "" || a.OrderHandle == "" || a.Signature == "" {
		return apperrors.Validation("payment id, order handle and signature are required")
	}
	return nil
}

// ExpectedOrder carries the server-side expectations a confirmation is checked
// against. PriceMajor is cross-checked against the gateway-authoritative
// amount, not trusted from the client alone.
type ExpectedOrder struct {
	ListingID  string
	BuyerID    string
	SellerID   string
	PriceMajor float64
}

func (e ExpectedOrder) validate() error {
	if e.ListingID == "" || e.BuyerID == "" || e.SellerID == "" {
		return apperrors.Validation("listing id, buyer id and seller id are required")
	}
	if e.PriceMajor <= 0 {
		return apperrors.Validation("price must be greater than zero")
	}
	return nil
}

type confirmState string

const (
	stateReceived         confirmState = "received"
	stateVerifying        confirmState = "verifying"
	statePriceCheck       confirmState = "price_check"
	stateCommitting       confirmState = "committing"
	stateCommitted        confirmState = "committed"
	stateAlreadyCommitted confirmState = "already_committed"
	stateRejected         confirmState = "rejected"
	stateCommitFailed     confirmState = "commit_failed"
)

// orderCommitter is the slice of OrderStore the coordinator needs.
type orderCommitter interface {
	Insert(ctx context.Context, order *models.Order) (uint, error)
	FindByDerivedKey(ctx context.Context, listingID, buyerID, orderHandle string) (*models.Order, error)
}

// gatewayOrderReader fetches the authoritative order from the gateway.
type gatewayOrderReader interface {
	GetOrder(ctx context.Context, orderHandle string) (*GatewayOrder, error)
}

// ReconciliationService matches client-asserted payment completions against
// gateway-issued signatures and commits the marketplace order exactly once.
// It is the only caller authorized to request an order insert.
type ReconciliationService struct {
	store     orderCommitter
	gateway   gatewayOrderReader
	cache     *RedisCache
	keySecret string
}

// NewReconciliationService wires the coordinator. cache may be nil; it is only
// a fast path for re-delivered callbacks, correctness comes from the store's
// unique index.
func NewReconciliationService(store orderCommitter, gateway gatewayOrderReader, cache *RedisCache, keySecret string) *ReconciliationService {
	return &ReconciliationService{
		store:     store,
		gateway:   gateway,
		cache:     cache,
		keySecret: keySecret,
	}
}

const committedOrderCacheTTL = 24 * time.Hour

func committedOrderCacheKey(derivedKey string) string {
	return "payments:committed:" + derivedKey
}

// ForgetCommitted drops the fast-path cache entry for an order, used when an
// admin cancels it so a later re-delivery consults the store again.
func (s *ReconciliationService) ForgetCommitted(ctx context.Context, listingID, buyerID, orderHandle string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, committedOrderCacheKey(models.DeriveKey(listingID, buyerID, orderHandle)))
}

// ConfirmPayment runs the reconciliation state machine in a single pass, with
// no intermediate persisted states. Safe to invoke concurrently for the same
// assertion: the unique index decides the winner and the loser returns the
// winner's order ID. Gateway callbacks are at-least-once, so a duplicate
// delivery is success, not an error.
func (s *ReconciliationService) ConfirmPayment(ctx context.Context, assertion PaymentCompletionAssertion, expected ExpectedOrder) (uint, error) {
	state := stateReceived

	if err := assertion.Validate(); err != nil {
		paymentConfirmations.WithLabelValues("validation_failed").Inc()
		return 0, err
	}
	if err := expected.validate(); err != nil {
		paymentConfirmations.WithLabelValues("validation_failed").Inc()
		return 0, err
	}

	derivedKey := models.DeriveKey(expected.ListingID, expected.BuyerID, assertion.OrderHandle)

	state = stateVerifying
	if err := VerifyPaymentSignature(assertion.OrderHandle, assertion.PaymentID, assertion.Signature, s.keySecret); err != nil {
		if apperrors.IsKind(err, apperrors.KindAuthentication) {
			state = stateRejected
			signatureRejections.Inc()
			paymentConfirmations.WithLabelValues(string(state)).Inc()
			log.Printf("SECURITY: payment signature mismatch, order handle %s, payment %s, buyer %s",
				assertion.OrderHandle, assertion.PaymentID, expected.BuyerID)
			return 0, err
		}
		paymentConfirmations.WithLabelValues("validation_failed").Inc()
		return 0, err
	}

	// Fast path for re-delivered callbacks: the signature checked out and this
	// derived key already committed, so skip the gateway round trip.
	if s.cache != nil {
		var cachedID uint
		if err := s.cache.Get(ctx, committedOrderCacheKey(derivedKey), &cachedID); err == nil && cachedID != 0 {
			paymentConfirmations.WithLabelValues(string(stateAlreadyCommitted)).Inc()
			return cachedID, nil
		}
	}

	state = statePriceCheck
	gatewayOrder, err := s.gateway.GetOrder(ctx, assertion.OrderHandle)
	if err != nil {
		paymentConfirmations.WithLabelValues("gateway_unavailable").Inc()
		return 0, fmt.Errorf("fetch gateway order %s: %w", assertion.OrderHandle, err)
	}
	expectedMinor := MajorToMinorUnits(expected.PriceMajor)
	if gatewayOrder.AmountMinor != expectedMinor {
		paymentConfirmations.WithLabelValues("validation_failed").Inc()
		return 0, apperrors.Validationf("price mismatch: asserted %d, gateway holds %d", expectedMinor, gatewayOrder.AmountMinor)
	}

	state = stateCommitting
	order := &models.Order{
		ListingID:   expected.ListingID,
		BuyerID:     expected.BuyerID,
		SellerID:    expected.SellerID,
		OrderHandle: assertion.OrderHandle,
		PaymentID:   assertion.PaymentID,
		PriceMinor:  expectedMinor,
		Currency:    gatewayOrder.Currency,
		Status:      models.OrderStatusPending,
	}

	orderID, err := s.store.Insert(ctx, order)
	switch {
	case err == nil:
		state = stateCommitted
	case apperrors.IsKind(err, apperrors.KindConflict):
		existing, findErr := s.store.FindByDerivedKey(ctx, expected.ListingID, expected.BuyerID, assertion.OrderHandle)
		if findErr != nil {
			state = stateCommitFailed
			paymentConfirmations.WithLabelValues(string(state)).Inc()
			return 0, findErr
		}
		if existing == nil {
			state = stateCommitFailed
			paymentConfirmations.WithLabelValues(string(state)).Inc()
			return 0, apperrors.Persistence("insert conflicted but no committed order was found", nil)
		}
		state = stateAlreadyCommitted
		orderID = existing.ID
	default:
		// Verification succeeded but the record could not be written: money has
		// moved with nothing durable behind it. Surface loudly for an operator.
		state = stateCommitFailed
		paymentConfirmations.WithLabelValues(string(state)).Inc()
		log.Printf("ALERT: verified payment %s (order handle %s) failed to commit: %v",
			assertion.PaymentID, assertion.OrderHandle, err)
		return 0, err
	}

	paymentConfirmations.WithLabelValues(string(state)).Inc()

	if s.cache != nil {
		_ = s.cache.Set(ctx, committedOrderCacheKey(derivedKey), orderID, committedOrderCacheTTL)
	}

	return orderID, nil
}
