package services

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
)

const (
	gatewayCurrency = "INR"
	// Remote order calls are blocking; callers never retry automatically, a
	// timed-out create may still have succeeded on the gateway side.
	gatewayTimeout = 10 * time.Second
)

// GatewayOrder is the service's view of a payment intent held by Razorpay.
type GatewayOrder struct {
	OrderHandle string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type razorpayErrorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// RazorpayService creates and fetches gateway orders. One remote order is
// created per successful CreateOrder call; failed calls are not retried here.
type RazorpayService struct {
	client    *resty.Client
	breaker   *gobreaker.CircuitBreaker
	keyID     string
	keySecret string
}

// NewRazorpayService builds the gateway client from environment configuration:
// RAZORPAY_KEY_ID, RAZORPAY_KEY_SECRET and optionally RAZORPAY_BASE_URL.
func NewRazorpayService() *RazorpayService {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")

	baseURL := os.Getenv("RAZORPAY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(gatewayTimeout).
		SetBasicAuth(keyID, keySecret).
		SetHeader("Content-Type", "application/json")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "razorpay",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &RazorpayService{
		client:    client,
		breaker:   breaker,
		keyID:     keyID,
		keySecret: keySecret,
	}
}

// Configured reports whether gateway credentials are present.
func (s *RazorpayService) Configured() bool {
	return s.keyID != "" && s.keySecret != ""
}

// ClientKey returns the publishable key. This is the only credential that may
// appear in a response body.
func (s *RazorpayService) ClientKey() string {
	return s.keyID
}

// MajorToMinorUnits converts a major-unit amount to minor units (paise) by
// rounding half up, e.g. 49.995 -> 5000. Matches the browser checkout math.
func MajorToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder creates a payment intent with the gateway for a listing
// purchase. A seller cannot buy their own listing. Each call sends a fresh
// receipt token so the gateway has its own idempotency/audit key.
func (s *RazorpayService) CreateOrder(ctx context.Context, amountMajor float64, listingID, buyerID, sellerID string) (*GatewayOrder, error) {
	if listingID == "" || buyerID == "" || sellerID == "" {
		return nil, apperrors.Validation("listing id, buyer id and seller id are required")
	}
	if amountMajor <= 0 {
		return nil, apperrors.Validation("amount must be greater than zero")
	}
	if buyerID == sellerID {
		return nil, apperrors.Validation("buyer and seller cannot be the same user")
	}
	if !s.Configured() {
		return nil, apperrors.Gateway("payment gateway credentials are not configured", nil)
	}

	receipt := fmt.Sprintf("rcpt_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
	body := map[string]interface{}{
		"amount":          MajorToMinorUnits(amountMajor),
		"currency":        gatewayCurrency,
		"receipt":         receipt,
		"payment_capture": 1,
		"notes": map[string]string{
			"listing_id": listingID,
			"buyer_id":   buyerID,
			"seller_id":  sellerID,
		},
	}

	order, err := s.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(body).Post("/v1/orders")
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder fetches the gateway-authoritative order, used to cross-check a
// client-asserted price before commit.
func (s *RazorpayService) GetOrder(ctx context.Context, orderHandle string) (*GatewayOrder, error) {
	if orderHandle == "" {
		return nil, apperrors.Validation("order handle is required")
	}
	if !s.Configured() {
		return nil, apperrors.Gateway("payment gateway credentials are not configured", nil)
	}

	return s.call(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Get("/v1/orders/" + orderHandle)
	})
}

func (s *RazorpayService) call(ctx context.Context, do func(*resty.Request) (*resty.Response, error)) (*GatewayOrder, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		var apiErr razorpayErrorResponse
		var apiResp razorpayOrderResponse

		req := s.client.R().
			SetContext(ctx).
			SetResult(&apiResp).
			SetError(&apiErr)

		resp, err := do(req)
		if err != nil {
			return nil, apperrors.Gateway("payment gateway request failed", err)
		}
		if resp.IsError() {
			msg := apiErr.Error.Description
			if msg == "" {
				msg = fmt.Sprintf("payment gateway returned status %d", resp.StatusCode())
			}
			return nil, apperrors.Gateway(msg, nil)
		}
		if apiResp.ID == "" {
			return nil, apperrors.Gateway("payment gateway returned a malformed order", nil)
		}

		return &GatewayOrder{
			OrderHandle: apiResp.ID,
			AmountMinor: apiResp.Amount,
			Currency:    apiResp.Currency,
			Receipt:     apiResp.Receipt,
			Status:      apiResp.Status,
		}, nil
	})
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindGateway) {
			return nil, err
		}
		// Breaker open or half-open rejection
		return nil, apperrors.Gateway("payment gateway unavailable", err)
	}
	return result.(*GatewayOrder), nil
}
