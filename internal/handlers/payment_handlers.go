package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
	"github.com/sanket-rajput/agritraceDep/internal/middleware"
	"github.com/sanket-rajput/agritraceDep/internal/services"
)

type paymentGateway interface {
	CreateOrder(ctx context.Context, amountMajor float64, listingID, buyerID, sellerID string) (*services.GatewayOrder, error)
	ClientKey() string
}

type paymentConfirmer interface {
	ConfirmPayment(ctx context.Context, assertion services.PaymentCompletionAssertion, expected services.ExpectedOrder) (uint, error)
}

// PaymentHandler exposes the two settlement endpoints: creating a gateway
// order for checkout and confirming a completed payment.
type PaymentHandler struct {
	gateway    paymentGateway
	reconciler paymentConfirmer
}

func NewPaymentHandler(gateway paymentGateway, reconciler paymentConfirmer) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, reconciler: reconciler}
}

// CreatePaymentOrder creates a payment intent with the gateway. The buyer is
// always the authenticated user; a client-supplied buyerId must match it.
func (h *PaymentHandler) CreatePaymentOrder(c echo.Context) error {
	var req CreatePaymentOrderRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid JSON payload")
	}

	buyerID := middleware.UserUID(c)
	if req.BuyerID != "" && req.BuyerID != buyerID {
		return apperrors.Validation("buyerId does not match the authenticated user")
	}

	order, err := h.gateway.CreateOrder(c.Request().Context(), req.Amount, req.ListingID, buyerID, req.SellerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, CreatePaymentOrderResponse{
		OrderHandle:      order.OrderHandle,
		AmountMinorUnits: order.AmountMinor,
		Currency:         order.Currency,
		PublishableKey:   h.gateway.ClientKey(),
	})
}

// ConfirmPayment verifies a client-asserted payment completion and commits the
// order. A re-delivered callback returns the same order id with status 200.
func (h *PaymentHandler) ConfirmPayment(c echo.Context) error {
	var req ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid JSON payload")
	}

	buyerID := middleware.UserUID(c)
	if req.BuyerID != "" && req.BuyerID != buyerID {
		return apperrors.Validation("buyerId does not match the authenticated user")
	}

	assertion := services.PaymentCompletionAssertion{
		PaymentID:   req.PaymentID,
		OrderHandle: req.OrderHandle,
		Signature:   req.Signature,
	}
	expected := services.ExpectedOrder{
		ListingID:  req.ListingID,
		BuyerID:    buyerID,
		SellerID:   req.SellerID,
		PriceMajor: req.Price,
	}

	orderID, err := h.reconciler.ConfirmPayment(c.Request().Context(), assertion, expected)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ConfirmPaymentResponse{OrderID: orderID})
}
