package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
	"github.com/sanket-rajput/agritraceDep/internal/middleware"
	"github.com/sanket-rajput/agritraceDep/internal/models"
	"github.com/sanket-rajput/agritraceDep/internal/services"
)

const (
	testKeyID  = "rzp_test_key"
	testSecret = "rzp_test_secret"
	testBuyer  = "buyer-B"
)

type memoryOrderStore struct {
	orders map[string]*models.Order
	nextID uint
}

func newMemoryOrderStore() *memoryOrderStore {
	return &memoryOrderStore{orders: map[string]*models.Order{}, nextID: 1}
}

func (m *memoryOrderStore) Insert(_ context.Context, order *models.Order) (uint, error) {
	key := models.DeriveKey(order.ListingID, order.BuyerID, order.OrderHandle)
	if existing, ok := m.orders[key]; ok && existing.Status != models.OrderStatusCancelled {
		return 0, apperrors.Conflict("an order for this payment already exists")
	}
	order.ID = m.nextID
	m.nextID++
	m.orders[key] = order
	return order.ID, nil
}

func (m *memoryOrderStore) FindByDerivedKey(_ context.Context, listingID, buyerID, orderHandle string) (*models.Order, error) {
	order, ok := m.orders[models.DeriveKey(listingID, buyerID, orderHandle)]
	if !ok || order.Status == models.OrderStatusCancelled {
		return nil, nil
	}
	return order, nil
}

// fakeRazorpay serves the two gateway endpoints the settlement flow touches.
type fakeRazorpay struct {
	created map[string]int64 // order handle -> amount minor
}

func (f *fakeRazorpay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/orders":
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		amount := int64(body["amount"].(float64))
		handle := "order_abc"
		f.created[handle] = amount
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": handle, "amount": amount, "currency": "INR",
			"receipt": body["receipt"], "status": "created",
		})
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/orders/"):
		handle := strings.TrimPrefix(r.URL.Path, "/v1/orders/")
		amount, ok := f.created[handle]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"description": "order not found"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": handle, "amount": amount, "currency": "INR", "status": "paid",
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newPaymentTestServer(t *testing.T) (*echo.Echo, *memoryOrderStore) {
	t.Helper()

	gatewaySrv := httptest.NewServer(&fakeRazorpay{created: map[string]int64{}})
	t.Cleanup(gatewaySrv.Close)

	t.Setenv("RAZORPAY_KEY_ID", testKeyID)
	t.Setenv("RAZORPAY_KEY_SECRET", testSecret)
	t.Setenv("RAZORPAY_BASE_URL", gatewaySrv.URL)

	store := newMemoryOrderStore()
	gateway := services.NewRazorpayService()
	reconciler := services.NewReconciliationService(store, gateway, nil, testSecret)
	handler := NewPaymentHandler(gateway, reconciler)

	e := echo.New()
	e.HTTPErrorHandler = middleware.CustomErrorHandler
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("userUID", testBuyer)
			return next(c)
		}
	})
	e.POST("/api/payments/orders", handler.CreatePaymentOrder)
	e.POST("/api/payments/confirm", handler.ConfirmPayment)

	return e, store
}

func postJSON(t *testing.T, e *echo.Echo, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(payload)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func checkoutSignature(orderHandle, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderHandle + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaymentFlowEndToEnd(t *testing.T) {
	e, store := newPaymentTestServer(t)

	// Buyer B starts checkout for listing L, price 6000.00, seller S.
	rec := postJSON(t, e, "/api/payments/orders", CreatePaymentOrderRequest{
		ListingID: "listing-L",
		Amount:    6000.00,
		SellerID:  "seller-S",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create order status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created CreatePaymentOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.OrderHandle != "order_abc" {
		t.Errorf("order handle = %q; want order_abc", created.OrderHandle)
	}
	if created.AmountMinorUnits != 600000 {
		t.Errorf("amount minor units = %d; want 600000", created.AmountMinorUnits)
	}
	if created.PublishableKey != testKeyID {
		t.Errorf("publishable key = %q; want %q", created.PublishableKey, testKeyID)
	}
	if strings.Contains(rec.Body.String(), testSecret) {
		t.Error("secret key leaked into the create response")
	}

	// The gateway's completion callback fires; the browser forwards it.
	confirm := ConfirmPaymentRequest{
		PaymentID:   "pay_123",
		OrderHandle: created.OrderHandle,
		Signature:   checkoutSignature(created.OrderHandle, "pay_123"),
		ListingID:   "listing-L",
		SellerID:    "seller-S",
		Price:       6000.00,
	}
	rec = postJSON(t, e, "/api/payments/confirm", confirm)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, body %s", rec.Code, rec.Body.String())
	}
	var confirmed ConfirmPaymentResponse
	json.Unmarshal(rec.Body.Bytes(), &confirmed)
	if confirmed.OrderID == 0 {
		t.Fatal("expected a fresh order id")
	}

	order, _ := store.FindByDerivedKey(context.Background(), "listing-L", testBuyer, "order_abc")
	if order == nil {
		t.Fatal("order not committed")
	}
	if order.Status != models.OrderStatusPending || order.SellerID != "seller-S" || order.PriceMinor != 600000 {
		t.Errorf("committed order = %+v", order)
	}

	// Second identical callback: same order id, no new row.
	rec = postJSON(t, e, "/api/payments/confirm", confirm)
	if rec.Code != http.StatusOK {
		t.Fatalf("re-delivered confirm status = %d, body %s", rec.Code, rec.Body.String())
	}
	var again ConfirmPaymentResponse
	json.Unmarshal(rec.Body.Bytes(), &again)
	if again.OrderID != confirmed.OrderID {
		t.Errorf("re-delivery returned order %d; want %d", again.OrderID, confirmed.OrderID)
	}
	if len(store.orders) != 1 {
		t.Errorf("store holds %d orders; want 1", len(store.orders))
	}
}

func TestConfirmPaymentEndpointTamperedSignature(t *testing.T) {
	e, store := newPaymentTestServer(t)

	rec := postJSON(t, e, "/api/payments/orders", CreatePaymentOrderRequest{
		ListingID: "listing-L",
		Amount:    6000.00,
		SellerID:  "seller-S",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create order status = %d", rec.Code)
	}

	rec = postJSON(t, e, "/api/payments/confirm", ConfirmPaymentRequest{
		PaymentID:   "pay_123",
		OrderHandle: "order_abc",
		Signature:   strings.Repeat("00", 32),
		ListingID:   "listing-L",
		SellerID:    "seller-S",
		Price:       6000.00,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("tampered signature status = %d; want 401", rec.Code)
	}
	if len(store.orders) != 0 {
		t.Errorf("store holds %d orders after rejected signature; want 0", len(store.orders))
	}
	// The precise cause stays server-side.
	if strings.Contains(rec.Body.String(), "signature mismatch") {
		t.Errorf("signature detail leaked to the client: %s", rec.Body.String())
	}
}

func TestCreatePaymentOrderEndpointValidation(t *testing.T) {
	e, _ := newPaymentTestServer(t)

	tests := []struct {
		name string
		req  CreatePaymentOrderRequest
	}{
		{name: "missing listing", req: CreatePaymentOrderRequest{Amount: 100, SellerID: "seller-S"}},
		{name: "zero amount", req: CreatePaymentOrderRequest{ListingID: "l", SellerID: "seller-S"}},
		{name: "self trade", req: CreatePaymentOrderRequest{ListingID: "l", Amount: 100, SellerID: testBuyer}},
		{name: "foreign buyer id", req: CreatePaymentOrderRequest{ListingID: "l", Amount: 100, BuyerID: "someone-else", SellerID: "seller-S"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, e, "/api/payments/orders", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d; want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}
