package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sanket-rajput/agritraceDep/internal/apperrors"
	"github.com/sanket-rajput/agritraceDep/internal/models"
)

// fakeOrderStore keeps orders in memory and enforces the derived-key
// uniqueness the real store gets from its partial unique index.
type fakeOrderStore struct {
	orders    map[string]*models.Order
	nextID    uint
	failWrite error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]*models.Order{}, nextID: 1}
}

func (f *fakeOrderStore) Insert(_ context.Context, order *models.Order) (uint, error) {
	if f.failWrite != nil {
		return 0, f.failWrite
	}
	key := models.DeriveKey(order.ListingID, order.BuyerID, order.OrderHandle)
	if existing, ok := f.orders[key]; ok && existing.Status != models.OrderStatusCancelled {
		return 0, apperrors.Conflict("an order for this payment already exists")
	}
	order.ID = f.nextID
	f.nextID++
	f.orders[key] = order
	return order.ID, nil
}

func (f *fakeOrderStore) FindByDerivedKey(_ context.Context, listingID, buyerID, orderHandle string) (*models.Order, error) {
	order, ok := f.orders[models.DeriveKey(listingID, buyerID, orderHandle)]
	if !ok || order.Status == models.OrderStatusCancelled {
		return nil, nil
	}
	return order, nil
}

type fakeGateway struct {
	orders map[string]*GatewayOrder
	err    error
	calls  int
}

func (f *fakeGateway) GetOrder(_ context.Context, orderHandle string) (*GatewayOrder, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	order, ok := f.orders[orderHandle]
	if !ok {
		return nil, apperrors.Gateway("order not found", nil)
	}
	return order, nil
}

const testSecret = "test_secret_key"

func testAssertion() PaymentCompletionAssertion {
	return PaymentCompletionAssertion{
		PaymentID:   "pay_123",
		OrderHandle: "order_abc",
		Signature:   signFor("order_abc", "pay_123", testSecret),
	}
}

func testExpected() ExpectedOrder {
	return ExpectedOrder{
		ListingID:  "listing-L",
		BuyerID:    "buyer-B",
		SellerID:   "seller-S",
		PriceMajor: 6000.00,
	}
}

func testGateway() *fakeGateway {
	return &fakeGateway{orders: map[string]*GatewayOrder{
		"order_abc": {OrderHandle: "order_abc", AmountMinor: 600000, Currency: "INR", Status: "paid"},
	}}
}

func TestConfirmPaymentCommitsOnce(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewReconciliationService(store, testGateway(), nil, testSecret)

	orderID, err := svc.ConfirmPayment(context.Background(), testAssertion(), testExpected())
	if err != nil {
		t.Fatalf("first confirm failed: %v", err)
	}
	if orderID == 0 {
		t.Fatal("expected a fresh order id")
	}

	order, _ := store.FindByDerivedKey(context.Background(), "listing-L", "buyer-B", "order_abc")
	if order == nil {
		t.Fatal("order not committed")
	}
	if order.Status != models.OrderStatusPending {
		t.Errorf("status = %s; want Pending", order.Status)
	}
	if order.PriceMinor != 600000 {
		t.Errorf("price minor = %d; want 600000", order.PriceMinor)
	}
	if order.SellerID != "seller-S" {
		t.Errorf("seller = %s; want seller-S", order.SellerID)
	}

	// Gateway callbacks are at-least-once: the second identical delivery must
	// return the same order id and write no new row.
	again, err := svc.ConfirmPayment(context.Background(), testAssertion(), testExpected())
	if err != nil {
		t.Fatalf("re-delivered confirm failed: %v", err)
	}
	if again != orderID {
		t.Errorf("re-delivery returned order %d; want %d", again, orderID)
	}
	if len(store.orders) != 1 {
		t.Errorf("store holds %d orders; want 1", len(store.orders))
	}
}

func TestConfirmPaymentTamperedSignature(t *testing.T) {
	store := newFakeOrderStore()
	gateway := testGateway()
	svc := NewReconciliationService(store, gateway, nil, testSecret)

	assertion := testAssertion()
	assertion.Signature = signFor("order_abc", "pay_123", "attacker_secret")

	_, err := svc.ConfirmPayment(context.Background(), assertion, testExpected())
	if !apperrors.IsKind(err, apperrors.KindAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Errorf("store holds %d orders after rejected signature; want 0", len(store.orders))
	}
	if gateway.calls != 0 {
		t.Errorf("gateway consulted %d times for a forged assertion; want 0", gateway.calls)
	}
}

func TestConfirmPaymentMissingFields(t *testing.T) {
	svc := NewReconciliationService(newFakeOrderStore(), testGateway(), nil, testSecret)

	tests := []struct {
		name   string
		mutate func(*PaymentCompletionAssertion, *ExpectedOrder)
	}{
		{name: "no payment id", mutate: func(a *PaymentCompletionAssertion, _ *ExpectedOrder) { a.PaymentID = "" }},
		{name: "no order handle", mutate: func(a *PaymentCompletionAssertion, _ *ExpectedOrder) { a.OrderHandle = "" }},
		{name: "no signature", mutate: func(a *PaymentCompletionAssertion, _ *ExpectedOrder) { a.Signature = "" }},
		{name: "no listing", mutate: func(_ *PaymentCompletionAssertion, e *ExpectedOrder) { e.ListingID = "" }},
		{name: "no buyer", mutate: func(_ *PaymentCompletionAssertion, e *ExpectedOrder) { e.BuyerID = "" }},
		{name: "zero price", mutate: func(_ *PaymentCompletionAssertion, e *ExpectedOrder) { e.PriceMajor = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertion := testAssertion()
			expected := testExpected()
			tt.mutate(&assertion, &expected)

			_, err := svc.ConfirmPayment(context.Background(), assertion, expected)
			if !apperrors.IsKind(err, apperrors.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestConfirmPaymentPriceMismatch(t *testing.T) {
	store := newFakeOrderStore()
	svc := NewReconciliationService(store, testGateway(), nil, testSecret)

	expected := testExpected()
	expected.PriceMajor = 5999.99 // client lies about the price

	_, err := svc.ConfirmPayment(context.Background(), testAssertion(), expected)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error for price mismatch, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Error("mismatched price must not commit an order")
	}
}

func TestConfirmPaymentPersistenceFailure(t *testing.T) {
	store := newFakeOrderStore()
	store.failWrite = apperrors.Persistence("order insert failed", errors.New("connection reset"))
	svc := NewReconciliationService(store, testGateway(), nil, testSecret)

	_, err := svc.ConfirmPayment(context.Background(), testAssertion(), testExpected())
	if !apperrors.IsKind(err, apperrors.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	// Persistence failure must stay distinguishable for operator tooling.
	if apperrors.IsKind(err, apperrors.KindValidation) || apperrors.IsKind(err, apperrors.KindAuthentication) {
		t.Error("persistence failure misclassified")
	}
}

func TestConfirmPaymentGatewayUnavailable(t *testing.T) {
	store := newFakeOrderStore()
	gateway := &fakeGateway{err: apperrors.Gateway("payment gateway unavailable", nil)}
	svc := NewReconciliationService(store, gateway, nil, testSecret)

	_, err := svc.ConfirmPayment(context.Background(), testAssertion(), testExpected())
	if !apperrors.IsKind(err, apperrors.KindGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if len(store.orders) != 0 {
		t.Error("no order may commit without the gateway price check")
	}
}
