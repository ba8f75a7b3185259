package handlers

// CreatePaymentOrderRequest starts a checkout for a listing. Amount is in
// major currency units; the buyer is the authenticated user.
type CreatePaymentOrderRequest struct {
	ListingID string  `json:"listingId"`
	Amount    float64 `json:"amount"`
	BuyerID   string  `json:"buyerId,omitempty"`
	SellerID  string  `json:"sellerId"`
}

// CreatePaymentOrderResponse hands the browser what it needs to open the
// gateway checkout. Key is the publishable key only.
type CreatePaymentOrderResponse struct {
	OrderHandle      string `json:"orderHandle"`
	AmountMinorUnits int64  `json:"amountMinorUnits"`
	Currency         string `json:"currency"`
	PublishableKey   string `json:"publishableKey"`
}

// ConfirmPaymentRequest relays the gateway's completion callback values plus
// the expected order parameters for the server-side cross-check.
type ConfirmPaymentRequest struct {
	PaymentID   string  `json:"paymentId"`
	OrderHandle string  `json:"orderHandle"`
	Signature   string  `json:"signature"`
	ListingID   string  `json:"listingId"`
	BuyerID     string  `json:"buyerId,omitempty"`
	SellerID    string  `json:"sellerId"`
	Price       float64 `json:"price"`
}

// ConfirmPaymentResponse returns the committed order id, also on idempotent
// re-delivery.
type ConfirmPaymentResponse struct {
	OrderID uint `json:"orderId"`
}

// CreateListingRequest publishes crop waste for sale.
type CreateListingRequest struct {
	CropType    string  `json:"cropType"`
	Quantity    float64 `json:"quantity"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// CreateWasteReportRequest declares waste awaiting collection.
type CreateWasteReportRequest struct {
	FarmerName string  `json:"farmerName"`
	CropType   string  `json:"cropType"`
	Quantity   float64 `json:"quantity"`
	Location   string  `json:"location"`
}

// UpdateWasteReportStatusRequest moves a report along the collection lifecycle.
type UpdateWasteReportStatusRequest struct {
	Status          string `json:"status"`
	CollectionAgent string `json:"collectionAgent,omitempty"`
}
