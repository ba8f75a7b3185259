package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the settlement state of a marketplace order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// Order is the durable settlement record, written only after a gateway payment
// callback has been verified. The partial unique index on DerivedKey is the
// idempotency guard: at most one non-cancelled order may exist per
// (listing, buyer, gateway order handle).
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ListingID   string `gorm:"type:varchar(100);index" json:"listing_id"`
	BuyerID     string `gorm:"type:varchar(128);index" json:"buyer_id"`
	SellerID    string `gorm:"type:varchar(128);index" json:"seller_id"`
	OrderHandle string `gorm:"type:varchar(100)" json:"order_handle"`

	// DerivedKey is listingID:buyerID:orderHandle, maintained by BeforeCreate.
	DerivedKey string `gorm:"type:varchar(330);uniqueIndex:idx_orders_derived_key,where:status <> 'Cancelled'" json:"-"`

	// PriceMinor is the settled amount in minor currency units (paise).
	PriceMinor int64       `json:"price_minor"`
	Currency   string      `gorm:"type:varchar(10)" json:"currency"`
	PaymentID  string      `gorm:"type:varchar(100)" json:"payment_id"`
	Status     OrderStatus `gorm:"type:varchar(20);index" json:"status"`
}

// DeriveKey builds the idempotency key for an order commit.
func DeriveKey(listingID, buyerID, orderHandle string) string {
	return fmt.Sprintf("%s:%s:%s", listingID, buyerID, orderHandle)
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.DerivedKey == "" {
		o.DerivedKey = DeriveKey(o.ListingID, o.BuyerID, o.OrderHandle)
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}
