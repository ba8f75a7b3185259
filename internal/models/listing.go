package models

import (
	"time"

	"gorm.io/gorm"
)

// Listing is a marketplace listing of crop waste offered for recycling.
type Listing struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	SellerID    string  `gorm:"type:varchar(128);index" json:"seller_id"`
	SellerName  string  `gorm:"type:varchar(255)" json:"seller_name"`
	CropType    string  `gorm:"type:varchar(50)" json:"crop_type"`
	Quantity    float64 `json:"quantity"` // in tonnes
	Location    string  `gorm:"type:varchar(255)" json:"location"`
	Price       float64 `gorm:"type:decimal(15,2)" json:"price"` // major units
	Description string  `gorm:"type:text" json:"description"`
}
