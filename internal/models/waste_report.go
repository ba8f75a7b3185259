package models

import (
	"time"

	"gorm.io/gorm"
)

// WasteReportStatus follows the collection lifecycle of a report
type WasteReportStatus string

const (
	WasteReportStatusReported   WasteReportStatus = "Reported"
	WasteReportStatusCollected  WasteReportStatus = "Collected"
	WasteReportStatusInTransit  WasteReportStatus = "In-Transit"
	WasteReportStatusReceived   WasteReportStatus = "Received"
	WasteReportStatusProcessing WasteReportStatus = "Processing"
	WasteReportStatusCompleted  WasteReportStatus = "Completed"
)

// WasteReport is a farmer's declaration of crop waste awaiting collection.
type WasteReport struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FarmerID   string  `gorm:"type:varchar(128);index" json:"farmer_id"`
	FarmerName string  `gorm:"type:varchar(255)" json:"farmer_name"`
	CropType   string  `gorm:"type:varchar(50)" json:"crop_type"`
	Quantity   float64 `json:"quantity"` // in tonnes
	Location   string  `gorm:"type:varchar(255)" json:"location"`

	Status            WasteReportStatus `gorm:"type:varchar(20);index" json:"status"`
	CollectionAgent   string            `gorm:"type:varchar(255)" json:"collection_agent"`
	CollectionAgentID string            `gorm:"type:varchar(128)" json:"collection_agent_id"`
}
