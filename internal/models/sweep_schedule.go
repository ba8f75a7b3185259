package models

import (
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

// SweepSchedule drives the duplicate-order reconciliation sweep. One row per
// recurring sweep; the interval is an RRULE string so operators can tune the
// cadence without redeploying.
type SweepSchedule struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name              string     `gorm:"type:varchar(255)" json:"name"`
	RecurringInterval string     `gorm:"type:text" json:"recurring_interval"`
	LastRun           *time.Time `json:"last_run"`
	Due               time.Time  `gorm:"index" json:"due"`
	Enabled           bool       `gorm:"default:true" json:"enabled"`
}

// NextDue calculates the next due date after now from the RRULE interval.
func (s SweepSchedule) NextDue() time.Time {
	if s.RecurringInterval != "" {
		rule, err := rrule.StrToRRule(s.RecurringInterval)
		if err == nil {
			rule.DTStart(s.Due)
			next := rule.After(time.Now(), true)
			if !next.IsZero() {
				return next
			}
		}
	}
	// Fallback to current Due if parsing fails
	return s.Due
}
