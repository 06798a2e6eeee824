package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Terminal melaporkan apakah status tidak bisa berubah lagi.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

type Booking struct {
	Base
	UserID          uuid.UUID     `db:"user_id"`
	FacilityID      uuid.UUID     `db:"facility_id"`
	VehicleClass    VehicleClass  `db:"vehicle_class"`
	StartTime       time.Time     `db:"start_time"`
	DurationHours   int           `db:"duration_hours"`
	Cost            int64         `db:"cost"` // fixed at creation: rate * duration
	Status          BookingStatus `db:"status"`
	EntryToken      *string       `db:"entry_token"`
	ExitToken       *string       `db:"exit_token"`
	ActualEntryTime *time.Time    `db:"actual_entry_time"`
	ActualExitTime  *time.Time    `db:"actual_exit_time"`
	ElapsedHours    *int          `db:"elapsed_hours"`
	OvertimeCharge  int64         `db:"overtime_charge"`
}
