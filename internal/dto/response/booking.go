package response

import (
	"time"

	"parking-reservation/internal/data/entity"
)

type BookingResponse struct {
	ID              string               `json:"id"`
	UserID          string               `json:"user_id"`
	FacilityID      string               `json:"facility_id"`
	FacilityName    string               `json:"facility_name,omitempty"`
	VehicleClass    entity.VehicleClass  `json:"vehicle_class"`
	StartTime       time.Time            `json:"start_time"`
	DurationHours   int                  `json:"duration_hours"`
	Cost            int64                `json:"cost"`
	Status          entity.BookingStatus `json:"status"`
	ActualEntryTime *time.Time           `json:"actual_entry_time,omitempty"`
	ActualExitTime  *time.Time           `json:"actual_exit_time,omitempty"`
	ElapsedHours    *int                 `json:"elapsed_hours,omitempty"`
	OvertimeCharge  int64                `json:"overtime_charge"`
	CreatedAt       time.Time            `json:"created_at"`
}

type EntryTokenResponse struct {
	BookingID  string `json:"booking_id"`
	EntryToken string `json:"entry_token"`
}

type ScanEntryResponse struct {
	Booking   BookingResponse `json:"booking"`
	ExitToken string          `json:"exit_token"`
}

type ScanExitResponse struct {
	Booking        BookingResponse `json:"booking"`
	ElapsedHours   int             `json:"elapsed_hours"`
	OvertimeCharge int64           `json:"overtime_charge"`
}

func BookingToResponse(booking *entity.Booking, facilityName string) BookingResponse {
	return BookingResponse{
		ID:              booking.ID.String(),
		UserID:          booking.UserID.String(),
		FacilityID:      booking.FacilityID.String(),
		FacilityName:    facilityName,
		VehicleClass:    booking.VehicleClass,
		StartTime:       booking.StartTime,
		DurationHours:   booking.DurationHours,
		Cost:            booking.Cost,
		Status:          booking.Status,
		ActualEntryTime: booking.ActualEntryTime,
		ActualExitTime:  booking.ActualExitTime,
		ElapsedHours:    booking.ElapsedHours,
		OvertimeCharge:  booking.OvertimeCharge,
		CreatedAt:       booking.CreatedAt,
	}
}
