package response

import (
	"time"

	"parking-reservation/internal/data/entity"
)

type FacilityResponse struct {
	ID        string                 `json:"id"`
	OwnerID   string                 `json:"owner_id"`
	Name      string                 `json:"name"`
	Address   string                 `json:"address"`
	Slots     []FacilitySlotResponse `json:"slots,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

type FacilitySlotResponse struct {
	VehicleClass entity.VehicleClass `json:"vehicle_class"`
	Capacity     int                 `json:"capacity"`
	Available    int                 `json:"available"`
	HourlyRate   int64               `json:"hourly_rate"`
}

func FacilityToResponse(facility *entity.Facility, slots []*entity.FacilitySlot) FacilityResponse {
	slotResponses := make([]FacilitySlotResponse, len(slots))
	for i, slot := range slots {
		slotResponses[i] = FacilitySlotResponse{
			VehicleClass: slot.VehicleClass,
			Capacity:     slot.Capacity,
			Available:    slot.Available,
			HourlyRate:   slot.HourlyRate,
		}
	}

	return FacilityResponse{
		ID:        facility.ID.String(),
		OwnerID:   facility.OwnerID.String(),
		Name:      facility.Name,
		Address:   facility.Address,
		Slots:     slotResponses,
		CreatedAt: facility.CreatedAt,
	}
}
