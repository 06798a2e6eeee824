package entity

import (
	"time"

	"github.com/google/uuid"
)

type Facility struct {
	Base
	OwnerID uuid.UUID `db:"owner_id"`
	Name    string    `db:"name"`
	Address string    `db:"address"`
}

// FacilitySlot adalah counter inventory per facility per vehicle class.
// Invariant: 0 <= Available <= Capacity, dijaga lewat guarded update
// di repository, bukan di application code.
type FacilitySlot struct {
	FacilityID   uuid.UUID    `db:"facility_id"`
	VehicleClass VehicleClass `db:"vehicle_class"`
	Capacity     int          `db:"capacity"`
	Available    int          `db:"available"`
	HourlyRate   int64        `db:"hourly_rate"`
	UpdatedAt    time.Time    `db:"updated_at"`
}
