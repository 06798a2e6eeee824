package request

type CreateBookingRequest struct {
	FacilityID    string `json:"facility_id" validate:"required,uuid4"`
	VehicleClass  string `json:"vehicle_class" validate:"required,oneof=car motorcycle"`
	StartTime     string `json:"start_time" validate:"required"` // RFC3339
	DurationHours int    `json:"duration_hours" validate:"required,min=1"`
}

type ScanRequest struct {
	Token string `json:"token" validate:"required"`
}
