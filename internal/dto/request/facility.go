package request

type CreateFacilityRequest struct {
	Name    string                `json:"name" validate:"required,min=3,max=100"`
	Address string                `json:"address" validate:"required"`
	Slots   []FacilitySlotRequest `json:"slots" validate:"required,min=1,max=2,dive"`
}

type FacilitySlotRequest struct {
	VehicleClass string `json:"vehicle_class" validate:"required,oneof=car motorcycle"`
	Capacity     int    `json:"capacity" validate:"required,min=1"`
	HourlyRate   int64  `json:"hourly_rate" validate:"required,min=1000"`
}
