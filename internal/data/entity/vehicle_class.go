package entity

type VehicleClass string

const (
	VehicleClassCar        VehicleClass = "car"
	VehicleClassMotorcycle VehicleClass = "motorcycle"
)

func (v VehicleClass) Valid() bool {
	return v == VehicleClassCar || v == VehicleClassMotorcycle
}
