package models

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleInUse       VehicleStatus = "IN_USE"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
)

// Vehicle is one fleet unit as the backend reports it. Telemetry fields are
// refreshed by the backend; the console only displays them.
type Vehicle struct {
	ID                int           `json:"vehicleId"`
	Name              string        `json:"vehicleName"`
	Type              string        `json:"vehicleType"`
	Status            VehicleStatus `json:"status"`
	BatteryPercentage *int          `json:"batteryPercentage,omitempty"`
	FuelPercentage    *int          `json:"fuelPercentage,omitempty"`
	Latitude          *float64      `json:"currentLatitude,omitempty"`
	Longitude         *float64      `json:"currentLongitude,omitempty"`
	CreatedAt         int64         `json:"createdAt"`
}

// VehicleRequest is the body for creating or updating a vehicle.
type VehicleRequest struct {
	Name              string        `json:"vehicleName"`
	Type              string        `json:"vehicleType"`
	Status            VehicleStatus `json:"status,omitempty"`
	BatteryPercentage *int          `json:"batteryPercentage,omitempty"`
	FuelPercentage    *int          `json:"fuelPercentage,omitempty"`
}

// FleetSnapshot is one telemetry poll result pushed to live clients.
type FleetSnapshot struct {
	Type      string    `json:"type"`
	Vehicles  []Vehicle `json:"vehicles"`
	Timestamp string    `json:"timestamp"`
}
