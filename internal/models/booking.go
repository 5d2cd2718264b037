package models

type Booking struct {
	ID          int    `json:"id"`
	UserID      string `json:"userId"`
	VehicleID   int    `json:"vehicleId"`
	PickupPoint string `json:"pickupLocation"`
	DropPoint   string `json:"dropLocation"`
	Status      string `json:"status"` // PENDING, APPROVED, COMPLETED
	CreatedAt   int64  `json:"createdAt"`
}

type Trip struct {
	ID        int     `json:"id"`
	DriverID  string  `json:"driverId"`
	VehicleID int     `json:"vehicleId"`
	Distance  float64 `json:"distanceKm"`
	Status    string  `json:"status"`
	StartedAt int64   `json:"startedAt"`
	EndedAt   *int64  `json:"endedAt,omitempty"`
}

// DashboardSummary is the headline numbers a dashboard shows.
type DashboardSummary struct {
	Role     string         `json:"role"`
	Counters map[string]int `json:"counters"`
}
