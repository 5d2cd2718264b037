package stubapi

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"neurofleet-console/internal/models"
	"neurofleet-console/pkg/utils"

	"github.com/go-chi/chi/v5"
)

func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	user, ok := s.userByEmail(claims.Email)
	if !ok {
		utils.Error(w, http.StatusNotFound, "Profile not found")
		return
	}
	s.mu.RLock()
	profile := user.ToProfileResponse()
	s.mu.RUnlock()
	utils.JSON(w, http.StatusOK, profile)
}

func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFrom(r)
	var req models.ProfileResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, ok := s.userByEmail(claims.Email)
	if !ok {
		utils.Error(w, http.StatusNotFound, "Profile not found")
		return
	}

	s.mu.Lock()
	user.Name = req.Name
	user.Phone = req.Phone
	user.Address = req.Address
	user.UpdatedAt = time.Now().Unix()
	s.mu.Unlock()

	utils.JSON(w, http.StatusOK, map[string]string{"message": "Profile updated successfully", "status": "success"})
}

func (s *Server) ListVehicles(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	vehicles := make([]models.Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		vehicles = append(vehicles, *v)
	}
	s.mu.RUnlock()

	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })
	utils.JSON(w, http.StatusOK, vehicles)
}

func decodeVehicle(r *http.Request) (models.VehicleRequest, string) {
	var req models.VehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, "Invalid request body"
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Type) == "" {
		return req, "vehicleName and vehicleType are required"
	}
	if req.Status == "" {
		req.Status = models.VehicleAvailable
	}
	return req, ""
}

func (s *Server) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	req, msg := decodeVehicle(r)
	if msg != "" {
		utils.Error(w, http.StatusBadRequest, msg)
		return
	}

	s.mu.Lock()
	v := &models.Vehicle{
		ID:                s.nextVehicleID,
		Name:              req.Name,
		Type:              req.Type,
		Status:            req.Status,
		BatteryPercentage: req.BatteryPercentage,
		FuelPercentage:    req.FuelPercentage,
		CreatedAt:         time.Now().Unix(),
	}
	s.vehicles[v.ID] = v
	s.nextVehicleID++
	created := *v
	s.mu.Unlock()

	utils.JSON(w, http.StatusCreated, created)
}

func vehicleID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil
}

func (s *Server) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := vehicleID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid vehicle id")
		return
	}
	req, msg := decodeVehicle(r)
	if msg != "" {
		utils.Error(w, http.StatusBadRequest, msg)
		return
	}

	s.mu.Lock()
	v, exists := s.vehicles[id]
	if exists {
		v.Name = req.Name
		v.Type = req.Type
		v.Status = req.Status
		v.BatteryPercentage = req.BatteryPercentage
		v.FuelPercentage = req.FuelPercentage
	}
	var updated models.Vehicle
	if exists {
		updated = *v
	}
	s.mu.Unlock()

	if !exists {
		utils.Error(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	utils.JSON(w, http.StatusOK, updated)
}

func (s *Server) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, ok := vehicleID(r)
	if !ok {
		utils.Error(w, http.StatusBadRequest, "Invalid vehicle id")
		return
	}

	s.mu.Lock()
	_, exists := s.vehicles[id]
	delete(s.vehicles, id)
	s.mu.Unlock()

	if !exists {
		utils.Error(w, http.StatusNotFound, "Vehicle not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) UserBookings(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	s.mu.RLock()
	bookings := []models.Booking{}
	for _, b := range s.bookings {
		if b.UserID == userID {
			bookings = append(bookings, b)
		}
	}
	s.mu.RUnlock()

	utils.JSON(w, http.StatusOK, bookings)
}

func (s *Server) DriverTrips(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	s.mu.RLock()
	trips := []models.Trip{}
	for _, t := range s.trips {
		if t.DriverID == userID {
			trips = append(trips, t)
		}
	}
	s.mu.RUnlock()

	utils.JSON(w, http.StatusOK, trips)
}

// Dashboard returns headline counters for a role's dashboard.
func (s *Server) Dashboard(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		counters := map[string]int{
			"vehicles": len(s.vehicles),
			"bookings": len(s.bookings),
			"trips":    len(s.trips),
		}
		for _, v := range s.vehicles {
			counters[strings.ToLower(string(v.Status))]++
		}
		if role == "admin" {
			counters["users"] = len(s.users)
		}
		s.mu.RUnlock()

		utils.JSON(w, http.StatusOK, models.DashboardSummary{Role: role, Counters: counters})
	}
}
