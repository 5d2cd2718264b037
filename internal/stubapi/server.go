// Package stubapi is an in-memory stand-in for the NeuroFleet REST backend.
// It honours the same boundary contract (bearer tokens, 401 on bad or
// expired credentials, the login payload) and is used for local runs and
// tests.
package stubapi

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"neurofleet-console/internal/models"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Server holds all backend state in memory.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	hashCost int

	mu            sync.RWMutex
	users         map[string]*models.User // by email
	vehicles      map[int]*models.Vehicle
	bookings      []models.Booking
	trips         []models.Trip
	nextVehicleID int
}

type Option func(*Server)

// WithTokenTTL changes how long issued tokens stay valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithHashCost sets the bcrypt cost used for stored passwords.
func WithHashCost(cost int) Option {
	return func(s *Server) { s.hashCost = cost }
}

func NewServer(secret string, opts ...Option) *Server {
	s := &Server{
		secret:        []byte(secret),
		tokenTTL:      24 * time.Hour,
		hashCost:      bcrypt.DefaultCost,
		users:         make(map[string]*models.User),
		vehicles:      make(map[int]*models.Vehicle),
		nextVehicleID: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router mounts every endpoint under /api.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", s.Ping)
		r.Post("/login", s.Login)
		r.Post("/register", s.Register)

		r.Group(func(r chi.Router) {
			r.Use(s.Auth)

			r.Get("/profile", s.GetProfile)
			r.Put("/profile", s.UpdateProfile)

			r.Get("/vehicles", s.ListVehicles)
			r.Get("/vehicles/master", s.ListVehicles)
			r.Post("/vehicles", s.CreateVehicle)
			r.Put("/vehicles/{id}", s.UpdateVehicle)
			r.Delete("/vehicles/{id}", s.DeleteVehicle)

			r.Get("/bookings/user/{userId}", s.UserBookings)
			r.Get("/driver/trips/history/{userId}", s.DriverTrips)

			r.With(s.RequireRole(1)).Get("/admin/dashboard", s.Dashboard("admin"))
			r.With(s.RequireRole(2)).Get("/manager/dashboard", s.Dashboard("manager"))
			r.With(s.RequireRole(3)).Get("/driver/dashboard", s.Dashboard("driver"))
			r.With(s.RequireRole(4)).Get("/customer/dashboard", s.Dashboard("customer"))
		})
	})
	return r
}

// AddUser stores a user with a hashed password and returns it.
func (s *Server) AddUser(email, password, name string, roleID int) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().Unix()
	u := &models.User{
		ID:        uuid.New().String(),
		Email:     email,
		Password:  string(hash),
		Name:      name,
		RoleID:    roleID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[email]; exists {
		return nil, fmt.Errorf("user %s already exists", email)
	}
	s.users[email] = u
	return u, nil
}

// Seed adds one account per role and a small fleet.
func (s *Server) Seed() error {
	accounts := []struct {
		email, password, name string
		role                  int
	}{
		{"admin@neurofleet.com", "admin1234", "Fleet Admin", 1},
		{"manager@neurofleet.com", "manager123", "Fleet Manager", 2},
		{"driver@neurofleet.com", "driver123", "Fleet Driver", 3},
		{"customer@neurofleet.com", "customer123", "Fleet Customer", 4},
	}
	for _, a := range accounts {
		u, err := s.AddUser(a.email, a.password, a.name, a.role)
		if err != nil {
			return err
		}
		log.Printf("🌱 Seeded %s (role %d, id %s)", a.email, a.role, u.ID)
	}

	battery := func(v int) *int { return &v }
	coord := func(v float64) *float64 { return &v }
	fleet := []models.Vehicle{
		{Name: "NF-Truck-01", Type: "Truck", Status: models.VehicleAvailable, FuelPercentage: battery(82), Latitude: coord(12.9716), Longitude: coord(77.5946)},
		{Name: "NF-Van-02", Type: "Van", Status: models.VehicleInUse, BatteryPercentage: battery(64), Latitude: coord(12.9352), Longitude: coord(77.6245)},
		{Name: "NF-Car-03", Type: "Car", Status: models.VehicleMaintenance, BatteryPercentage: battery(18), Latitude: coord(13.0358), Longitude: coord(77.5970)},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range fleet {
		v.ID = s.nextVehicleID
		v.CreatedAt = time.Now().Unix()
		s.nextVehicleID++
		vehicle := v
		s.vehicles[v.ID] = &vehicle
	}
	log.Printf("🌱 Seeded %d vehicles", len(fleet))
	return nil
}

func (s *Server) userByEmail(email string) (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	return u, ok
}

// AddBooking records a booking for a customer.
func (s *Server) AddBooking(b models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = len(s.bookings) + 1
	if b.CreatedAt == 0 {
		b.CreatedAt = time.Now().Unix()
	}
	s.bookings = append(s.bookings, b)
}

// AddTrip records a trip for a driver.
func (s *Server) AddTrip(t models.Trip) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = len(s.trips) + 1
	s.trips = append(s.trips, t)
}
