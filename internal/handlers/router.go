package handlers

import (
	"net/http"
	"time"

	"neurofleet-console/internal/access"
	"neurofleet-console/internal/gateway"
	"neurofleet-console/internal/session"
	"neurofleet-console/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options wires the console router.
type Options struct {
	API               *gateway.Client
	Sessions          session.Provider
	Hub               *websocket.Hub
	TelemetryInterval time.Duration
	AllowedOrigins    []string
}

// NewRouter builds every console route. Guards run on each request and
// only read the session store.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: !(len(origins) == 1 && origins[0] == "*"),
		MaxAge:           300,
	}))

	r.Use(access.OpenStore(opts.Sessions))

	// Public
	r.Get("/health", Health())
	r.Get("/ping", Ping(opts.API))
	r.Get("/", Home())
	r.Get(access.LoginPath, LoginPage())
	r.Post(access.LoginPath, Login(opts.API))
	r.Get("/register", RegisterPage())
	r.Post("/register", Register(opts.API))

	var streams StreamCloser
	if opts.Hub != nil {
		streams = opts.Hub
	}
	r.Post("/logout", Logout(opts.API, streams))

	// Signed in
	r.Group(func(r chi.Router) {
		r.Use(access.RequireAuthenticated(opts.Sessions))

		r.Get("/profile", GetProfile(opts.API))
		r.Put("/profile", UpdateProfile(opts.API))

		r.Get("/vehicles", ListVehicles(opts.API))
		r.Post("/vehicles", CreateVehicle(opts.API))
		r.Put("/vehicles/{id}", UpdateVehicle(opts.API))
		r.Delete("/vehicles/{id}", DeleteVehicle(opts.API))

		if opts.Hub != nil {
			r.Get("/ws/telemetry", websocket.HandleTelemetry(opts.Hub, opts.API, opts.TelemetryInterval))
		}
	})

	// Role scoped, one guard per entry of the route table
	for path, role := range map[string]access.Role{
		access.AdminDashboardPath:    access.Admin,
		access.ManagerDashboardPath:  access.Manager,
		access.DriverDashboardPath:   access.Driver,
		access.CustomerDashboardPath: access.Customer,
	} {
		r.With(access.RequireRoute(opts.Sessions, path)).Get(path, Dashboard(opts.API, role))
	}

	// Anything else shows the login page
	r.NotFound(LoginPage())

	return r
}
