package main

import (
	"log"
	"net/http"

	"neurofleet-console/internal/config"
	"neurofleet-console/internal/stubapi"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🧪 NEUROFLEET STUB BACKEND STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	cfg := config.LoadStub()

	srv := stubapi.NewServer(cfg.JWTSecret)
	log.Println("🌱 Seeding accounts and fleet...")
	if err := srv.Seed(); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("✅ Seed data loaded")

	log.Printf("🚀 Stub backend on http://localhost:%s/api", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, srv.Router()); err != nil {
		log.Fatal(err)
	}
}
