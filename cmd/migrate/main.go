package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"neurofleet-console/internal/config"
	"neurofleet-console/internal/session"
)

func main() {
	prune := flag.Bool("prune", false, "delete sessions idle longer than SESSION_IDLE_TTL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Session.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := session.ConnectPostgres(cfg.Session.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Executing session migrations")
	if err := session.MigratePostgres(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migration completed successfully!")

	var pruned int64
	if *prune {
		pruned, err = session.PruneIdlePostgres(db, cfg.Session.IdleTTL)
		if err != nil {
			log.Fatalf("Prune failed: %v", err)
		}
	}

	stats, err := session.StatsPostgres(db, cfg.Session.IdleTTL)
	if err != nil {
		log.Fatalf("Failed to query summary: %v", err)
	}

	fmt.Println("\n============================================================")
	fmt.Println("SESSION STORE SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Sessions:                %d\n", stats.Sessions)
	fmt.Printf("Stored keys:             %d\n", stats.Rows)
	fmt.Printf("Idle > %-17s %d\n", cfg.Session.IdleTTL.Round(time.Hour).String()+":", stats.Idle)
	if *prune {
		fmt.Printf("Rows pruned:             %d\n", pruned)
	}
	fmt.Println("============================================================")
}
