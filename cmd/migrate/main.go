package main

import (
	"flag"
	"log"

	"github.com/taogeht/reading-practice-app-sub000/internal/config"
	"github.com/taogeht/reading-practice-app-sub000/internal/db"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg := config.Load()
	if err := db.Migrate(cfg.DatabaseURL, *direction); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Printf("migrations applied (%s)", *direction)
}
