package main

import (
	"flag"
	"log"

	"github.com/pageza/nutrilog/backend/config"
	"github.com/pageza/nutrilog/backend/internal/database"
)

func main() {
	drop := flag.Bool("drop", false, "Drop the meals table before migrating")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.StoreDriver == config.StoreFirestore {
		log.Fatal("Firestore collections need no migration")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to get database handle: %v", err)
	}
	defer sqlDB.Close()

	if *drop {
		if err := database.DropMeals(db); err != nil {
			log.Fatalf("failed to drop meals: %v", err)
		}
		log.Println("Dropped meals table")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	log.Println("All migrations applied successfully.")
}
