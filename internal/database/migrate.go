package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// RunMigrations creates or updates the meals table
func RunMigrations(db *gorm.DB) error {
	log.Printf("Running auto-migration on %s", db.Dialector.Name())
	if err := db.AutoMigrate(&models.MealRecord{}); err != nil {
		return fmt.Errorf("failed to migrate meals: %w", err)
	}
	return nil
}

// DropMeals removes the meals table if it exists
func DropMeals(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&models.MealRecord{}); err != nil {
		return fmt.Errorf("failed to drop meals: %w", err)
	}
	return nil
}
