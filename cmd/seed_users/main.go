package main

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"

	"github.com/platefeed/backend/config"
	"github.com/platefeed/backend/internal/database"
	"github.com/platefeed/backend/internal/models"
)

func main() {
	password := os.Getenv("SEED_USER_PASSWORD")
	if password == "" {
		password = "testpassword123"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	demoUsers := []models.User{
		{Email: "john.doe@example.com", Username: "johndoe", FirstName: "John", LastName: "Doe"},
		{Email: "jane.smith@example.com", Username: "janesmith", FirstName: "Jane", LastName: "Smith"},
		{Email: "bob.wilson@example.com", Username: "bobwilson", FirstName: "Bob", LastName: "Wilson"},
	}
	for _, user := range demoUsers {
		user.PasswordHash = string(hash)
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).Create(&user).Error
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", user.Email, err)
		}
	}
	log.Printf("Seeded %d demo users", len(demoUsers))
}
