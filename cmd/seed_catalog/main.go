package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/platefeed/backend/config"
	"github.com/platefeed/backend/internal/database"
	"github.com/platefeed/backend/internal/models"
)

// defaultTags mirrors the tags the frontend filters by out of the box.
var defaultTags = []models.Tag{
	{Name: "Breakfast", Slug: "breakfast", Color: "#E26C2D"},
	{Name: "Lunch", Slug: "lunch", Color: "#49B64E"},
	{Name: "Dinner", Slug: "dinner", Color: "#8775D2"},
}

func main() {
	ingredientsPath := flag.String("ingredients", "data/ingredients.csv", "CSV file with name,measurement_unit rows")
	flag.Parse()

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

	if err := seedTags(db); err != nil {
		log.Fatalf("Failed to seed tags: %v", err)
	}

	count, err := seedIngredients(db, *ingredientsPath)
	if err != nil {
		log.Fatalf("Failed to seed ingredients: %v", err)
	}
	log.Printf("Seeded %d tags and %d ingredients", len(defaultTags), count)
}

func seedTags(db *gorm.DB) error {
	for _, tag := range defaultTags {
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoNothing: true,
		}).Create(&tag).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func seedIngredients(db *gorm.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	count := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		if len(record) != 2 {
			return count, fmt.Errorf("expected name,measurement_unit row, got %v", record)
		}

		ing := models.Ingredient{Name: record[0], MeasurementUnit: record[1]}
		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "measurement_unit"}},
			DoNothing: true,
		}).Create(&ing).Error
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
