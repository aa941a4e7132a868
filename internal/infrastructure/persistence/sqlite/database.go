// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"
	"time"

	gormModels "github.com/menusense/optimizer/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SetupDatabase creates and configures the SQLite database
func SetupDatabase(dbPath string, log *zap.Logger, logLevel string) (*gorm.DB, error) {
	// Use in-memory database if no path provided
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         gormModels.NewLogger(log, logLevel, 200*time.Millisecond),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if dbPath == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		// every pooled connection would open its own empty database
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(gormModels.Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// SeedDatabase populates the database with a demo restaurant, its menu and a
// demographic snapshot
func SeedDatabase(db *gorm.DB) error {
	// Check if data already exists
	var count int64
	if err := db.Model(&gormModels.RestaurantModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count restaurants: %w", err)
	}
	if count > 0 {
		return nil // Already seeded
	}

	now := time.Now().UTC()
	restaurant := gormModels.RestaurantModel{
		ID:             "demo-harbor-house",
		Name:           "Harbor House",
		Cuisine:        "seafood",
		PriceLevel:     3,
		Location:       "Monterey, CA",
		TargetAudience: "Locals and weekend visitors looking for coastal comfort food",
	}

	items := []gormModels.MenuItemModel{
		{
			ID:           "demo-item-chowder",
			RestaurantID: restaurant.ID,
			Name:         "Clam Chowder",
			Description:  "Creamy chowder with potatoes and bacon",
			Price:        12,
			Category:     "starters",
			Ingredients:  gormModels.StringSlice{"clams", "potatoes", "bacon", "cream"},
			IsActive:     true,
			CreatedAt:    now,
		},
		{
			ID:           "demo-item-fish",
			RestaurantID: restaurant.ID,
			Name:         "Fish of the Day",
			Description:  "Grilled catch with seasonal vegetables",
			Price:        29,
			Category:     "mains",
			Ingredients:  gormModels.StringSlice{"white fish", "lemon", "seasonal vegetables"},
			DietaryTags:  gormModels.StringSlice{"gluten-free"},
			IsActive:     true,
			CreatedAt:    now.Add(time.Second),
		},
		{
			ID:           "demo-item-tart",
			RestaurantID: restaurant.ID,
			Name:         "Lemon Tart",
			Description:  "Shortcrust tart with lemon curd",
			Price:        9,
			Category:     "desserts",
			Ingredients:  gormModels.StringSlice{"lemon", "butter", "flour", "eggs"},
			DietaryTags:  gormModels.StringSlice{"vegetarian"},
			IsActive:     true,
			CreatedAt:    now.Add(2 * time.Second),
		},
	}

	demographics := gormModels.DemographicsModel{
		RestaurantID: restaurant.ID,
		AgeGroups: gormModels.SegmentList{
			{Label: "25-34", Percentage: 38, Preferences: []string{"poke", "fish tacos", "natural wine"}},
			{Label: "35-44", Percentage: 27, Preferences: []string{"oysters", "chowder"}},
		},
		GenderGroups: gormModels.SegmentList{
			{Label: "female", Percentage: 52, Preferences: []string{"salads", "crudo"}},
			{Label: "male", Percentage: 48, Preferences: []string{"fried fish", "burgers"}},
		},
		Interests: gormModels.StringSlice{"sustainability", "local sourcing", "craft beer"},
		DiningPatterns: gormModels.PatternList{
			{Pattern: "weekend brunch", Frequency: 0.35, TimeOfDay: []string{"morning", "midday"}},
			{Pattern: "after-work dinner", Frequency: 0.45, TimeOfDay: []string{"evening"}},
		},
		CollectedAt: now,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&restaurant).Error; err != nil {
			return fmt.Errorf("failed to seed restaurant: %w", err)
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to seed menu items: %w", err)
		}
		if err := tx.Create(&demographics).Error; err != nil {
			return fmt.Errorf("failed to seed demographics: %w", err)
		}
		return nil
	})
}
