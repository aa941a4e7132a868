// Package gorm provides GORM model definitions and repositories for the
// menu pipeline
package gorm

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/menusense/optimizer/internal/domain/market"
)

// RestaurantModel represents the GORM model for restaurants
type RestaurantModel struct {
	ID             string `gorm:"type:varchar(64);primaryKey"`
	Name           string `gorm:"type:varchar(255);not null"`
	Cuisine        string `gorm:"type:varchar(100)"`
	PriceLevel     int    `gorm:"default:2"`
	Location       string `gorm:"type:varchar(255)"`
	PeerEntityID   string `gorm:"type:varchar(255)"`
	TargetAudience string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MenuItemModel represents the GORM model for live menu items
type MenuItemModel struct {
	ID                  string      `gorm:"type:varchar(64);primaryKey"`
	RestaurantID        string      `gorm:"type:varchar(64);not null;index"`
	Name                string      `gorm:"type:varchar(255);not null"`
	Description         string      `gorm:"type:text"`
	EnhancedName        string      `gorm:"type:varchar(255)"`
	EnhancedDescription string      `gorm:"type:text"`
	EnhancementStatus   string      `gorm:"type:varchar(20);index"`
	Price               float64     `gorm:"not null;default:0"`
	Category            string      `gorm:"type:varchar(100);index"`
	Ingredients         StringSlice `gorm:"type:json"`
	DietaryTags         StringSlice `gorm:"type:json"`
	IsActive            bool        `gorm:"default:true;index"`
	IsAIGenerated       bool        `gorm:"column:is_ai_generated;default:false"`
	TasteProfile        FloatMap    `gorm:"type:json"`
	GeneratedTags       StringSlice `gorm:"type:json"`
	CreatedAt           time.Time   `gorm:"index"`
	UpdatedAt           time.Time
}

// OptimizedItemModel represents one optimization candidate, keyed by menu item
type OptimizedItemModel struct {
	ItemID               string      `gorm:"type:varchar(64);primaryKey"`
	RestaurantID         string      `gorm:"type:varchar(64);not null;index"`
	OriginalName         string      `gorm:"type:varchar(255)"`
	OriginalDescription  string      `gorm:"type:text"`
	OptimizedName        string      `gorm:"type:varchar(255);not null"`
	OptimizedDescription string      `gorm:"type:text"`
	OptimizationReason   string      `gorm:"type:text"`
	DemographicInsights  StringSlice `gorm:"type:json"`
	Status               string      `gorm:"type:varchar(20);not null;default:'pending';index"`
	Feedback             string      `gorm:"type:text"`
	ReviewedAt           *time.Time
	CreatedAt            time.Time `gorm:"index"`
	UpdatedAt            time.Time
}

// SuggestionModel represents a new-dish suggestion
type SuggestionModel struct {
	ID                   string      `gorm:"type:varchar(64);primaryKey"`
	RestaurantID         string      `gorm:"type:varchar(64);not null;index"`
	Name                 string      `gorm:"type:varchar(255);not null"`
	Description          string      `gorm:"type:text"`
	Price                float64     `gorm:"default:0"`
	Category             string      `gorm:"type:varchar(100)"`
	Ingredients          StringSlice `gorm:"type:json"`
	DietaryTags          StringSlice `gorm:"type:json"`
	InspirationSource    string      `gorm:"type:varchar(50)"`
	BasedOnSpecialtyDish string      `gorm:"type:varchar(255)"`
	EstimatedCost        *float64
	Status               string `gorm:"type:varchar(20);not null;default:'pending';index"`
	Feedback             string `gorm:"type:text"`
	CreatedMenuItemID    string `gorm:"type:varchar(64)"`
	ReviewedAt           *time.Time
	CreatedAt            time.Time `gorm:"index"`
	UpdatedAt            time.Time
}

// DemographicsModel stores the latest demographic snapshot of a restaurant
type DemographicsModel struct {
	RestaurantID   string      `gorm:"type:varchar(64);primaryKey"`
	AgeGroups      SegmentList `gorm:"type:json"`
	GenderGroups   SegmentList `gorm:"type:json"`
	Interests      StringSlice `gorm:"type:json"`
	DiningPatterns PatternList `gorm:"type:json"`
	CollectedAt    time.Time
}

// MetricsModel stores the latest computed scores of a menu item
type MetricsModel struct {
	ItemID              string  `gorm:"type:varchar(64);primaryKey"`
	RestaurantID        string  `gorm:"type:varchar(64);not null;index"`
	PopularityScore     float64 `gorm:"default:0"`
	ProfitabilityScore  float64 `gorm:"default:0"`
	RecommendationScore float64 `gorm:"default:0;index"`
	CalculatedAt        time.Time
}

// Models lists every model for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&RestaurantModel{},
		&MenuItemModel{},
		&OptimizedItemModel{},
		&SuggestionModel{},
		&DemographicsModel{},
		&MetricsModel{},
	}
}

// StringSlice custom type for handling string arrays in JSON
type StringSlice []string

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	return scanJSON(value, s, "StringSlice")
}

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	return jsonValue(s)
}

// FloatMap holds a taste profile
type FloatMap map[string]float64

// Scan implements the sql.Scanner interface
func (m *FloatMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	return scanJSON(value, m, "FloatMap")
}

// Value implements the driver.Valuer interface
func (m FloatMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	return jsonValue(m)
}

// SegmentList holds demographic buckets
type SegmentList []market.Segment

// Scan implements the sql.Scanner interface
func (l *SegmentList) Scan(value interface{}) error {
	if value == nil {
		*l = SegmentList{}
		return nil
	}
	return scanJSON(value, l, "SegmentList")
}

// Value implements the driver.Valuer interface
func (l SegmentList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return jsonValue(l)
}

// PatternList holds dining patterns
type PatternList []market.DiningPattern

// Scan implements the sql.Scanner interface
func (l *PatternList) Scan(value interface{}) error {
	if value == nil {
		*l = PatternList{}
		return nil
	}
	return scanJSON(value, l, "PatternList")
}

// Value implements the driver.Valuer interface
func (l PatternList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	return jsonValue(l)
}

func scanJSON(value interface{}, dst interface{}, name string) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %s", value, name)
	}
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// TableName methods for custom table names
func (RestaurantModel) TableName() string {
	return "restaurants"
}

func (MenuItemModel) TableName() string {
	return "menu_items"
}

func (OptimizedItemModel) TableName() string {
	return "optimized_menu_items"
}

func (SuggestionModel) TableName() string {
	return "menu_item_suggestions"
}

func (DemographicsModel) TableName() string {
	return "demographics"
}

func (MetricsModel) TableName() string {
	return "analytics_metrics"
}
