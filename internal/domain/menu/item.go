package menu

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/menusense/optimizer/internal/domain/shared"
)

// EnhancementStatus tracks the review state of a proposed enhanced name and description.
type EnhancementStatus string

const (
	EnhancementNone     EnhancementStatus = ""
	EnhancementPending  EnhancementStatus = "pending"
	EnhancementApproved EnhancementStatus = "approved"
	EnhancementRejected EnhancementStatus = "rejected"
)

// MenuItem is a dish on a restaurant's live menu. Name and description change
// only through an approved optimization; items are never hard deleted.
type MenuItem struct {
	shared.AggregateRoot

	ID                  string             `json:"itemId"`
	RestaurantID        string             `json:"restaurantId"`
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	EnhancedName        string             `json:"enhancedName,omitempty"`
	EnhancedDescription string             `json:"enhancedDescription,omitempty"`
	EnhancementStatus   EnhancementStatus  `json:"enhancementStatus,omitempty"`
	Price               float64            `json:"price"`
	Category            string             `json:"category"`
	Ingredients         []string           `json:"ingredients"`
	DietaryTags         []string           `json:"dietaryTags"`
	IsActive            bool               `json:"isActive"`
	IsAIGenerated       bool               `json:"isAiGenerated"`
	TasteProfile        map[string]float64 `json:"tasteProfile,omitempty"`
	GeneratedTags       []string           `json:"generatedTags,omitempty"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// ValidPrice reports whether p is a usable menu price.
func ValidPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0
}

// NewMenuItem creates an active, human-authored menu item.
func NewMenuItem(restaurantID, name, description string, price float64, category string) (*MenuItem, error) {
	if strings.TrimSpace(restaurantID) == "" {
		return nil, ErrEmptyRestaurantID
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if !ValidPrice(price) {
		return nil, ErrInvalidPrice
	}

	now := time.Now().UTC()
	return &MenuItem{
		ID:           uuid.NewString(),
		RestaurantID: restaurantID,
		Name:         name,
		Description:  description,
		Price:        price,
		Category:     category,
		Ingredients:  []string{},
		DietaryTags:  []string{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewGeneratedItem creates the live menu item for an approved suggestion.
func NewGeneratedItem(restaurantID, name, description string, price float64, category string, ingredients, dietaryTags []string) (*MenuItem, error) {
	item, err := NewMenuItem(restaurantID, name, description, price, category)
	if err != nil {
		return nil, err
	}
	item.IsAIGenerated = true
	item.Ingredients = append([]string{}, ingredients...)
	item.DietaryTags = dedupe(dietaryTags)

	item.AddEvent(MenuItemCreatedEvent{
		ItemID:       item.ID,
		RestaurantID: restaurantID,
		Name:         name,
		Generated:    true,
		CreatedAt:    item.CreatedAt,
	})
	return item, nil
}

// ApplyOptimization overwrites the canonical name and description with an
// approved optimization and settles any pending enhancement as approved.
func (m *MenuItem) ApplyOptimization(name, description string) {
	now := time.Now().UTC()
	oldName := m.Name

	m.Name = name
	m.Description = description
	if m.EnhancementStatus == EnhancementPending {
		m.EnhancementStatus = EnhancementApproved
	}
	m.UpdatedAt = now

	m.AddEvent(MenuItemRewrittenEvent{
		ItemID:    m.ID,
		OldName:   oldName,
		NewName:   name,
		UpdatedAt: now,
	})
}

// ProposeEnhancement stores a model-generated name and description pending review.
func (m *MenuItem) ProposeEnhancement(name, description string) {
	m.EnhancedName = name
	m.EnhancedDescription = description
	m.EnhancementStatus = EnhancementPending
	m.UpdatedAt = time.Now().UTC()
}

// ApproveEnhancement accepts the pending enhancement.
func (m *MenuItem) ApproveEnhancement() error {
	if m.EnhancementStatus != EnhancementPending {
		return ErrNoPendingEnhancement
	}
	m.EnhancementStatus = EnhancementApproved
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// RejectEnhancement discards the pending enhancement. The proposed text is
// kept for audit.
func (m *MenuItem) RejectEnhancement() error {
	if m.EnhancementStatus != EnhancementPending {
		return ErrNoPendingEnhancement
	}
	m.EnhancementStatus = EnhancementRejected
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// HasApprovedEnhancement reports whether an approved enhanced description exists.
func (m *MenuItem) HasApprovedEnhancement() bool {
	return m.EnhancementStatus == EnhancementApproved && strings.TrimSpace(m.EnhancedDescription) != ""
}

// DisplayDescription is the description guests see.
func (m *MenuItem) DisplayDescription() string {
	if m.HasApprovedEnhancement() {
		return m.EnhancedDescription
	}
	return m.Description
}

// SetTasteProfile replaces the taste profile and generated tags. Scores are
// clamped into [0,1].
func (m *MenuItem) SetTasteProfile(profile map[string]float64, tags []string) {
	clean := make(map[string]float64, len(profile))
	for k, v := range profile {
		if math.IsNaN(v) {
			continue
		}
		clean[strings.ToLower(strings.TrimSpace(k))] = math.Max(0, math.Min(1, v))
	}
	m.TasteProfile = clean
	m.GeneratedTags = dedupe(tags)
	m.UpdatedAt = time.Now().UTC()
}

// Deactivate soft-deletes the item.
func (m *MenuItem) Deactivate() {
	m.IsActive = false
	m.UpdatedAt = time.Now().UTC()
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
