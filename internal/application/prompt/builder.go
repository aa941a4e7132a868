// Package prompt renders deterministic model prompts from menu data. Empty
// optional fields are left out of the rendered text entirely.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
)

// SystemPrompt is sent with every request.
const SystemPrompt = "You are a menu strategist for independent restaurants. " +
	"You write appetising, truthful menu copy and you answer with JSON only."

// Prompt is a rendered system/user pair.
type Prompt struct {
	System string
	User   string
}

// OptimizationInput feeds BuildOptimization.
type OptimizationInput struct {
	Restaurant      *menu.Restaurant
	Item            *menu.MenuItem
	Insights        []string
	SpecialtyDishes []market.SpecialtyDish
	Style           string
	TargetAudience  string
	CuisineOverride string
}

// SuggestionInput feeds BuildSuggestion. When Dish is set a single dish
// inspired by it is requested; otherwise Count dishes are requested.
type SuggestionInput struct {
	Restaurant    *menu.Restaurant
	Insights      []string
	Dish          *market.SpecialtyDish
	Count         int
	ExistingItems []string
	Style         string
}

// ItemInput feeds BuildTasteProfile and BuildEnhancement.
type ItemInput struct {
	Restaurant *menu.Restaurant
	Item       *menu.MenuItem
	Insights   []string
}

type restaurantView struct {
	Name       string
	Cuisine    string
	PriceLevel int
	Location   string
}

type view struct {
	Restaurant     restaurantView
	Item           *menu.MenuItem
	Insights       []string
	Dishes         []market.SpecialtyDish
	Dish           *market.SpecialtyDish
	Count          int
	Existing       []string
	Style          string
	TargetAudience string
}

// Builder holds the parsed templates. It is safe for concurrent use.
type Builder struct {
	tmpl *template.Template
}

// NewBuilder parses the prompt templates.
func NewBuilder() *Builder {
	funcs := template.FuncMap{
		"join":  strings.Join,
		"price": func(p float64) string { return fmt.Sprintf("$%.2f", p) },
		"pct":   func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	}
	return &Builder{tmpl: template.Must(template.New("prompts").Funcs(funcs).Parse(templates))}
}

// BuildOptimization asks for a rewritten name and description of one item.
func (b *Builder) BuildOptimization(in OptimizationInput) (Prompt, error) {
	v := view{
		Restaurant:     restaurant(in.Restaurant, in.CuisineOverride),
		Item:           in.Item,
		Insights:       in.Insights,
		Dishes:         in.SpecialtyDishes,
		Style:          strings.TrimSpace(in.Style),
		TargetAudience: strings.TrimSpace(in.TargetAudience),
	}
	if v.TargetAudience == "" && in.Restaurant != nil {
		v.TargetAudience = in.Restaurant.TargetAudience
	}
	return b.render("optimize", v)
}

// BuildSuggestion asks for new dishes.
func (b *Builder) BuildSuggestion(in SuggestionInput) (Prompt, error) {
	count := in.Count
	if count <= 0 {
		count = 1
	}
	return b.render("suggest", view{
		Restaurant: restaurant(in.Restaurant, ""),
		Insights:   in.Insights,
		Dish:       in.Dish,
		Count:      count,
		Existing:   in.ExistingItems,
		Style:      strings.TrimSpace(in.Style),
	})
}

// BuildTasteProfile asks for a flavour profile and descriptive tags.
func (b *Builder) BuildTasteProfile(in ItemInput) (Prompt, error) {
	return b.render("taste", view{Restaurant: restaurant(in.Restaurant, ""), Item: in.Item})
}

// BuildEnhancement asks for an enhanced name and description kept alongside the original.
func (b *Builder) BuildEnhancement(in ItemInput) (Prompt, error) {
	return b.render("enhance", view{Restaurant: restaurant(in.Restaurant, ""), Item: in.Item, Insights: in.Insights})
}

func (b *Builder) render(name string, v view) (Prompt, error) {
	if name != "suggest" && v.Item == nil {
		return Prompt{}, fmt.Errorf("prompt %s: menu item is required", name)
	}
	var buf bytes.Buffer
	if err := b.tmpl.ExecuteTemplate(&buf, name, v); err != nil {
		return Prompt{}, fmt.Errorf("render prompt %s: %w", name, err)
	}
	return Prompt{System: SystemPrompt, User: strings.TrimSpace(buf.String())}, nil
}

func restaurant(r *menu.Restaurant, cuisineOverride string) restaurantView {
	if r == nil {
		return restaurantView{}
	}
	cuisine := strings.TrimSpace(cuisineOverride)
	if cuisine == "" {
		cuisine = r.Cuisine
	}
	level := 0
	if r.PriceLevel.Valid() {
		level = int(r.PriceLevel)
	}
	return restaurantView{Name: r.Name, Cuisine: cuisine, PriceLevel: level, Location: r.Location}
}
