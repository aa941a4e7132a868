package extract

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Placeholders for missing suggestion text.
const (
	PlaceholderName        = "Unnamed Dish"
	PlaceholderDescription = "Delicious dish"
)

// Optimization is a parsed rewrite of one menu item.
type Optimization struct {
	OptimizedName        string
	OptimizedDescription string
	OptimizationReason   string
}

// Suggestion is a parsed new-dish record with a valid price.
type Suggestion struct {
	Name          string
	Description   string
	Price         float64
	Category      string
	Ingredients   []string
	DietaryTags   []string
	EstimatedCost *float64
}

// TasteProfile is a parsed flavour profile.
type TasteProfile struct {
	Profile map[string]float64
	Tags    []string
}

// Enhancement is a parsed enhanced name and description.
type Enhancement struct {
	EnhancedName        string
	EnhancedDescription string
}

// ParseOptimization reads an optimization object. Missing name or
// description fall back to the given originals; a response carrying neither
// is unusable.
func ParseOptimization(raw string, fallback Optimization) (Optimization, bool) {
	obj, ok := firstObject(raw)
	if !ok {
		return Optimization{}, false
	}

	name := stringField(obj, "optimizedName", "optimized_name", "name")
	desc := stringField(obj, "optimizedDescription", "optimized_description", "description")
	if name == "" && desc == "" {
		return Optimization{}, false
	}

	out := Optimization{
		OptimizedName:        name,
		OptimizedDescription: desc,
		OptimizationReason:   stringField(obj, "optimizationReason", "optimization_reason", "reason"),
	}
	if out.OptimizedName == "" {
		out.OptimizedName = fallback.OptimizedName
	}
	if out.OptimizedDescription == "" {
		out.OptimizedDescription = fallback.OptimizedDescription
	}
	return out, true
}

// ParseSuggestions reads {"suggestions":[...]}, a bare array, or a single
// object. Records whose price is missing, negative or not finite are dropped.
func ParseSuggestions(raw string) []Suggestion {
	doc, ok := FirstJSON(raw)
	if !ok {
		return []Suggestion{}
	}

	var value any
	if err := json.Unmarshal([]byte(doc), &value); err != nil {
		return []Suggestion{}
	}

	var records []any
	switch v := value.(type) {
	case []any:
		records = v
	case map[string]any:
		if list, ok := v["suggestions"].([]any); ok {
			records = list
		} else {
			records = []any{v}
		}
	}

	out := make([]Suggestion, 0, len(records))
	for _, r := range records {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		price, ok := Price(obj["price"])
		if !ok {
			continue
		}
		s := Suggestion{
			Name:        orDefault(stringField(obj, "name", "dishName"), PlaceholderName),
			Description: orDefault(stringField(obj, "description"), PlaceholderDescription),
			Price:       price,
			Category:    stringField(obj, "category"),
			Ingredients: stringList(obj["ingredients"]),
			DietaryTags: stringList(firstPresent(obj, "dietaryTags", "dietary_tags")),
		}
		if cost, ok := Price(firstPresent(obj, "estimatedCost", "estimated_cost")); ok {
			s.EstimatedCost = &cost
		}
		out = append(out, s)
	}
	return out
}

// ParseTasteProfile reads {"tasteProfile": {...}, "tags": [...]}. Scores
// that are not numbers are skipped.
func ParseTasteProfile(raw string) (TasteProfile, bool) {
	obj, ok := firstObject(raw)
	if !ok {
		return TasteProfile{}, false
	}
	profileObj, ok := firstPresent(obj, "tasteProfile", "taste_profile").(map[string]any)
	if !ok {
		return TasteProfile{}, false
	}

	profile := make(map[string]float64, len(profileObj))
	for k, v := range profileObj {
		if score, ok := number(v); ok {
			profile[k] = score
		}
	}
	if len(profile) == 0 {
		return TasteProfile{}, false
	}
	return TasteProfile{Profile: profile, Tags: stringList(obj["tags"])}, true
}

// ParseEnhancement reads an enhanced name/description pair. A description is
// required.
func ParseEnhancement(raw string) (Enhancement, bool) {
	obj, ok := firstObject(raw)
	if !ok {
		return Enhancement{}, false
	}
	out := Enhancement{
		EnhancedName:        stringField(obj, "enhancedName", "enhanced_name", "name"),
		EnhancedDescription: stringField(obj, "enhancedDescription", "enhanced_description", "description"),
	}
	if out.EnhancedDescription == "" {
		return Enhancement{}, false
	}
	return out, true
}

// Price coerces a JSON number or numeric string ("$12.50", "1,200") into a
// finite, non-negative amount.
func Price(v any) (float64, bool) {
	p, ok := number(v)
	if !ok || p < 0 {
		return 0, false
	}
	return p, true
}

func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func firstObject(raw string) (map[string]any, bool) {
	doc, ok := FirstJSON(raw)
	if !ok {
		return nil, false
	}
	var value any
	if err := json.Unmarshal([]byte(doc), &value); err != nil {
		return nil, false
	}
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case []any:
		if len(v) > 0 {
			obj, ok := v[0].(map[string]any)
			return obj, ok
		}
	}
	return nil, false
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
