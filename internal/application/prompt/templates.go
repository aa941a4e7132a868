package prompt

const templates = `
{{- define "restaurant" -}}
Restaurant: {{.Restaurant.Name}}
{{- with .Restaurant.Cuisine}}
Cuisine: {{.}}
{{- end}}
{{- with .Restaurant.PriceLevel}}
Price level: {{.}} of 4
{{- end}}
{{- with .Restaurant.Location}}
Location: {{.}}
{{- end}}
{{- end}}

{{- define "item" -}}
Menu item:
Name: {{.Name}}
{{- with .Description}}
Description: {{.}}
{{- end}}
{{- with .Category}}
Category: {{.}}
{{- end}}
Price: {{price .Price}}
{{- with .Ingredients}}
Ingredients: {{join . ", "}}
{{- end}}
{{- with .DietaryTags}}
Dietary tags: {{join . ", "}}
{{- end}}
{{- end}}

{{- define "insights" -}}
{{- with .Insights}}

Audience insights:
{{- range .}}
- {{.}}
{{- end}}
{{- end}}
{{- end}}

{{- define "optimize" -}}
{{template "restaurant" .}}

{{template "item" .Item}}
{{- template "insights" .}}
{{- with .Dishes}}

Specialty dishes at peer restaurants:
{{- range .}}
- {{.DishName}} (served by {{.RestaurantCount}} peers, popularity {{pct .Popularity}})
{{- end}}
{{- end}}
{{- with .TargetAudience}}

Target audience: {{.}}
{{- end}}
{{- with .Style}}
Writing style: {{.}}
{{- end}}

Rewrite the item's name and description so it appeals to this audience. Stay truthful to the ingredients and keep the description under 60 words.
Respond with only a JSON object of the form:
{"optimizedName": "...", "optimizedDescription": "...", "optimizationReason": "..."}
{{- end}}

{{- define "suggest" -}}
{{template "restaurant" .}}
{{- with .Existing}}
Current menu: {{join . ", "}}
{{- end}}
{{- template "insights" .}}
{{- with .Dish}}

Inspiration: {{.DishName}} is a specialty at {{.RestaurantCount}} peer restaurant(s) (popularity {{pct .Popularity}}).
{{- end}}
{{- with .Style}}
Writing style: {{.}}
{{- end}}
{{if .Dish}}
Suggest one new dish for this menu inspired by the specialty above. Do not repeat a current menu item.
Respond with only a JSON object of the form:
{"name": "...", "description": "...", "price": 0.0, "category": "...", "ingredients": ["..."], "dietaryTags": ["..."], "estimatedCost": 0.0}
{{- else}}
Suggest {{.Count}} new dishes for this menu that fit the audience above. Do not repeat a current menu item.
Respond with only a JSON object of the form:
{"suggestions": [{"name": "...", "description": "...", "price": 0.0, "category": "...", "ingredients": ["..."], "dietaryTags": ["..."], "estimatedCost": 0.0}]}
{{- end}}
{{- end}}

{{- define "taste" -}}
{{template "restaurant" .}}

{{template "item" .Item}}

Rate the dish on each taste dimension from 0 to 1 and list up to five short descriptive tags.
Respond with only a JSON object of the form:
{"tasteProfile": {"sweet": 0.0, "salty": 0.0, "sour": 0.0, "bitter": 0.0, "umami": 0.0, "spicy": 0.0}, "tags": ["..."]}
{{- end}}

{{- define "enhance" -}}
{{template "restaurant" .}}

{{template "item" .Item}}
{{- template "insights" .}}

Write an enhanced name and a richer description for this dish. Keep every claim supported by the listed ingredients.
Respond with only a JSON object of the form:
{"enhancedName": "...", "enhancedDescription": "..."}
{{- end}}
`
