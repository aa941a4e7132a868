package outbound

import (
	"context"

	"github.com/menusense/optimizer/internal/domain/llm"
	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
)

// LanguageModel is one configured provider/model pair.
type LanguageModel interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
	Provider() llm.Provider
	Model() string
}

// LanguageModelFactory hands out cached LanguageModel clients.
type LanguageModelFactory interface {
	CreateClient(ctx context.Context) (LanguageModel, error)
	CreateClientWithProvider(ctx context.Context, provider llm.Provider, model string) (LanguageModel, error)
}

// SecretStore resolves named secrets, decrypted.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SpecialtyDishSource derives specialty dishes from peer restaurants.
type SpecialtyDishSource interface {
	SpecialtyDishes(ctx context.Context, restaurant *menu.Restaurant, take int) ([]market.SpecialtyDish, error)
}
