package postgres

import (
	"context"
	"testing"

	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/domain/optimization"
	"github.com/menusense/optimizer/internal/infrastructure/config"
	gormrepo "github.com/menusense/optimizer/internal/infrastructure/persistence/gorm"
	"github.com/menusense/optimizer/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConnectAndMigrate(t *testing.T) {
	cfg := testutils.SetupTestDatabase(t)
	ctx := context.Background()

	db, err := Connect(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	items := gormrepo.NewMenuItemRepository(db)
	item, err := menu.NewMenuItem("r1", "Cioppino", "Tomato seafood stew", 28, "mains")
	require.NoError(t, err)
	require.NoError(t, items.Create(ctx, item))

	suggestions := gormrepo.NewSuggestionRepository(db)
	s, err := optimization.NewMenuItemSuggestion(optimization.SuggestionDraft{RestaurantID: "r1", Name: "Crab Louie", Price: 24})
	require.NoError(t, err)
	require.NoError(t, suggestions.Save(ctx, s))
	require.NoError(t, s.Approve())

	// two reviewers race for the same pending suggestion
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			errs <- suggestions.UpdateReview(ctx, s.ID, optimization.StatusPending, s.Review(), item.ID)
		}()
	}
	var won, lost int
	for i := 0; i < 2; i++ {
		if err := <-errs; err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, optimization.ErrStatusConflict)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)
}

func TestReplicaDialectors(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "primary", Port: 5432, Database: "menusense"}
	assert.Empty(t, replicaDialectors(cfg))

	cfg.ReadReplicas = []string{"replica-a", "replica-b"}
	assert.Len(t, replicaDialectors(cfg), 2)
}
