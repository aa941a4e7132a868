package peers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/infrastructure/persistence/memory"
	"github.com/menusense/optimizer/internal/infrastructure/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const peersJSON = `{"results":{"entities":[
	{"entity_id":"self","name":"Harbor House","tags":[{"tag_id":"t:cioppino","name":"Cioppino","type":"urn:tag:specialty_dish","weight":1}]},
	{"entity_id":"p1","name":"Dockside","tags":[
		{"tag_id":"t:cioppino","name":"Cioppino","type":"urn:tag:specialty_dish","weight":0.8},
		{"tag_id":"t:chowder","name":"Clam Chowder","type":"specialty_dish","weight":0.6},
		{"tag_id":"t:patio","name":"Patio","type":"urn:tag:amenity","weight":0.9}]},
	{"entity_id":"p2","name":"Pier 9","tags":[
		{"tag_id":"t:cioppino","name":"Cioppino","type":"specialty_dish","weight":0.4}]}
]}}`

func newTestClient(t *testing.T, url string) (*Client, *memory.CacheRepository) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sched := scheduler.New(0, nil, logger)
	t.Cleanup(sched.Close)
	cache := memory.NewCacheRepository(0)
	t.Cleanup(cache.Close)
	return NewClient(Config{BaseURL: url, APIKey: "peer-key"}, sched, cache, logger), cache
}

func TestSpecialtyDishesMergesPeerTags(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/insights", r.URL.Path)
		assert.Equal(t, "peer-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "self", r.URL.Query().Get("signal.interests.entities"))
		assert.Equal(t, "Monterey", r.URL.Query().Get("filter.location.query"))
		assert.Equal(t, "15", r.URL.Query().Get("take"))
		_, _ = w.Write([]byte(peersJSON))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	restaurant := &menu.Restaurant{ID: "r1", Name: "Harbor House", PeerEntityID: "self", Location: "Monterey"}

	dishes, err := client.SpecialtyDishes(context.Background(), restaurant, 15)
	require.NoError(t, err)
	require.Len(t, dishes, 2)

	cioppino := dishes[0]
	assert.Equal(t, "Cioppino", cioppino.DishName)
	assert.Equal(t, 2, cioppino.RestaurantCount)
	assert.InDelta(t, 0.6, cioppino.Weight, 1e-9)
	assert.InDelta(t, cioppino.TotalWeight/float64(cioppino.RestaurantCount), cioppino.Weight, 1e-9)
	assert.InDelta(t, 1.0, cioppino.Popularity, 1e-9)

	chowder := dishes[1]
	assert.Equal(t, "Clam Chowder", chowder.DishName)
	assert.InDelta(t, 0.5, chowder.Popularity, 1e-9)

	// second lookup is served from the cache
	again, err := client.SpecialtyDishes(context.Background(), restaurant, 15)
	require.NoError(t, err)
	assert.Equal(t, dishes, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSpecialtyDishesAcceptsUntypedAndSegmentedTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"entities":[
			{"entity_id":"p1","name":"Dockside","tags":[{"tag_id":"t:c","name":"Cioppino","weight":0.8}]},
			{"entity_id":"p2","name":"Pier 9","tags":[
				{"tag_id":"t:c","name":"Cioppino","weight":0.4},
				{"tag_id":"t:s","name":"Sand Dabs","type":"urn:tag:specialty_dish:place","weight":0.5},
				{"tag_id":"t:patio","name":"Patio","type":"urn:tag:amenity:place","weight":0.9}]}
		]}}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	dishes, err := client.SpecialtyDishes(context.Background(), &menu.Restaurant{ID: "r1", Location: "Monterey"}, 5)
	require.NoError(t, err)
	require.Len(t, dishes, 2)

	assert.Equal(t, "Cioppino", dishes[0].DishName)
	assert.Equal(t, 2, dishes[0].RestaurantCount)
	assert.InDelta(t, 0.6, dishes[0].Weight, 1e-9)
	assert.Equal(t, "Sand Dabs", dishes[1].DishName)
}

func TestIsSpecialtyType(t *testing.T) {
	tests := []struct {
		typ  string
		want bool
	}{
		{"", true},
		{"specialty_dish", true},
		{"urn:tag:specialty_dish", true},
		{"urn:tag:specialty_dish:place", true},
		{"urn:tag:amenity", false},
		{"urn:tag:not_specialty_dish", false},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.want, isSpecialtyType(tt.typ))
		})
	}
}

func TestSpecialtyDishesRequiresQuery(t *testing.T) {
	client, _ := newTestClient(t, "http://unused.invalid")
	_, err := client.SpecialtyDishes(context.Background(), &menu.Restaurant{ID: "r1"}, 5)
	assert.ErrorIs(t, err, ErrNoPeerQuery)
}

func TestSearchPeersSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("bad key"))
	}))
	defer srv.Close()

	client, cache := newTestClient(t, srv.URL)
	_, err := client.SpecialtyDishes(context.Background(), &menu.Restaurant{ID: "r1", Location: "Austin"}, 5)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "bad key", apiErr.Body)

	exists, err := cache.Exists(context.Background(), "peers:specialty:r1:5")
	require.NoError(t, err)
	assert.False(t, exists, "failures are not cached")
}

func TestSearchPeersQueryParameters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "urn:entity:place", q.Get("filter.type"))
		assert.Equal(t, "ramen", q.Get("filter.tags"))
		assert.Equal(t, "4.5", q.Get("filter.rating.min"))
		assert.Equal(t, "20", q.Get("take"))
		assert.Empty(t, q.Get("signal.interests.entities"))
		_, _ = w.Write([]byte(`{"results":{"entities":[{"entity_id":"a","name":"A","tags":[]}]}}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL)
	entities, err := client.SearchPeers(context.Background(), Query{Location: "Tokyo", Tag: "ramen", MinRating: 4.5})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "A", entities[0].Name)
}
