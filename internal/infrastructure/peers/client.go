// Package peers talks to the peer-signal API, which returns nearby
// restaurants and the tags it has attached to them.
package peers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/menusense/optimizer/internal/domain/market"
	"github.com/menusense/optimizer/internal/domain/menu"
	"github.com/menusense/optimizer/internal/infrastructure/scheduler"
	"github.com/menusense/optimizer/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultCacheTTL = 6 * time.Hour
	DefaultTake     = 20

	// SpecialtyDishTag is the tag type that marks a signature dish.
	SpecialtyDishTag = "specialty_dish"

	searchPath  = "/v2/insights"
	cachePrefix = "peers:specialty:"
)

// ErrNoPeerQuery means the restaurant has neither a peer entity id nor a location.
var ErrNoPeerQuery = errors.New("restaurant has no peer entity id or location")

// Config configures the peer API client.
type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Query narrows a peer search.
type Query struct {
	EntityID  string
	Location  string
	Tag       string
	MinRating float64
	Take      int
}

// Entity is one peer restaurant.
type Entity struct {
	EntityID string           `json:"entity_id"`
	Name     string           `json:"name"`
	Tags     []market.PeerTag `json:"tags"`
}

type searchResponse struct {
	Results struct {
		Entities []Entity `json:"entities"`
	} `json:"results"`
}

// APIError is a non-2xx response from the peer API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("peer api: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client implements outbound.SpecialtyDishSource over the peer API.
type Client struct {
	cfg       Config
	http      *http.Client
	scheduler *scheduler.Scheduler
	cache     outbound.CacheRepository
	logger    *zap.Logger
}

var _ outbound.SpecialtyDishSource = (*Client)(nil)

// NewClient creates a client. Every request is queued on sched; cache may be nil.
func NewClient(cfg Config, sched *scheduler.Scheduler, cache outbound.CacheRepository, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		scheduler: sched,
		cache:     cache,
		logger:    logger.Named("peers"),
	}
}

// SearchPeers returns peer restaurants matching q.
func (c *Client) SearchPeers(ctx context.Context, q Query) ([]Entity, error) {
	endpoint, err := c.searchURL(q)
	if err != nil {
		return nil, err
	}

	var entities []Entity
	err = c.scheduler.Do(ctx, func(ctx context.Context) error {
		var err error
		entities, err = c.get(ctx, endpoint)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Peer search completed",
		zap.String("entity_id", q.EntityID),
		zap.String("location", q.Location),
		zap.Int("peers", len(entities)),
	)
	return entities, nil
}

// SpecialtyDishes merges the specialty-dish tags of up to take peers of
// restaurant. Results are cached per restaurant and take.
func (c *Client) SpecialtyDishes(ctx context.Context, restaurant *menu.Restaurant, take int) ([]market.SpecialtyDish, error) {
	if restaurant.PeerEntityID == "" && restaurant.Location == "" {
		return nil, ErrNoPeerQuery
	}
	if take <= 0 {
		take = DefaultTake
	}

	key := cachePrefix + restaurant.ID + ":" + strconv.Itoa(take)
	if dishes, ok := c.cached(ctx, key); ok {
		return dishes, nil
	}

	entities, err := c.SearchPeers(ctx, Query{
		EntityID: restaurant.PeerEntityID,
		Location: restaurant.Location,
		Tag:      restaurant.Cuisine,
		Take:     take,
	})
	if err != nil {
		return nil, err
	}

	index := market.NewDishIndex()
	for _, e := range entities {
		if e.EntityID != "" && e.EntityID == restaurant.PeerEntityID {
			continue
		}
		index.AddPeer(specialtyTags(e.Tags))
	}
	dishes := index.Dishes()

	c.store(ctx, key, dishes)
	c.logger.Info("Specialty dishes derived",
		zap.String("restaurant_id", restaurant.ID),
		zap.Int("peers", index.Peers()),
		zap.Int("dishes", len(dishes)),
	)
	return dishes, nil
}

func (c *Client) searchURL(q Query) (string, error) {
	base, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + searchPath)
	if err != nil {
		return "", fmt.Errorf("parse peer api url: %w", err)
	}

	params := url.Values{}
	params.Set("filter.type", "urn:entity:place")
	if q.EntityID != "" {
		params.Set("signal.interests.entities", q.EntityID)
	}
	if q.Location != "" {
		params.Set("filter.location.query", q.Location)
	}
	if q.Tag != "" {
		params.Set("filter.tags", q.Tag)
	}
	if q.MinRating > 0 {
		params.Set("filter.rating.min", strconv.FormatFloat(q.MinRating, 'f', -1, 64))
	}
	take := q.Take
	if take <= 0 {
		take = DefaultTake
	}
	params.Set("take", strconv.Itoa(take))

	base.RawQuery = params.Encode()
	return base.String(), nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]Entity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("peer api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 256 {
			msg = msg[:256]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: msg}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return parsed.Results.Entities, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]market.SpecialtyDish, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, outbound.ErrCacheMiss) {
			c.logger.Warn("Peer cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var dishes []market.SpecialtyDish
	if err := json.Unmarshal(data, &dishes); err != nil {
		c.logger.Warn("Discarding corrupt peer cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return dishes, true
}

func (c *Client) store(ctx context.Context, key string, dishes []market.SpecialtyDish) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(dishes)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Warn("Peer cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// specialtyTags keeps the tags that name a dish. Untyped tags are dishes; typed
// tags must carry specialty_dish as one of their colon-separated segments.
func specialtyTags(tags []market.PeerTag) []market.PeerTag {
	out := make([]market.PeerTag, 0, len(tags))
	for _, t := range tags {
		if isSpecialtyType(t.Type) {
			out = append(out, t)
		}
	}
	return out
}

func isSpecialtyType(typ string) bool {
	if typ == "" {
		return true
	}
	for _, seg := range strings.Split(typ, ":") {
		if seg == SpecialtyDishTag {
			return true
		}
	}
	return false
}
