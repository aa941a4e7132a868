package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/menusense/optimizer/internal/domain/analytics"
	"github.com/menusense/optimizer/internal/infrastructure/config"
	"github.com/menusense/optimizer/internal/infrastructure/container"
	"github.com/menusense/optimizer/internal/infrastructure/http/server"
	"github.com/menusense/optimizer/internal/ports/inbound"
	apperrors "github.com/menusense/optimizer/pkg/errors"
	"github.com/menusense/optimizer/test/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

const restaurantID = "demo-harbor-house"

// fakeOpenAI answers every chat completion with the same optimization.
func fakeOpenAI(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	content, err := json.Marshal(`{"optimizedName":"Harbor Chowder","optimizedDescription":"Creamy clam chowder in a sourdough bowl","optimizationReason":"Comfort food for 25-34 locals"}`)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":` + string(content) + `}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t    *testing.T
	base string
}

func (c *client) do(method, path, body string) *http.Response {
	c.t.Helper()
	var req *http.Request
	var err error
	if body == "" {
		req, err = http.NewRequest(method, c.base+path, nil)
	} else {
		req, err = http.NewRequest(method, c.base+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	require.NoError(c.t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func startAPI(t *testing.T, modelURL string) *client {
	t.Helper()
	var srv *server.Server

	app := fxtest.New(t,
		fx.Supply(container.ConfigPath("")),
		container.Core,
		container.HTTPModule,
		fx.Decorate(func(cfg *config.Config) *config.Config {
			cfg.Database.Driver = "sqlite"
			cfg.Database.Path = ""
			cfg.Database.Seed = true
			cfg.LLM.DefaultProvider = "openai"
			cfg.LLM.MaxRetries = 0
			cfg.LLM.APIKeys = map[string]string{"openai": "sk-test", "anthropic": "x", "google": "x"}
			cfg.LLM.BaseURLs = map[string]string{"openai": modelURL}
			return cfg
		}),
		fx.Populate(&srv),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	api := httptest.NewServer(srv.Handler())
	t.Cleanup(api.Close)
	return &client{t: t, base: api.URL}
}

func TestOptimizeReviewAndScore(t *testing.T) {
	var calls int32
	c := startAPI(t, fakeOpenAI(t, &calls).URL)
	check := testutils.NewHTTPAssertions(t)

	resp := c.do(http.MethodPost, "/api/v1/restaurants/"+restaurantID+"/optimizations",
		`{"selectedDemographics":{"selectedAgeGroups":["25-34"]},"batchSize":2}`)
	check.StatusCode(resp, http.StatusOK)
	check.SecurityHeaders(resp)
	var batch inbound.BatchResult
	check.Data(resp, &batch)
	assert.Equal(t, 3, batch.TotalItemsProcessed)
	assert.Equal(t, 3, batch.SuccessCount)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	resp = c.do(http.MethodGet, "/api/v1/restaurants/"+restaurantID+"/pending", "")
	check.StatusCode(resp, http.StatusOK)
	var pending struct {
		Optimizations []testutils.CandidateView `json:"optimizations"`
	}
	check.Data(resp, &pending)
	require.Len(t, pending.Optimizations, 3)
	for _, o := range pending.Optimizations {
		testutils.NewCandidateAssertions(t).Pending(o)
	}

	resp = c.do(http.MethodPost, "/api/v1/optimizations/demo-item-chowder/review", `{"decision":"approve"}`)
	check.StatusCode(resp, http.StatusOK)
	var review inbound.ReviewResult
	check.Data(resp, &review)
	assert.True(t, review.MenuItemUpdated)

	resp = c.do(http.MethodPost, "/api/v1/optimizations/demo-item-chowder/review", `{"decision":"reject"}`)
	check.StatusCode(resp, http.StatusConflict)
	check.ErrorCode(resp, apperrors.CodeAlreadyReviewed)

	resp = c.do(http.MethodGet, "/api/v1/restaurants/"+restaurantID+"/scores", "")
	check.StatusCode(resp, http.StatusOK)
	var metrics []analytics.Metrics
	check.Data(resp, &metrics)
	assert.Len(t, metrics, 3)
}

func TestUnknownRestaurant(t *testing.T) {
	var calls int32
	c := startAPI(t, fakeOpenAI(t, &calls).URL)

	resp := c.do(http.MethodGet, "/api/v1/restaurants/nowhere/pending", "")
	testutils.NewHTTPAssertions(t).StatusCode(resp, http.StatusNotFound)
	assert.Zero(t, atomic.LoadInt32(&calls))
}
