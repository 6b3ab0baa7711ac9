package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/bankrank/backend/internal/api/handlers"
	"github.com/wonny/bankrank/backend/internal/api/middleware"
	"github.com/wonny/bankrank/backend/internal/contracts"
	"github.com/wonny/bankrank/backend/internal/ranking"
	"github.com/wonny/bankrank/backend/pkg/config"
	"github.com/wonny/bankrank/backend/pkg/logger"
)

type stubSource struct{}

func (stubSource) ListPeriods(ctx context.Context) ([]contracts.Period, error) {
	return []contracts.Period{{Code: "2024Q4", BankCount: 1}}, nil
}

func (stubSource) LoadPeriod(ctx context.Context, period string) ([]contracts.RawBank, error) {
	if period != "2024Q4" {
		return nil, contracts.ErrPeriodNotFound
	}
	bank := contracts.RawBank{}
	bank.SetString(contracts.FieldName, "Bank A")
	for _, f := range contracts.RequiredFields() {
		bank.SetNumber(f, 1)
	}
	return []contracts.RawBank{bank}, nil
}

func newTestRouter(t *testing.T, source contracts.RatioSource, perMinute int) (http.Handler, *prometheus.Registry) {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics()
	require.NoError(t, metrics.Register(reg))

	log := logger.NewNop()
	engine := ranking.NewEngine(log)

	router := NewRouter(RouterDeps{
		Ranking:  handlers.NewRankingHandler(engine, source, metrics, log),
		Health:   handlers.NewHealthHandler(),
		Limiter:  middleware.NewRateLimit("calculate", perMinute, nil, metrics, log),
		Metrics:  metrics,
		Gatherer: reg,
		CORS:     middleware.DefaultCORSConfig([]string{"*"}),
		Logger:   log,
	})
	return router, reg
}

func calculateBody() string {
	bank := contracts.RawBank{}
	bank.SetString(contracts.FieldName, "Bank A")
	for _, f := range contracts.RequiredFields() {
		bank.SetNumber(f, 2.5)
	}
	body, _ := json.Marshal([]contracts.RawBank{bank})
	return string(body)
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t, nil, 100)

	rec := serve(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"bankrank-api"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_Calculate(t *testing.T) {
	router, _ := newTestRouter(t, nil, 100)

	rec := serve(router, http.MethodPost, "/calculate", calculateBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[{"name":"Bank A","ldr":2.5,"total_points":11,"rank":1}]`, rec.Body.String())

	rec = serve(router, http.MethodPost, "/calculate", `{"not":"a list"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request format. Expected a list."}`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/calculate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_CalculateRateLimited(t *testing.T) {
	router, _ := newTestRouter(t, nil, 1)

	first := serve(router, http.MethodPost, "/calculate", calculateBody())
	second := serve(router, http.MethodPost, "/calculate", calculateBody())

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, second.Body.String())
}

func TestRouter_Preflight(t *testing.T) {
	router, _ := newTestRouter(t, nil, 100)

	req := httptest.NewRequest(http.MethodOptions, "/calculate", nil)
	req.Header.Set("Origin", "http://ui.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_PeriodRoutes(t *testing.T) {
	t.Run("without source", func(t *testing.T) {
		router, _ := newTestRouter(t, nil, 100)
		assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/periods", "").Code)
	})

	t.Run("with source", func(t *testing.T) {
		router, _ := newTestRouter(t, stubSource{}, 100)

		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/periods", "").Code)

		rec := serve(router, http.MethodGet, "/api/rankings/2024Q4", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"rank":1`)

		assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/rankings/1999Q1", "").Code)
	})
}

func TestRouter_Metrics(t *testing.T) {
	router, _ := newTestRouter(t, nil, 100)

	serve(router, http.MethodPost, "/calculate", calculateBody())
	serve(router, http.MethodPost, "/calculate", "[]")

	rec := serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, middleware.MetricRankingBatches+`{result="ok"} 1`)
	assert.Contains(t, body, middleware.MetricRankingBatches+`{result="invalid_request"} 1`)
	assert.Contains(t, body, `route="/calculate"`)
}

func TestRouter_UI(t *testing.T) {
	router, _ := newTestRouter(t, nil, 100)

	rec := serve(router, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="bank-form"`)

	rec = serve(router, http.MethodGet, "/static/script.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `fetch('/calculate'`)
	assert.Contains(t, rec.Body.String(), `'npl_gross'`)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := &config.Config{Port: "0", Env: "development"}
	router, _ := newTestRouter(t, nil, 100)
	server := New(cfg, logger.NewNop(), router)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- server.Run(ctx, ln) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/health", ln.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "bankrank-api")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}

	_, err = http.Get(fmt.Sprintf("http://%s/health", ln.Addr()))
	assert.Error(t, err)
}

func TestServer_RunReportsServeError(t *testing.T) {
	server := New(&config.Config{Port: "0"}, nil, http.NotFoundHandler())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, ln.Close())

	err = server.Run(context.Background(), ln)
	assert.Error(t, err)
}

func TestServer_Listen(t *testing.T) {
	server := New(&config.Config{Port: "0"}, nil, http.NotFoundHandler())

	ln, err := server.Listen()
	require.NoError(t, err)
	defer ln.Close()
	assert.NotEmpty(t, ln.Addr().String())
}

func TestRouter_UnknownPathIsNotFound(t *testing.T) {
	router, _ := newTestRouter(t, stubSource{}, 100)

	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/nope", "").Code)
}

func TestRouter_SameOriginUIWithAllowlist(t *testing.T) {
	log := logger.NewNop()
	router := NewRouter(RouterDeps{
		Ranking: handlers.NewRankingHandler(ranking.NewEngine(log), nil, nil, log),
		Health:  handlers.NewHealthHandler(),
		CORS:    middleware.DefaultCORSConfig([]string{"https://partner.example"}),
		Logger:  log,
	})

	post := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "http://bank.local:5000/calculate", strings.NewReader(calculateBody()))
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// The page served at / posts with its own origin
	rec := post("http://bank.local:5000")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"rank":1`)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = post("https://partner.example")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://partner.example", rec.Header().Get("Access-Control-Allow-Origin"))

	// Unlisted origins are served without CORS headers; the browser withholds the body
	rec = post("https://evil.example")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
