package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/wonny/bankrank/backend/internal/api"
	"github.com/wonny/bankrank/backend/internal/api/handlers"
	"github.com/wonny/bankrank/backend/internal/api/middleware"
	"github.com/wonny/bankrank/backend/internal/ranking"
	"github.com/wonny/bankrank/backend/internal/source"
	"github.com/wonny/bankrank/backend/pkg/database"
	"github.com/wonny/bankrank/backend/pkg/logger"
	"github.com/wonny/bankrank/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 은행 순위 계산 엔드포인트 제공
- 입력 UI 제공
- DATABASE_URL 설정 시 공시 기간별 순위 제공

Endpoints:
  GET  /                       - 입력 UI
  POST /calculate              - 순위 계산
  GET  /health                 - Health check
  GET  /metrics                - Prometheus (METRICS_ENABLED)
  GET  /api/periods            - 공시 기간 목록 (DATABASE_URL)
  GET  /api/rankings/{period}  - 기간별 순위 (DATABASE_URL)

Example:
  go run ./cmd/bankrank api
  go run ./cmd/bankrank api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Bank Ranking API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Redis (cache + distributed rate limit)
	rc, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rc.Close()

	// 4. Metrics
	var (
		metrics  *middleware.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = middleware.NewMetrics()
		if err := metrics.Register(reg); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		gatherer = reg
	}

	// 5. Optional ratio store
	engine := ranking.NewEngine(log)
	rankingHandler := handlers.NewRankingHandler(engine, nil, metrics, log)
	deps := []handlers.Dependency{}
	if rc.Enabled() {
		deps = append(deps, handlers.Dependency{Name: "redis", Pinger: rc})
	}

	if cfg.Database.Enabled() {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		log.Info("Connected to database")

		ratios := source.NewCachedSource(
			source.NewRepository(db.Pool),
			redis.NewCache(rc),
			cfg.RankingCacheTTL,
			log,
		)
		rankingHandler = handlers.NewRankingHandler(engine, ratios, metrics, log)
		deps = append(deps, handlers.Dependency{Name: "database", Pinger: db})
	}

	limiter := middleware.NewRateLimit("calculate", cfg.RateLimitPerMinute, redis.NewRateLimiter(rc), metrics, log)
	if err := limiter.TrustProxies(cfg.TrustedProxies); err != nil {
		return err
	}

	// 6. Router + server
	router := api.NewRouter(api.RouterDeps{
		Ranking:  rankingHandler,
		Health:   handlers.NewHealthHandler(deps...),
		Limiter:  limiter,
		Metrics:  metrics,
		Gatherer: gatherer,
		CORS:     middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins),
		Logger:   log,
	})
	server := api.New(cfg, log, router)

	// 7. Serve until SIGINT/SIGTERM, then drain
	ln, err := server.Listen()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	return server.Run(ctx, ln)
}
