package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/bankrank/backend/internal/api/handlers"
	"github.com/wonny/bankrank/backend/internal/api/middleware"
	"github.com/wonny/bankrank/backend/internal/api/web"
	"github.com/wonny/bankrank/backend/pkg/logger"
)

// RouterDeps collects everything the router wires together.
// Nil Limiter, Metrics or Gatherer switch the matching feature off.
type RouterDeps struct {
	Ranking  *handlers.RankingHandler
	Health   *handlers.HealthHandler
	Limiter  *middleware.RateLimit
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer
	CORS     middleware.CORSConfig
	Logger   *logger.Logger
}

// preflight answers OPTIONS that the CORS middleware let through
var preflight = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps RouterDeps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	r := mux.NewRouter()

	// Health check
	r.Handle("/health", http.HandlerFunc(deps.Health.Check)).Methods(http.MethodGet)

	// Ranking
	var calculate http.Handler = http.HandlerFunc(deps.Ranking.Calculate)
	if deps.Limiter != nil {
		calculate = deps.Limiter.Middleware(calculate)
	}
	r.Handle("/calculate", calculate).Methods(http.MethodPost)
	r.Handle("/calculate", preflight).Methods(http.MethodOptions)

	// Stored periods (DATABASE_URL only)
	if deps.Ranking.HasSource() {
		api := r.PathPrefix("/api").Subrouter()
		api.HandleFunc("/periods", deps.Ranking.ListPeriods).Methods(http.MethodGet)
		api.HandleFunc("/rankings/{period}", deps.Ranking.GetPeriodRanking).Methods(http.MethodGet)
		api.Handle("/periods", preflight).Methods(http.MethodOptions)
		api.Handle("/rankings/{period}", preflight).Methods(http.MethodOptions)
	}

	// Prometheus
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// UI
	r.PathPrefix("/static/").Handler(web.AssetHandler()).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/", web.IndexHandler()).Methods(http.MethodGet, http.MethodHead)

	// Apply middleware (outermost first)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(deps.CORS))

	return r
}
