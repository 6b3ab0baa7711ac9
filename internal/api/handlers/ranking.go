package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/bankrank/backend/internal/api/middleware"
	"github.com/wonny/bankrank/backend/internal/contracts"
	"github.com/wonny/bankrank/backend/internal/ranking"
	"github.com/wonny/bankrank/backend/pkg/logger"
)

// MaxRequestBody caps the /calculate payload
const MaxRequestBody = 1 << 20

// Ranking batch outcomes reported to the observer
const (
	ResultOK             = "ok"
	ResultInvalidRequest = "invalid_request"
	ResultInvalidInput   = "invalid_input"
	ResultError          = "error"
)

// RankingObserver receives the outcome of every ranking batch
type RankingObserver interface {
	ObserveRanking(result string, banks int)
}

// RankingHandler handles ranking-related API endpoints
// ⭐ SSOT: 랭킹 API 핸들러는 이 구조체에서만
type RankingHandler struct {
	engine   contracts.RankEngine
	source   contracts.RatioSource // nil without DATABASE_URL
	observer RankingObserver
	logger   *logger.Logger
}

// NewRankingHandler creates a new ranking handler. source and observer may be nil.
func NewRankingHandler(engine contracts.RankEngine, source contracts.RatioSource, observer RankingObserver, log *logger.Logger) *RankingHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &RankingHandler{
		engine:   engine,
		source:   source,
		observer: observer,
		logger:   log,
	}
}

// HasSource reports whether period endpoints can be served
func (h *RankingHandler) HasSource() bool {
	return h.source != nil
}

// Calculate ranks the posted batch
// POST /calculate
func (h *RankingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithField("request_id", middleware.GetRequestID(r.Context()))

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)
	banks, err := ranking.DecodeBatch(r.Body)
	if err != nil {
		h.respondRankError(w, log, err)
		return
	}

	h.rank(w, r, log, banks)
}

// ListPeriods returns the reporting periods with published ratios
// GET /api/periods
func (h *RankingHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondError(w, http.StatusNotFound, "Ratio source not configured")
		return
	}

	periods, err := h.source.ListPeriods(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list periods")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve periods")
		return
	}

	respondJSON(w, http.StatusOK, periods)
}

// GetPeriodRanking ranks the stored ratios of one reporting period
// GET /api/rankings/{period}
func (h *RankingHandler) GetPeriodRanking(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		respondError(w, http.StatusNotFound, "Ratio source not configured")
		return
	}

	period := mux.Vars(r)["period"]
	log := h.logger.WithFields(map[string]interface{}{
		"request_id": middleware.GetRequestID(r.Context()),
		"period":     period,
	})

	banks, err := h.source.LoadPeriod(r.Context(), period)
	if err != nil {
		h.respondRankError(w, log, err)
		return
	}

	h.rank(w, r, log, banks)
}

func (h *RankingHandler) rank(w http.ResponseWriter, r *http.Request, log *logger.Logger, banks []contracts.RawBank) {
	ranked, err := h.engine.Rank(r.Context(), banks)
	if err != nil {
		h.respondRankError(w, log, err)
		return
	}

	h.observe(ResultOK, len(ranked))
	respondJSON(w, http.StatusOK, ranked)
}

// respondRankError maps domain errors to status codes
func (h *RankingHandler) respondRankError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, contracts.ErrInvalidRequest):
		h.observe(ResultInvalidRequest, 0)
		log.WithError(err).Warn("Rejected ranking request")
		respondError(w, http.StatusBadRequest, contracts.ErrInvalidRequest.Error())

	case errors.Is(err, contracts.ErrInvalidInputData):
		h.observe(ResultInvalidInput, 0)
		log.WithError(err).Warn("Rejected ranking input")
		respondError(w, http.StatusBadRequest, contracts.ErrInvalidInputData.Error())

	case errors.Is(err, contracts.ErrPeriodNotFound):
		respondError(w, http.StatusNotFound, contracts.ErrPeriodNotFound.Error())

	default:
		h.observe(ResultError, 0)
		log.WithError(err).Error("Ranking failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *RankingHandler) observe(result string, banks int) {
	if h.observer != nil {
		h.observer.ObserveRanking(result, banks)
	}
}
