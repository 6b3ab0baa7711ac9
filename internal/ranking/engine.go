package ranking

import (
	"context"
	"sort"

	"github.com/wonny/bankrank/backend/internal/contracts"
	"github.com/wonny/bankrank/backend/pkg/logger"
)

// Engine ranks banks by the rank-sum of their ratios
// ⭐ SSOT: 은행 랭킹 로직은 여기서만
//
// Engine holds no per-call state and can be shared between requests.
type Engine struct {
	logger *logger.Logger
}

var _ contracts.RankEngine = (*Engine)(nil)

// NewEngine creates a new ranking engine
func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{logger: log}
}

// Rank validates the batch, ranks every metric and returns the final order.
// Any invalid record fails the whole batch.
func (e *Engine) Rank(ctx context.Context, banks []contracts.RawBank) ([]contracts.RankedBank, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	processed, err := ValidateAndParse(banks)
	if err != nil {
		return nil, err
	}

	for _, metric := range contracts.RankedMetrics {
		RankMetric(processed, metric)
	}

	ranked := AggregateAndSort(processed)

	e.logger.WithFields(map[string]interface{}{
		"banks":      len(ranked),
		"top_bank":   ranked[0].Name,
		"top_points": ranked[0].TotalPoints,
	}).Debug("Ranking completed")

	return ranked, nil
}

// RankMetric assigns standard competition ranks ("1,2,2,4") for one metric.
// Equal values share a rank and the next distinct value takes its 1-based
// position. Ties keep input order (stable sort).
func RankMetric(banks []*contracts.ProcessedBank, metric contracts.Metric) {
	order := make([]int, len(banks))
	for i := range order {
		order[i] = i
	}

	value := func(pos int) float64 {
		return banks[order[pos]].Values[metric.Key]
	}

	sort.SliceStable(order, func(i, j int) bool {
		if metric.Direction == contracts.HigherIsBetter {
			return value(i) > value(j)
		}
		return value(i) < value(j)
	})

	rank := 0
	for pos, idx := range order {
		if pos == 0 || value(pos) != value(pos-1) {
			rank = pos + 1
		}

		bank := banks[idx]
		if bank.Ranks == nil {
			bank.Ranks = make(map[string]int, len(contracts.RankedMetrics))
		}
		bank.Ranks[metric.Key] = rank
	}
}

// AggregateAndSort sums per-metric ranks, sorts ascending by the sum and
// numbers the result 1..N. Equal sums keep input order and still get
// distinct positions.
func AggregateAndSort(banks []*contracts.ProcessedBank) []contracts.RankedBank {
	ranked := make([]contracts.RankedBank, 0, len(banks))
	for _, bank := range banks {
		ranked = append(ranked, contracts.RankedBank{
			Name:        bank.Name,
			LDR:         bank.LDR,
			TotalPoints: bank.TotalPoints(),
		})
		bank.Ranks = nil
	}

	// Sort by total points (ascending)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalPoints < ranked[j].TotalPoints
	})

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}
