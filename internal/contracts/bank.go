package contracts

import "encoding/json"

// Direction tells whether a bigger ratio is a better ratio
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// String returns the direction name used in logs and CLI output
func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower_is_better"
	}
	return "higher_is_better"
}

// Metric is one ranked ratio
type Metric struct {
	Key       string
	Direction Direction
}

// Field names of a bank record
const (
	FieldName = "name"
	FieldLDR  = "ldr" // 표시 전용: 순위 계산에서 제외
)

// RankedMetrics is the fixed, ordered list of ratios used for scoring
// ⭐ SSOT: 랭킹 지표 목록은 여기서만 정의
var RankedMetrics = []Metric{
	{Key: "kppm", Direction: HigherIsBetter}, // capital adequacy
	{Key: "roa", Direction: HigherIsBetter},
	{Key: "roe", Direction: HigherIsBetter},
	{Key: "nim", Direction: HigherIsBetter},
	{Key: "ab", Direction: LowerIsBetter},  // classified assets
	{Key: "apb", Direction: LowerIsBetter}, // non-performing productive assets
	{Key: "ckpn", Direction: LowerIsBetter},
	{Key: "npl_gross", Direction: LowerIsBetter},
	{Key: "npl_net", Direction: LowerIsBetter},
	{Key: "bopo", Direction: LowerIsBetter}, // operating expense / operating income
	{Key: "cir", Direction: LowerIsBetter},
}

// RequiredFields returns every numeric field a record must carry:
// the ranked metrics followed by ldr
func RequiredFields() []string {
	fields := make([]string, 0, len(RankedMetrics)+1)
	for _, m := range RankedMetrics {
		fields = append(fields, m.Key)
	}
	return append(fields, FieldLDR)
}

// RawBank is one bank as submitted by a caller. Values are kept as raw JSON
// so numeric strings ("1.25") and numbers (1.25) can both be accepted.
type RawBank map[string]json.RawMessage

// ProcessedBank is a validated bank with parsed values
// Ranks is filled per metric during ranking and never leaves the engine
type ProcessedBank struct {
	Name   string
	LDR    float64
	Values map[string]float64
	Ranks  map[string]int
}

// TotalPoints sums the per-metric ranks (rank-sum, lower is better)
func (b *ProcessedBank) TotalPoints() int {
	total := 0
	for _, rank := range b.Ranks {
		total += rank
	}
	return total
}

// RankedBank is a single entry of the final ranking
// ⭐ SSOT: /calculate 응답 형식
type RankedBank struct {
	Name        string  `json:"name"`
	LDR         float64 `json:"ldr"`
	TotalPoints int     `json:"total_points"`
	Rank        int     `json:"rank"` // 1-based position, no ties
}

// SetString stores a string value (names, or numbers scraped as text)
func (b RawBank) SetString(key, value string) {
	data, _ := json.Marshal(value)
	b[key] = data
}

// SetNumber stores a numeric value
func (b RawBank) SetNumber(key string, value float64) {
	data, err := json.Marshal(value)
	if err != nil {
		// NaN/Inf cannot be encoded; keep them as text so validation rejects them
		b.SetString(key, "NaN")
		return
	}
	b[key] = data
}
