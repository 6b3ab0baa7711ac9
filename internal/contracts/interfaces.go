package contracts

import "context"

// RankEngine turns a batch of raw bank records into an ordered ranking
// ⭐ SSOT: 랭킹 엔진 인터페이스
type RankEngine interface {
	Rank(ctx context.Context, banks []RawBank) ([]RankedBank, error)
}

// RatioSource provides published bank ratios per reporting period
type RatioSource interface {
	ListPeriods(ctx context.Context) ([]Period, error)
	LoadPeriod(ctx context.Context, period string) ([]RawBank, error)
}
