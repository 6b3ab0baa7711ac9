package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bankrank/backend/internal/contracts"
	"github.com/wonny/bankrank/backend/internal/ranking"
	"github.com/wonny/bankrank/backend/internal/source"
	"github.com/wonny/bankrank/backend/pkg/database"
	"github.com/wonny/bankrank/backend/pkg/httputil"
	"github.com/wonny/bankrank/backend/pkg/logger"
)

// rankCmd represents the rank command
var rankCmd = &cobra.Command{
	Use:   "rank [file]",
	Short: "은행 순위 계산 (파일 / URL / DB 기간)",
	Long: `은행 재무비율을 읽어 순위를 계산합니다.

입력 (하나만 지정):
- 파일: .json / .yaml / .yml / .html
- --url: JSON, YAML 또는 HTML 표를 게시하는 주소
- --period: DB에 저장된 공시 기간 (DATABASE_URL 필요)

Example:
  go run ./cmd/bankrank rank banks.json
  go run ./cmd/bankrank rank ratios.html --points
  go run ./cmd/bankrank rank --url https://example.com/ratios.html
  go run ./cmd/bankrank rank --period 2024Q4 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRank,
}

var (
	rankURL    string
	rankPeriod string
	rankJSON   bool
	rankPoints bool
)

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().StringVar(&rankURL, "url", "", "원격 비율표 주소")
	rankCmd.Flags().StringVar(&rankPeriod, "period", "", "DB 공시 기간 (예: 2024Q4)")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "JSON 출력")
	rankCmd.Flags().BoolVar(&rankPoints, "points", false, "Total Points 열 표시")
}

func runRank(cmd *cobra.Command, args []string) error {
	inputs := 0
	if len(args) == 1 {
		inputs++
	}
	if rankURL != "" {
		inputs++
	}
	if rankPeriod != "" {
		inputs++
	}
	if inputs != 1 {
		return errors.New("specify exactly one input: a file, --url or --period")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(cfg, os.Stderr)

	ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
	defer cancel()

	var banks []contracts.RawBank
	switch {
	case len(args) == 1:
		banks, err = source.LoadFile(args[0])

	case rankURL != "":
		banks, err = source.LoadURL(ctx, httputil.New(log), rankURL)

	default:
		var db *database.DB
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		banks, err = source.NewRepository(db.Pool).LoadPeriod(ctx, rankPeriod)
	}
	if err != nil {
		return describeRankError("load input", err)
	}

	ranked, err := ranking.NewEngine(log).Rank(ctx, banks)
	if err != nil {
		return describeRankError("rank", err)
	}

	out := cmd.OutOrStdout()
	if rankJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	PrintRanking(out, ranked, rankPoints)
	return nil
}

// describeRankError keeps the client-facing message and adds the offending record
func describeRankError(step string, err error) error {
	var verr *contracts.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("❌ %s: %s (%s)", step, contracts.ErrInvalidInputData, verr)
	}
	return fmt.Errorf("❌ %s: %w", step, err)
}
