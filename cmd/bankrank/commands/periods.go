package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bankrank/backend/internal/source"
	"github.com/wonny/bankrank/backend/pkg/database"
)

// periodsCmd represents the periods command
var periodsCmd = &cobra.Command{
	Use:   "periods",
	Short: "DB 공시 기간 목록",
	Long: `DB에 저장된 공시 기간과 은행 수를 최신순으로 표시합니다.

Example:
  go run ./cmd/bankrank periods
  go run ./cmd/bankrank periods --json`,
	RunE: runPeriods,
}

var periodsJSON bool

func init() {
	rootCmd.AddCommand(periodsCmd)

	periodsCmd.Flags().BoolVar(&periodsJSON, "json", false, "JSON 출력")
}

func runPeriods(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	periods, err := source.NewRepository(db.Pool).ListPeriods(ctx)
	if err != nil {
		return fmt.Errorf("❌ Failed to list periods: %w", err)
	}

	out := cmd.OutOrStdout()
	if periodsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(periods)
	}

	if len(periods) == 0 {
		fmt.Fprintln(out, "⚠️  No periods stored yet")
		return nil
	}
	PrintPeriods(out, periods)
	return nil
}
