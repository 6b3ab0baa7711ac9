package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bankrank/backend/migrations"
	"github.com/wonny/bankrank/backend/pkg/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "비율 저장소 스키마 적용",
	Long: `data.bank_ratios 스키마를 생성합니다. 여러 번 실행해도 안전합니다.

Example:
  go run ./cmd/bankrank migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("❌ Migration failed: %w", err)
	}

	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s\n", name)
	}
	return nil
}
