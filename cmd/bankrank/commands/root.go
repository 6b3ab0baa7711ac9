package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/bankrank/backend/pkg/config"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "bankrank",
	Short:         "Bank ranking - 재무비율 기반 은행 순위 산출",
	SilenceUsage:  true,
	SilenceErrors: false,
	Long: `Bank Ranking CLI

재무비율 11개 지표를 지표별 경쟁 순위(1,2,2,4)로 환산하고
순위 합계가 낮은 은행부터 정렬합니다.

Usage:
  go run ./cmd/bankrank [command]

Examples:
  go run ./cmd/bankrank api
  go run ./cmd/bankrank rank banks.json
  go run ./cmd/bankrank rank --period 2024Q4
  go run ./cmd/bankrank test-db`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig loads the environment and applies global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
