package graphchat

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"graphchat/pkg/config"
	"graphchat/pkg/health"
	"graphchat/pkg/logger"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the GraphRAG project is queryable",
	Long: `Check inspects the configured engine project: the settings file, the
output directory, and each required parquet artifact. The exit code is
non-zero when the project is not queryable.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("engine-project-dir", "", "GraphRAG project directory")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("engine-project-dir") {
		cfg.Engine.ProjectDir, _ = cmd.Flags().GetString("engine-project-dir")
	}

	log := logger.NewDefaultLogger(logger.ParseLevel(cfg.Log.Level))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status := health.New(cfg.Engine, log).Check(ctx)
	for name, rows := range status.RowCounts {
		fmt.Printf("%-28s %d rows\n", name, rows)
	}
	if !status.Healthy {
		for _, problem := range status.Problems {
			fmt.Println("problem:", problem)
		}
		return fmt.Errorf("project is not queryable")
	}

	fmt.Println(status.Message)
	return nil
}
