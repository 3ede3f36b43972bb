// Command cli runs the sales analysis pipeline from the terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"vendalytics/adapters/ingest"
	"vendalytics/adapters/postgres"
	"vendalytics/adapters/rng"
	"vendalytics/app"
	"vendalytics/internal"
	"vendalytics/internal/analysis/basket"
	"vendalytics/internal/analysis/churn"
	"vendalytics/internal/config"
	"vendalytics/internal/report"
	"vendalytics/ports"
	"vendalytics/ui"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	viper.SetEnvPrefix("VENDALYTICS")
	viper.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "vendalytics",
		Short: "Análise de vendas: segmentação, retenção, churn, cesta e previsão",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var seed int64
	var minSupport, minConfidence float64
	var asJSON bool
	var reportPath string

	cmd := &cobra.Command{
		Use:   "analyze [arquivo]",
		Short: "Analisa uma planilha de vendas (.csv, .xlsx)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), args[0], analyzeOptions{
				seed:          seed,
				minSupport:    minSupport,
				minConfidence: minConfidence,
				asJSON:        asJSON,
				reportPath:    reportPath,
			})
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", viper.GetInt64("SEED"), "semente para operações determinísticas (0 usa 42)")
	cmd.Flags().Float64Var(&minSupport, "min-support", 0.02, "suporte mínimo da análise de cesta")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.30, "confiança mínima da análise de cesta")
	cmd.Flags().BoolVar(&asJSON, "json", false, "imprime o resultado completo em JSON")
	cmd.Flags().StringVar(&reportPath, "report", "", "grava o resumo executivo em markdown no caminho dado")

	return cmd
}

type analyzeOptions struct {
	seed          int64
	minSupport    float64
	minConfidence float64
	asJSON        bool
	reportPath    string
}

func runAnalyze(ctx context.Context, path string, opts analyzeOptions) error {
	logger := internal.NewDefaultLogger()

	bar := progressbar.NewOptions(3,
		progressbar.OptionSetDescription("analisando"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)

	loaded, err := ingest.Load(path)
	if err != nil {
		return err
	}
	bar.Add(1)

	options := app.DefaultOptions()
	options.Basket = basket.Config{MinSupport: opts.minSupport, MinConfidence: opts.minConfidence}
	if opts.seed != 0 {
		options.Seed = opts.seed
	}

	orchestrator := app.NewOrchestrator(options, rng.New(), logger)
	result := orchestrator.RunAll(ctx, loaded.Dataset, loaded.Columns)
	bar.Add(1)

	if opts.reportPath != "" {
		if err := os.WriteFile(opts.reportPath, []byte(report.Markdown(result)), 0o644); err != nil {
			return fmt.Errorf("falha ao gravar relatório: %w", err)
		}
	}
	bar.Add(1)

	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Print(report.Markdown(result))
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Sobe o servidor HTTP de análise",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := internal.NewDefaultLogger()

			var runs ports.RunRepository
			if cfg.Database.Enabled() {
				store, err := postgres.Connect(cfg.Database.URL)
				if err != nil {
					return err
				}
				defer store.Close()
				runs = store
			}

			orchestrator := app.NewOrchestrator(app.Options{
				Basket: basket.Config{
					MinSupport:    cfg.Analysis.MinSupport,
					MinConfidence: cfg.Analysis.MinConfidence,
				},
				Churn: churn.Thresholds{
					High:   cfg.Analysis.ChurnHigh,
					Medium: cfg.Analysis.ChurnMedium,
					Low:    cfg.Analysis.ChurnLow,
				},
				Seed: cfg.Analysis.ClusteringSeed,
			}, rng.New(), logger)

			return ui.NewServer(orchestrator, runs, logger, cfg.Server.GinMode).Run(cfg.Server.Port)
		},
	}
}
