package main

import (
	"log"

	"vendalytics/adapters/postgres"
	"vendalytics/adapters/rng"
	"vendalytics/app"
	"vendalytics/internal"
	"vendalytics/internal/analysis/basket"
	"vendalytics/internal/analysis/churn"
	"vendalytics/internal/config"
	"vendalytics/internal/errors"
	"vendalytics/ports"
	"vendalytics/ui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuração inválida: %v", err)
	}

	logger := internal.NewDefaultLogger()

	var runs ports.RunRepository
	if cfg.Database.Enabled() {
		store, err := postgres.Connect(cfg.Database.URL)
		if err != nil {
			log.Fatalf("%v", errors.Wrap(err, "falha ao conectar ao banco"))
		}
		defer store.Close()
		runs = store
		logger.Info("persistência de análises habilitada")
	} else {
		logger.Info("DATABASE_URL ausente, análises não serão persistidas")
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

	server := ui.NewServer(orchestrator, runs, logger, cfg.Server.GinMode)
	if err := server.Run(cfg.Server.Port); err != nil {
		log.Fatalf("servidor encerrou com erro: %v", err)
	}
}
