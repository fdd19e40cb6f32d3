package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/opsconsole/backend/internal/application/brain"
	"github.com/opsconsole/backend/internal/domain/demand"
	"github.com/opsconsole/backend/internal/infrastructure/cache"
	"github.com/opsconsole/backend/internal/infrastructure/config"
	"github.com/opsconsole/backend/internal/infrastructure/logger"
	"github.com/opsconsole/backend/internal/infrastructure/persistence"
)

func main() {
	var (
		lambda  float64
		timeout time.Duration
	)
	flag.Float64Var(&lambda, "lambda", 0, "Ridge penalty override (default: brain.ridge_lambda from config)")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall training run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if lambda == 0 {
		lambda = cfg.Brain.RidgeLambda
	}

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	observations := persistence.NewGormMetricsHistoryRepository(db.DB)
	entries := persistence.NewGormMemoryEntryRepository(db.DB)
	models := persistence.NewGormDemandModelRepository(db.DB)
	modelCache := cache.NewInMemoryModelCache(
		cache.WithModelTTL(cfg.Brain.ModelCacheTTL),
		cache.WithModelCacheLogger(log),
	)

	svc := brain.NewService(entries, models, modelCache,
		brain.WithLogger(log),
		brain.WithTrainer(demand.NewTrainer(demand.WithHoldoutResidue(cfg.Brain.HoldoutResidue))),
	)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rows, err := observations.ListTrainingRows(ctx)
	if err != nil {
		log.Fatal("Failed to load training rows", zap.Error(err))
	}
	log.Info("Training run started",
		zap.Int("rows", len(rows)),
		zap.Float64("lambda", lambda),
		zap.Int("holdout_residue", cfg.Brain.HoldoutResidue),
	)

	model, err := svc.FitModel(ctx, rows, lambda)
	if err != nil {
		log.Fatal("Training run failed", zap.Error(err))
	}

	log.Info("Model published",
		zap.Int("version", model.Version),
		zap.Int("training_rows", model.TrainingRows),
		zap.Int("holdout_rows", model.HoldoutRows),
		zap.Float64("holdout_rmse", model.HoldoutRMSE),
	)
}
