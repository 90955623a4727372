package main

import (
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"eaa-compliance-agent/internal/activities"
	"eaa-compliance-agent/internal/bootstrap"
	"eaa-compliance-agent/internal/config"
	"eaa-compliance-agent/internal/logging"
	"eaa-compliance-agent/internal/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("invalid configuration", zap.Error(err))
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	c, err := bootstrap.DialTemporal(cfg, logger)
	if err != nil {
		logger.Fatal("unable to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	pipeline, err := bootstrap.Pipeline(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build feedback pipeline", zap.Error(err))
	}

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ProcessTask)
	w.RegisterActivity(&activities.Activities{Host: bootstrap.Host(cfg), Pipeline: pipeline})

	logger.Info("worker started", zap.String("taskQueue", cfg.TemporalTaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("worker exited", zap.Error(err))
	}
}
