package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eaa-compliance-agent/internal/config"
	"eaa-compliance-agent/internal/logging"
)

func main() {
	var root = &cobra.Command{Use: "eaa", SilenceUsage: true}

	root.AddCommand(auditCMD(), deliverTaskCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
