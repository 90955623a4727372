package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"eaa-compliance-agent/internal/bootstrap"
	"eaa-compliance-agent/internal/chat"
	"eaa-compliance-agent/internal/config"
	"eaa-compliance-agent/internal/logging"
	"eaa-compliance-agent/internal/orchestrator"
	"eaa-compliance-agent/internal/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger level comes from config; fall back to a default one for this.
		zap.Must(zap.NewProduction()).Fatal("invalid configuration", zap.Error(err))
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to build logger", zap.Error(err))
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := bootstrap.Pipeline(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build feedback pipeline", zap.Error(err))
	}
	h := bootstrap.Host(cfg)

	store, closeStore, err := bootstrap.ConversationStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open conversation store", zap.Error(err))
	}
	defer func() { _ = closeStore() }()

	d := deps{
		logger: logger,
		chat:   chat.NewRouter(h, pipeline, store, logger.Named("chat")),
	}

	var console func(r chi.Router)
	switch cfg.TaskMode {
	case config.TaskModeInline:
		d.tasks = inlineDispatcher{runner: orchestrator.New(h, pipeline, logger.Named("orchestrator")), logger: logger}
	default:
		tc, err := bootstrap.DialTemporal(cfg, logger)
		if err != nil {
			logger.Fatal("unable to create Temporal client", zap.Error(err))
		}
		defer tc.Close()

		service := workflows.NewService(tc, cfg.TemporalTaskQueue, cfg.ActivityTimeout)
		d.tasks = temporalDispatcher{service: service}
		d.queries = service
		console = func(r chi.Router) { registerUIRoutes(r, tc, service) }
	}

	r := newRouter(d)
	if console != nil {
		console(r)
	}
	serve(ctx, cfg, logger, r)
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger, handler http.Handler) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api listening", zap.String("addr", srv.Addr), zap.String("taskMode", cfg.TaskMode))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api server exited", zap.Error(err))
	}
}
