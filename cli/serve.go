package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"classgen-server-go/allocator"
	"classgen-server-go/config"
	"classgen-server-go/db"
	"classgen-server-go/handlers"
	"classgen-server-go/logging"
	"classgen-server-go/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API for uploading surveys and downloading class lists.

Runs are kept in Redis when redis.enabled is set, otherwise in memory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, closeStore, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		svc := service.NewAllocationService(store, allocationOptions(cfg), logger)
		gin.SetMode(gin.ReleaseMode)
		router := handlers.NewRouter(handlers.NewAPIHandler(svc, logger), cfg.MaxUploadBytes())

		return serve(ctx, cfg.Server.Addr, router, logger)
	},
}

func allocationOptions(cfg *config.Config) allocator.Options {
	return allocator.Options{
		ClassCount: cfg.Allocation.ClassCount,
		Capacity:   cfg.Allocation.Capacity,
	}
}

// openStore connects to Redis when enabled and falls back to memory otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.RunStore, func(), error) {
	if !cfg.Redis.Enabled {
		logger.Info("redis disabled, keeping runs in memory")
		return db.NewMemoryStore(), func() {}, nil
	}

	client, err := db.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))

	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("closing redis client failed", zap.Error(err))
		}
	}
	return db.NewRedisStore(client, cfg.GetRunTTL(), logger), closeFn, nil
}

func serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to run server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
