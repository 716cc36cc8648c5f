package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"seasonal-menu/internal/app"
	"seasonal-menu/internal/config"
	"seasonal-menu/internal/logging"
	"seasonal-menu/internal/web"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, false, "")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Initialize shared dependencies (menu client, metrics, alerts)
	rt, err := app.NewRuntime(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize runtime", zap.Error(err))
	}
	defer rt.Close()

	// 3. Initialize Web Server
	server, err := web.NewServer(ctx, rt.NewApp,
		web.WithLogger(logger.Named("web")),
		web.WithSessionTTL(cfg.SessionTTL),
		web.WithDataPath(cfg.MetricsDBPath),
	)
	if err != nil {
		logger.Fatal("Failed to initialize web server", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. Serve until a signal arrives, then shut down gracefully
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Menu web server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return server.RunJanitor(gctx, time.Minute)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server exiting")
}
