package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/meeting-ingest/api/handlers"
	"github.com/feichai0017/meeting-ingest/api/routes"
	"github.com/feichai0017/meeting-ingest/config"
	"github.com/feichai0017/meeting-ingest/internal/service/transcript"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

func main() {
	// load config
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	// init logger
	log, err := logger.NewLogger(
		logger.FromConfig(cfg.Logging),
		logger.WithService("meeting-ingest"),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	// init transcript service
	svc, closeService, err := transcript.GetService(ctx, log, cfg)
	if err != nil {
		log.Fatal("Failed to get transcript service", logger.Error(err))
	}
	defer func() {
		if err := closeService(); err != nil {
			log.Error("Failed to release speech engine", logger.Error(err))
		}
	}()

	// init handlers
	h := handlers.NewHandlers(svc, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, log, routes.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: r,
	}

	// start server
	go func() {
		log.Info("Server starting", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
