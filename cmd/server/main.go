// Command server runs the HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/antoinealex/eureka-empowerment-environment/internal/app"
	"github.com/antoinealex/eureka-empowerment-environment/internal/config"
	"github.com/antoinealex/eureka-empowerment-environment/pkg/logger"
)

func main() {
	// Missing .env is fine; the environment may be set by the deployment.
	_ = godotenv.Load()

	log := logger.NewDefault("server")
	cfg := config.LoadOrDefault()

	application, err := app.New(cfg, app.Options{}, log)
	if err != nil {
		log.WithError(err).Error("application not built")
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           application.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", cfg.Listen).Info("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}
