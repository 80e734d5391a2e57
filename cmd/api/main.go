package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/webpay/internal/bootstrap"
	"github.com/cassiomorais/webpay/internal/controller"
	"github.com/cassiomorais/webpay/internal/session"
	"github.com/cassiomorais/webpay/internal/tasks"
	"github.com/cassiomorais/webpay/internal/webhook"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "webpay-api", "webpay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	producer := tasks.NewStreamProducer(app.Redis, tasks.NotifyStream, app.Logger, app.Metrics)
	sessions := session.NewStore(&app.Config.Session)
	processor := webhook.NewProcessor(app.Solitude, producer, app.Logger, app.Metrics)

	router := controller.NewRouter(controller.RouterDeps{
		Config:      app.Config,
		Logger:      app.Logger,
		RedisClient: app.Redis,
		Metrics:     app.Metrics,
		Solitude:    app.Solitude,
		Provider:    app.Provider,
		Producer:    producer,
		Sessions:    sessions,
		Processor:   processor,
	})

	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
