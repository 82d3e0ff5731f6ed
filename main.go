package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"chillerdash/internal"
	"chillerdash/internal/config"
	"chillerdash/internal/container"
	"chillerdash/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.Logging.Level))
	gin.SetMode(appConfig.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(appConfig, logger)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}
	if err := c.OpenDatabase(ctx); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer c.Close()

	server := ui.NewServer(c.Dashboard, c.Registry, logger)
	httpServer := &http.Server{
		Addr:         ":" + appConfig.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  appConfig.Server.ReadTimeout,
		WriteTimeout: appConfig.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("[Main] Chiller Energy Dashboard listening on http://localhost:%s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return c.Janitor.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("[Main] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("[Main] Server stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Info("[Main] Server stopped")
}
