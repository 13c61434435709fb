// Package main is the entry point for the channel sync server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/channel-sync/backend/internal/api"
	"github.com/channel-sync/backend/internal/app"
	"github.com/channel-sync/backend/internal/config"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	addr := flag.String("addr", ":8099", "HTTP server address")
	dataDir := flag.String("data", "", "Data directory for the SQLite database and mapping store (default $DATA_DIR or ./data)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}
	log.Printf("Starting channel sync server (version: %s)...", version)

	cfg := config.Load(*dataDir)
	a, err := app.New(cfg, app.Options{Notifications: true})
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()
	log.Printf("Using %s mapping store, database at %s", cfg.MappingStore, a.DB.Path())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.Hub.Run(ctx)

	if err := a.Scheduler.Start(ctx); err != nil {
		log.Printf("Warning: Failed to start reconciliation scheduler: %v", err)
	}

	router := api.NewRouter(api.Services{
		DB:         a.DB,
		Hub:        a.Hub,
		Ingester:   a.Normalizer,
		Engine:     a.Engine,
		ARI:        a.ARI,
		Reconciler: a.Scheduler,
		Scheduler:  a.Scheduler,
	})

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	a.Scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	cancel()

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	resp, err := http.Get("http://localhost" + addr + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
