// Package main is the entry point for the itinerary timeline server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itinerary-planner/backend/internal/api"
	"github.com/itinerary-planner/backend/internal/config"
	"github.com/itinerary-planner/backend/internal/optimizer"
	"github.com/itinerary-planner/backend/internal/session"
	"github.com/itinerary-planner/backend/internal/storage"
	"github.com/itinerary-planner/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "./config.yaml", "Path to the YAML configuration file")
	addr := flag.String("addr", "", "HTTP server address (overrides config)")
	dataDir := flag.String("data", "", "Data directory for the run journal (overrides config)")
	staticDir := flag.String("static", "", "Directory for static frontend files (overrides config)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Allow overriding version via environment (e.g., injected by container build/runtime)
	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv(nil)
	if *addr != "" {
		cfg.Listen = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *staticDir != "" {
		cfg.StaticDir = *staticDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.Listen); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	log.Printf("Starting itinerary timeline server (version: %s)...", version)

	// Open the optimizer run journal
	var db *storage.DB
	var runs session.RunStore
	if cfg.Journal {
		db, err = storage.Open(cfg.JournalPath())
		if err != nil {
			log.Fatalf("Failed to open run journal: %v", err)
		}
		defer db.Close()
		runs = storage.NewRunRepository(db)
		log.Printf("Run journal at %s", db.Path())
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize sessions
	client := optimizer.NewClient(cfg.OptimizerClient())
	sessions := cfg.SessionManager()
	manager := session.NewManager(sessions, client, runs)
	manager.SetListener(websocket.NewEventBroadcaster(hub))
	if err := manager.Start(); err != nil {
		log.Fatalf("Failed to start session maintenance: %v", err)
	}

	router := api.NewRouter(manager, hub, db, cfg.StaticDir)

	// Create HTTP server. Writes may wait for an optimizer response.
	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: sessions.OptimizerTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s (optimizer %s)", cfg.Listen, cfg.Optimizer.URL)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Sessions go before the hub so no update is broadcast into a stopped hub
	manager.Stop()
	hub.Stop()

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(listen string) error {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}

	url := fmt.Sprintf("http://%s/api/health", net.JoinHostPort(host, port))
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
