package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/spyserver/config"
	"github.com/wfunc/spyserver/logger"
	"github.com/wfunc/spyserver/monitor"
	"github.com/wfunc/spyserver/persistence"
	"github.com/wfunc/spyserver/server"
	"github.com/wfunc/spyserver/services"
)

func main() {
	// Initialize logger
	logger.Init("info")
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Init(cfg.Log.Level)

	// Initialize Database
	db, err := persistence.Open(cfg.Database)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	if cfg.Database.Enabled {
		logger.Log.Infof("Database connection successful (driver %s).", cfg.Database.Driver)
	} else {
		logger.Log.Info("Database disabled, keeping finished games in memory.")
	}
	records := services.NewRecordService(db)

	mon := monitor.NewMonitor("spyserver")
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	// Initialize Game Server
	gameServer, err := server.NewGameServer(cfg, records, mon)
	if err != nil {
		logger.Log.Fatalf("Failed to create game server: %v", err)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Log.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := gameServer.Shutdown(ctx); err != nil {
			logger.Log.Errorf("Shutdown: %v", err)
		}
	}()

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}

	mon.Close()
	if err := records.Close(); err != nil {
		logger.Log.Errorf("Closing archive: %v", err)
	}
	logger.Log.Info("Server stopped.")
}
