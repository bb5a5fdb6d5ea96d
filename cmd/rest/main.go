package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-chat-be/internal/bootstrap"
	"ai-chat-be/internal/config"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/server"
	"ai-chat-be/internal/service"
	"ai-chat-be/internal/tracer"
	"ai-chat-be/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	// 2. Initialize Tracer
	shutdownTracer := tracer.InitTracer(cfg.Tracing, sysLogger)

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.Database.LogLevel)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(gormDB, cfg, sysLogger)
	if err != nil {
		log.Fatalf("Unable to bootstrap: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sysLogger.Info("SERVER", "Shutting down", nil)

	// a turn may generate up to the ceiling and then save
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.MaxDuration+service.DefaultSaveTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sysLogger.Error("SERVER", "Graceful shutdown failed", map[string]interface{}{"error": err})
	}
	// producers of disconnected clients hold no connection, wait for them separately
	if err := container.Close(ctx); err != nil {
		sysLogger.Error("SERVER", "Unsaved turns dropped at shutdown", map[string]interface{}{"error": err})
	}
	if err := shutdownTracer(ctx); err != nil {
		sysLogger.Warn("TRACER", "Tracer shutdown failed", map[string]interface{}{"error": err})
	}
}
