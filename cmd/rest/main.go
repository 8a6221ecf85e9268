package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"proposal-intake-be/internal/bootstrap"
	"proposal-intake-be/internal/config"
	"proposal-intake-be/internal/server"
	"proposal-intake-be/internal/tracer"
	"proposal-intake-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	pool := database.DefaultPoolConfig()
	if !cfg.IsProduction() {
		pool = database.DebugPoolConfig()
	}
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, pool)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	// 4. Start Background Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := container.Start(ctx); err != nil {
		log.Printf("Background services error: %v", err)
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		_ = srv.Shutdown()
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
