package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/thetahealth/mirobody-sub003/internal/bootstrap"
	"github.com/thetahealth/mirobody-sub003/internal/config"
	"github.com/thetahealth/mirobody-sub003/internal/tracer"
	"github.com/thetahealth/mirobody-sub003/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Tracer
	shutdownTracer := tracer.Init(tracer.Config{
		Enabled:     cfg.Otel.Enabled,
		Endpoint:    cfg.Otel.Endpoint,
		ServiceName: cfg.Otel.ServiceName,
	})
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 5. Start Background Services
	// Note: In a larger app, we might use an errgroup or supervisor here
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	container.Logger.Info("Main", "agentfsd is running", map[string]interface{}{
		"ingest_topic": cfg.Ingest.TopicName,
		"environment":  cfg.App.Environment,
	})

	// 6. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	container.Logger.Info("Main", "Shutting down", map[string]interface{}{
		"signal":          sig.String(),
		"events_observed": container.EventMonitor.Counts(),
	})
	container.Logger.Sync()
}
